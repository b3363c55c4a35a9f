// Package domain 目录服务领域模型：投资者与标的的不可变目录
package domain

import (
	"fmt"
)

// Investor 投资者目录项
// 一个投资者对应一种固定策略角色，启动时装载，运行期不变。
type Investor struct {
	// 投资者 ID，全局唯一
	ID string
	// 展示名称
	Name string
	// 策略角色键，对应策略注册表中的一项
	Persona string
	// 角色阈值参数，按角色解释
	Params map[string]string
}

// Instrument 标的目录项
type Instrument struct {
	Symbol string
	Name   string
}

// Catalog 不可变目录。显式传入编排器，不做包级全局状态，便于测试时注入缩减目录。
type Catalog struct {
	investors   []Investor
	instruments []Instrument
	byID        map[string]Investor
}

// New 构建目录
func New(investors []Investor, instruments []Instrument) (*Catalog, error) {
	if len(investors) == 0 {
		return nil, fmt.Errorf("investor catalog is empty")
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("instrument list is empty")
	}
	byID := make(map[string]Investor, len(investors))
	for _, inv := range investors {
		if _, dup := byID[inv.ID]; dup {
			return nil, fmt.Errorf("duplicate investor id: %s", inv.ID)
		}
		byID[inv.ID] = inv
	}
	c := &Catalog{
		investors:   make([]Investor, len(investors)),
		instruments: make([]Instrument, len(instruments)),
		byID:        byID,
	}
	copy(c.investors, investors)
	copy(c.instruments, instruments)
	return c, nil
}

// Investors 返回投资者列表副本
func (c *Catalog) Investors() []Investor {
	out := make([]Investor, len(c.investors))
	copy(out, c.investors)
	return out
}

// Instruments 返回标的列表副本
func (c *Catalog) Instruments() []Instrument {
	out := make([]Instrument, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// Investor 按 ID 查找投资者
func (c *Catalog) Investor(id string) (Investor, bool) {
	inv, ok := c.byID[id]
	return inv, ok
}

// Symbols 返回全部标的代码
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.instruments))
	for i, ins := range c.instruments {
		out[i] = ins.Symbol
	}
	return out
}
