package domain

import (
	"fmt"
	"math/rand"
	"sort"
)

// Factory 角色评估器构造函数。rng 仅随机类角色使用，其余角色忽略。
type Factory func(params Params, rng *rand.Rand) (Evaluator, error)

// Registry 角色注册表：角色键到评估器构造函数的映射。
// 编排器只查表分发，新增角色无需改动编排器。
type Registry struct {
	factories map[string]Factory
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register 注册角色，重复注册视为编程错误
func (r *Registry) Register(key string, factory Factory) {
	if _, dup := r.factories[key]; dup {
		panic(fmt.Sprintf("persona already registered: %s", key))
	}
	r.factories[key] = factory
}

// New 按角色键构造评估器
func (r *Registry) New(key string, params Params, rng *rand.Rand) (Evaluator, error) {
	factory, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("unknown persona key: %s", key)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return factory(params, rng)
}

// Keys 返回已注册角色键（有序）
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
