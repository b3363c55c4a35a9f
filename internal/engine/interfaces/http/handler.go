// Package http 模拟引擎的只读查询接口
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/wyfcoding/papertrading/internal/catalog/domain"
	ledgerdomain "github.com/wyfcoding/papertrading/internal/ledger/domain"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketdata/domain"
	"github.com/wyfcoding/papertrading/pkg/logger"
)

// EngineHandler 引擎查询处理器
// 只暴露读路径，账本状态一律由周期任务写入
type EngineHandler struct {
	catalog    *catalogdomain.Catalog
	repo       ledgerdomain.Repository
	quoteCache marketdomain.QuoteCache
}

// NewEngineHandler 创建查询处理器实例
func NewEngineHandler(catalog *catalogdomain.Catalog, repo ledgerdomain.Repository, quoteCache marketdomain.QuoteCache) *EngineHandler {
	return &EngineHandler{catalog: catalog, repo: repo, quoteCache: quoteCache}
}

// RegisterRoutes 注册路由
func (h *EngineHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/investors", h.ListInvestors)
		api.GET("/investors/:id/portfolio", h.GetPortfolio)
		api.GET("/investors/:id/positions", h.ListPositions)
		api.GET("/investors/:id/trades", h.ListTrades)
		api.GET("/investors/:id/equity", h.ListEquityCurve)
		api.GET("/trades", h.ListAllTrades)
		api.GET("/quotes/:symbol", h.GetQuote)
	}
}

// ListInvestors 返回投资者目录
func (h *EngineHandler) ListInvestors(c *gin.Context) {
	type investorItem struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Persona string `json:"persona"`
	}
	investors := h.catalog.Investors()
	items := make([]investorItem, 0, len(investors))
	for _, inv := range investors {
		items = append(items, investorItem{ID: inv.ID, Name: inv.Name, Persona: inv.Persona})
	}
	c.JSON(http.StatusOK, gin.H{"investors": items})
}

// GetPortfolio 查询资金账户
func (h *EngineHandler) GetPortfolio(c *gin.Context) {
	investorID := c.Param("id")
	portfolio, err := h.repo.GetPortfolio(c.Request.Context(), investorID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get portfolio", "investor_id", investorID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if portfolio == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "portfolio not found"})
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// ListPositions 查询持仓
func (h *EngineHandler) ListPositions(c *gin.Context) {
	investorID := c.Param("id")
	positions, err := h.repo.ListPositions(c.Request.Context(), investorID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list positions", "investor_id", investorID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// ListTrades 分页查询单个投资者的成交流水
func (h *EngineHandler) ListTrades(c *gin.Context) {
	h.listTrades(c, c.Param("id"))
}

// ListAllTrades 分页查询全部成交流水
func (h *EngineHandler) ListAllTrades(c *gin.Context) {
	h.listTrades(c, "")
}

func (h *EngineHandler) listTrades(c *gin.Context, investorID string) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	trades, total, err := h.repo.ListTrades(c.Request.Context(), investorID, limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list trades", "investor_id", investorID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "total": total})
}

// ListEquityCurve 查询权益曲线，默认最近 30 天
func (h *EngineHandler) ListEquityCurve(c *gin.Context) {
	investorID := c.Param("id")

	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if s := c.Query("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, expected YYYY-MM-DD"})
			return
		}
		start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, expected YYYY-MM-DD"})
			return
		}
		end = t
	}

	snapshots, err := h.repo.ListSnapshots(c.Request.Context(), investorID, start, end)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list equity snapshots", "investor_id", investorID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// GetQuote 查询缓存的最新报价
func (h *EngineHandler) GetQuote(c *gin.Context) {
	symbol := c.Param("symbol")
	if h.quoteCache == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quote cache disabled"})
		return
	}

	quote, err := h.quoteCache.Get(c.Request.Context(), symbol)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get quote", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
		return
	}
	c.JSON(http.StatusOK, quote)
}
