// Package metrics 提供 Prometheus helper，注册模拟引擎的业务指标
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// 周期计数
	CyclesTotal prometheus.Counter
	// 周期耗时
	CycleDuration prometheus.Histogram
	// 周期内单元（投资者×标的）失败计数
	UnitErrorsTotal prometheus.Counter

	// 成交计数，按方向
	TradesTotal *prometheus.CounterVec
	// 拒单计数，按原因
	TradesRejectedTotal *prometheus.CounterVec
	// 行情缺失跳过计数
	QuotesMissingTotal prometheus.Counter

	// 每个投资者的当前权益
	InvestorEquity *prometheus.GaugeVec
	// 每个投资者的最大回撤比例
	InvestorDrawdown *prometheus.GaugeVec
}

// New 创建并注册指标实例
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "cycles_total",
			Help:      "Total simulation cycles run",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "cycle_duration_seconds",
			Help:      "Simulation cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		UnitErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "unit_errors_total",
			Help:      "Failed (investor, instrument) units skipped within cycles",
		}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "trades_total",
			Help:      "Executed trades by side",
		}, []string{"side"}),
		TradesRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "trades_rejected_total",
			Help:      "Rejected trade decisions by reason",
		}, []string{"reason"}),
		QuotesMissingTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "quotes_missing_total",
			Help:      "Instruments skipped for lack of a quote",
		}),
		InvestorEquity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "investor_equity",
			Help:      "Latest settled total equity per investor",
		}, []string{"investor"}),
		InvestorDrawdown: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "papertrading",
			Subsystem: serviceName,
			Name:      "investor_drawdown",
			Help:      "Latest drawdown fraction from peak equity per investor",
		}, []string{"investor"}),
	}

	registry.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.UnitErrorsTotal,
		m.TradesTotal,
		m.TradesRejectedTotal,
		m.QuotesMissingTotal,
		m.InvestorEquity,
		m.InvestorDrawdown,
	)
	return m
}

// Handler 返回 promhttp 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve 在独立端口暴露指标
func (m *Metrics) Serve(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
