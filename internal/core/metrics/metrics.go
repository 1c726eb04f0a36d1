package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// GateMetrics 准入门控指标
type GateMetrics struct {
	// Accepted 准入的连接总数
	Accepted prometheus.Counter

	// Rejected 拒绝的连接总数
	Rejected prometheus.Counter

	// Deferred 因地址未解析而推迟决策的次数
	Deferred prometheus.Counter

	// PolicyErrors 策略评估失败次数
	PolicyErrors prometheus.Counter

	// ResponseErrors 拒绝响应写入失败次数
	ResponseErrors prometheus.Counter

	// ResponseTimeouts 等待拒绝响应超时次数
	ResponseTimeouts prometheus.Counter
}

// NewGateMetrics 注册并返回门控指标
func NewGateMetrics(reg *prometheus.Registry) *GateMetrics {
	m := &GateMetrics{
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conngate_accepted_total",
			Help: "Total connections admitted by the gate.",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conngate_rejected_total",
			Help: "Total connections rejected by the gate.",
		}),
		Deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conngate_deferred_total",
			Help: "Decisions deferred because the remote address was unresolved.",
		}),
		PolicyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conngate_policy_errors_total",
			Help: "Policy evaluation failures.",
		}),
		ResponseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conngate_response_errors_total",
			Help: "Reject response writes that completed with an error.",
		}),
		ResponseTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conngate_response_timeouts_total",
			Help: "Reject responses that timed out before completion.",
		}),
	}
	reg.MustRegister(
		m.Accepted, m.Rejected, m.Deferred,
		m.PolicyErrors, m.ResponseErrors, m.ResponseTimeouts,
	)
	return m
}
