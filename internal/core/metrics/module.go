package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Registry *prometheus.Registry
	Gate     *GateMetrics
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}

// ProvideMetrics 提供指标实例
func ProvideMetrics() Result {
	reg := NewRegistry()
	return Result{
		Registry: reg,
		Gate:     NewGateMetrics(reg),
	}
}
