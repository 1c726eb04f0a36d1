// Package metrics 提供 Prometheus 指标
//
// 基于自定义 Registry，避免污染全局默认 Registry。
// 准入门控的决策计数（准入/拒绝/推迟）和拒绝响应的
// 失败/超时计数都在 GateMetrics 中定义。
package metrics
