package gate

import (
	"time"

	"github.com/dep2p/go-conngate/internal/core/metrics"
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
)

// Config 门控配置
type Config struct {
	// RejectTimeout 等待拒绝响应的最长时间
	//
	// 拒绝钩子返回待完成的响应写入时，门控最多等待这么久，
	// 超时后强制关闭连接并记录超时事件。
	// 0 表示一直等待（响应永不完成时连接保持打开）。
	// 默认值: 0
	RejectTimeout time.Duration

	// Bus 事件总线（可选）
	//
	// 设置后门控在每次决策时发布
	// EvtConnectionAccepted / EvtConnectionRejected 事件。
	Bus pkgif.EventBus

	// Metrics 门控指标（可选）
	Metrics *metrics.GateMetrics
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		RejectTimeout: 0,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.RejectTimeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}
