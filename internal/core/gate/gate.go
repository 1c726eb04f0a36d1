package gate

import (
	"fmt"
	"net"
	"time"

	"github.com/dep2p/go-conngate/internal/core/pipeline"
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/lib/log"
	"github.com/dep2p/go-conngate/pkg/types"
)

var logger = log.Logger("core/gate")

// 确保实现了接口
var _ pkgif.Handler = (*Gate[net.Addr])(nil)

// Gate 连接准入门控
//
// 作为处理链阶段挂载，对每条连接恰好评估一次准入决策：
// 远程地址解析为 T 后调用策略，准入则放行并自摘除，拒绝则
// 关闭连接（可选地先等待拒绝响应写完）。
//
// Gate 自身不持有跨连接的可变状态，可以安全地挂载到多条链。
type Gate[T net.Addr] struct {
	pipeline.BaseHandler

	policy pkgif.Policy[T]
	cfg    Config

	acceptedEmitter pkgif.Emitter
	rejectedEmitter pkgif.Emitter
}

// New 创建准入门控
func New[T net.Addr](policy pkgif.Policy[T], cfg Config) (*Gate[T], error) {
	if policy == nil {
		return nil, ErrNilPolicy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Gate[T]{
		policy: policy,
		cfg:    cfg,
	}

	if cfg.Bus != nil {
		var err error
		g.acceptedEmitter, err = cfg.Bus.Emitter(new(types.EvtConnectionAccepted))
		if err != nil {
			return nil, fmt.Errorf("gate: create accepted emitter: %w", err)
		}
		g.rejectedEmitter, err = cfg.Bus.Emitter(new(types.EvtConnectionRejected))
		if err != nil {
			return nil, fmt.Errorf("gate: create rejected emitter: %w", err)
		}
	}

	return g, nil
}

// Close 释放门控持有的事件发射器
func (g *Gate[T]) Close() error {
	if g.acceptedEmitter != nil {
		_ = g.acceptedEmitter.Close()
	}
	if g.rejectedEmitter != nil {
		_ = g.rejectedEmitter.Close()
	}
	return nil
}

// HandleRegistered 处理注册信号
//
// 远程地址尚未解析时推迟决策：原样转发信号，保持挂载，
// 等待激活信号再评估。
func (g *Gate[T]) HandleRegistered(ctx pkgif.HandlerContext) error {
	_, err := g.decide(ctx, types.SignalRegistered)
	return err
}

// HandleActive 处理激活信号
//
// 激活时环境必须已提供 T 类型的远程地址，仍未解析属于
// 不可恢复的契约违反，返回 ErrAddressUnresolved。
func (g *Gate[T]) HandleActive(ctx pkgif.HandlerContext) error {
	decided, err := g.decide(ctx, types.SignalActive)
	if err != nil {
		return err
	}
	if !decided {
		return fmt.Errorf("%w (conn %s)", ErrAddressUnresolved, connID(ctx))
	}
	return nil
}

// decide 评估一次准入决策
//
// 返回值 decided 表示本次调用是否做出了决策（地址未解析时
// 推迟，返回 false）。无论何种分支，清理阶段都会原样转发
// 生命周期信号（连接已拆除时除外），并在决策完成后将门控
// 从链上摘除。
func (g *Gate[T]) decide(ctx pkgif.HandlerContext, sig types.Signal) (decided bool, err error) {
	addr, resolved := remoteAs[T](ctx)

	remove := false
	defer func() {
		// 连接已在决策过程中被拆除：不再转发，也无从摘除
		if ctx.Removed() {
			return
		}

		var ferr error
		switch sig {
		case types.SignalRegistered:
			ferr = ctx.FireRegistered()
		case types.SignalActive:
			ferr = ctx.FireActive()
		}
		if err == nil {
			err = ferr
		}

		// 决策已做出，后续事件不应再经过门控
		if remove {
			ctx.Remove()
		}
	}()

	if !resolved {
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.Deferred.Inc()
		}
		logger.Debug("远程地址未解析，推迟决策", "conn", connID(ctx), "signal", sig.String())
		return false, nil
	}

	admit, aerr := g.policy.Accept(ctx, addr)
	if aerr != nil {
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.PolicyErrors.Inc()
		}
		return false, &PolicyError{Addr: addr, Err: aerr}
	}

	if admit {
		g.policy.Accepted(ctx, addr)
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.Accepted.Inc()
		}
		g.emitAccepted(ctx, addr)
		logger.Debug("连接已准入", "conn", connID(ctx), "addr", addr.String())
		remove = true
		return true, nil
	}

	pending := g.policy.Rejected(ctx, addr)
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.Rejected.Inc()
	}
	logger.Info("连接被拒绝", "conn", connID(ctx), "addr", addr.String())
	g.closeRejected(ctx, addr, pending)
	remove = true
	return true, nil
}

// closeRejected 关闭被拒绝的连接
//
// 拒绝钩子返回了未完成的响应写入时，注册完成回调等待写入
// 结束（成功或失败）再关闭，不阻塞当前事件序列；否则立即
// 关闭。
func (g *Gate[T]) closeRejected(ctx pkgif.HandlerContext, addr T, pending pkgif.PendingWrite) {
	if pending == nil || completed(pending) {
		var respErr error
		if pending != nil {
			respErr = pending.Err()
		}
		g.finishReject(ctx, addr, respErr, false)
		return
	}

	var timeoutC <-chan time.Time
	var timer *time.Timer
	if g.cfg.RejectTimeout > 0 {
		timer = time.NewTimer(g.cfg.RejectTimeout)
		timeoutC = timer.C
	}

	go func() {
		if timer != nil {
			defer timer.Stop()
		}

		var respErr error
		timedOut := false
		select {
		case <-pending.Done():
			respErr = pending.Err()
		case <-timeoutC:
			timedOut = true
		}
		g.finishReject(ctx, addr, respErr, timedOut)
	}()
}

// finishReject 完成拒绝路径的收尾
//
// 无条件关闭连接；响应写入失败或超时不吞掉，记录日志、
// 指标并发布事件。
func (g *Gate[T]) finishReject(ctx pkgif.HandlerContext, addr T, respErr error, timedOut bool) {
	if respErr != nil {
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.ResponseErrors.Inc()
		}
		logger.Warn("拒绝响应写入失败", "conn", connID(ctx), "addr", addr.String(), "error", respErr)
	}
	if timedOut {
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.ResponseTimeouts.Inc()
		}
		logger.Warn("等待拒绝响应超时，强制关闭", "conn", connID(ctx), "addr", addr.String(), "timeout", g.cfg.RejectTimeout)
	}

	if cerr := ctx.Close(); cerr != nil {
		logger.Warn("关闭被拒绝的连接失败", "conn", connID(ctx), "error", cerr)
	}

	g.emitRejected(ctx, addr, respErr, timedOut)
}

// emitAccepted 发布准入事件
func (g *Gate[T]) emitAccepted(ctx pkgif.HandlerContext, addr T) {
	if g.acceptedEmitter == nil {
		return
	}
	_ = g.acceptedEmitter.Emit(types.EvtConnectionAccepted{
		ConnID: connID(ctx),
		Addr:   addr,
	})
}

// emitRejected 发布拒绝事件
func (g *Gate[T]) emitRejected(ctx pkgif.HandlerContext, addr T, respErr error, timedOut bool) {
	if g.rejectedEmitter == nil {
		return
	}
	_ = g.rejectedEmitter.Emit(types.EvtConnectionRejected{
		ConnID:      connID(ctx),
		Addr:        addr,
		ResponseErr: respErr,
		TimedOut:    timedOut,
	})
}

// ============================================================================
//                              辅助函数
// ============================================================================

// remoteAs 读取远程地址并断言为 T
//
// 地址为 nil 或类型不匹配时返回 false，二者都视为"未解析"。
func remoteAs[T net.Addr](ctx pkgif.HandlerContext) (T, bool) {
	var zero T
	raddr := ctx.RemoteAddr()
	if raddr == nil {
		return zero, false
	}
	addr, ok := raddr.(T)
	if !ok {
		return zero, false
	}
	return addr, true
}

// completed 检查写入是否已经完成
func completed(p pkgif.PendingWrite) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

// connID 安全读取连接 ID 用于日志
func connID(ctx pkgif.HandlerContext) string {
	if c := ctx.Conn(); c != nil {
		return c.ID()
	}
	return "unknown"
}
