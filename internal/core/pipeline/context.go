package pipeline

import (
	"fmt"
	"net"
	"sync/atomic"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/types"
)

// 确保实现了接口
var _ pkgif.HandlerContext = (*stageContext)(nil)

// stageContext 阶段上下文
//
// 链上每个阶段（含头尾哨兵）对应一个 stageContext。
// removed 标志使用原子操作，摘除对该连接而言是单个原子步骤。
type stageContext struct {
	p *Pipeline

	name    string
	handler pkgif.Handler

	prev, next *stageContext

	// sentinel 头尾哨兵不挂载 Handler，不参与事件投递
	sentinel bool

	removed atomic.Bool
}

// Name 返回阶段名称
func (c *stageContext) Name() string {
	return c.name
}

// Conn 返回所属连接
func (c *stageContext) Conn() pkgif.Conn {
	return c.p.conn
}

// RemoteAddr 返回远程地址
//
// 地址尚未解析时返回 nil。
func (c *stageContext) RemoteAddr() net.Addr {
	if c.p.conn == nil {
		return nil
	}
	return c.p.conn.RemoteAddr()
}

// Close 关闭所属连接并拆除处理链
func (c *stageContext) Close() error {
	return c.p.Close()
}

// Remove 将本阶段从链上摘除
//
// 幂等操作。摘除后本阶段不再收到任何事件，事件直接流向
// 下一个未摘除的阶段。
func (c *stageContext) Remove() {
	if c.sentinel {
		return
	}
	if !c.removed.CompareAndSwap(false, true) {
		return
	}

	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	// 链整体拆除时节点已经解链
	if c.prev == nil || c.next == nil {
		return
	}
	c.prev.next = c.next
	c.next.prev = c.prev
	c.prev = nil
	c.next = nil
}

// Removed 检查本阶段是否已被摘除
func (c *stageContext) Removed() bool {
	return c.removed.Load()
}

// FireRegistered 向下游转发注册信号
func (c *stageContext) FireRegistered() error {
	return c.fire(types.SignalRegistered, nil)
}

// FireActive 向下游转发激活信号
func (c *stageContext) FireActive() error {
	return c.fire(types.SignalActive, nil)
}

// FireInactive 向下游转发失效信号
func (c *stageContext) FireInactive() error {
	return c.fire(types.SignalInactive, nil)
}

// FireData 向下游转发数据
func (c *stageContext) FireData(data []byte) error {
	return c.fire(types.SignalData, data)
}

// fire 将事件投递给下一个未摘除的阶段
//
// 查找下一个阶段在锁内完成，实际调用在锁外进行，
// 允许 Handler 在处理事件时摘除自身或关闭连接。
func (c *stageContext) fire(sig types.Signal, data []byte) error {
	next := c.findNext()
	if next == nil {
		return nil
	}
	return next.invoke(sig, data)
}

// findNext 返回下一个未摘除的阶段，到达链尾返回 nil
func (c *stageContext) findNext() *stageContext {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()

	// 本阶段已解链时事件不回退，只能丢弃
	start := c.next
	if start == nil {
		return nil
	}

	for n := start; n != nil; n = n.next {
		if n == c.p.tail {
			return nil
		}
		if !n.removed.Load() {
			return n
		}
	}
	return nil
}

// invoke 调用本阶段的 Handler
func (c *stageContext) invoke(sig types.Signal, data []byte) error {
	switch sig {
	case types.SignalRegistered:
		return c.handler.HandleRegistered(c)
	case types.SignalActive:
		return c.handler.HandleActive(c)
	case types.SignalInactive:
		return c.handler.HandleInactive(c)
	case types.SignalData:
		return c.handler.HandleData(c, data)
	default:
		return fmt.Errorf("pipeline: unknown signal %d", sig)
	}
}
