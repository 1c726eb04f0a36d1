package pipeline

import (
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/lib/log"
	"github.com/dep2p/go-conngate/pkg/types"
)

var logger = log.Logger("core/pipeline")

// 确保实现了接口
var _ pkgif.Pipeline = (*Pipeline)(nil)

// Pipeline 连接处理链
//
// 内部是带头尾哨兵的双向链表，head 和 tail 不挂载 Handler，
// 只用于定位链的两端。
type Pipeline struct {
	mu sync.Mutex

	// 所属连接
	conn pkgif.Conn

	// 头尾哨兵
	head *stageContext
	tail *stageContext

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New 创建处理链
func New(conn pkgif.Conn) *Pipeline {
	p := &Pipeline{conn: conn}
	p.head = &stageContext{p: p, name: "head", sentinel: true}
	p.tail = &stageContext{p: p, name: "tail", sentinel: true}
	p.head.next = p.tail
	p.tail.prev = p.head
	return p
}

// Conn 返回所属连接
func (p *Pipeline) Conn() pkgif.Conn {
	return p.conn
}

// AddLast 追加阶段到链尾
//
// 名称在链内必须唯一，重复名称或已关闭的链上追加会被忽略
// 并记录警告。
func (p *Pipeline) AddLast(name string, h pkgif.Handler) pkgif.Pipeline {
	if p.closed.Load() {
		logger.Warn("处理链已关闭，忽略追加", "stage", name)
		return p
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for c := p.head.next; c != p.tail; c = c.next {
		if c.name == name {
			logger.Warn("阶段名称重复，忽略追加", "stage", name)
			return p
		}
	}

	ctx := &stageContext{p: p, name: name, handler: h}
	prev := p.tail.prev
	prev.next = ctx
	ctx.prev = prev
	ctx.next = p.tail
	p.tail.prev = ctx

	return p
}

// Remove 按名称摘除阶段
func (p *Pipeline) Remove(name string) bool {
	p.mu.Lock()
	var target *stageContext
	for c := p.head.next; c != p.tail; c = c.next {
		if c.name == name {
			target = c
			break
		}
	}
	p.mu.Unlock()

	if target == nil {
		return false
	}
	target.Remove()
	return true
}

// Names 返回当前链上的阶段名称（按顺序）
func (p *Pipeline) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var names []string
	for c := p.head.next; c != p.tail; c = c.next {
		if !c.removed.Load() {
			names = append(names, c.name)
		}
	}
	return names
}

// FireRegistered 从链头发起注册信号
func (p *Pipeline) FireRegistered() error {
	return p.head.fire(types.SignalRegistered, nil)
}

// FireActive 从链头发起激活信号
func (p *Pipeline) FireActive() error {
	return p.head.fire(types.SignalActive, nil)
}

// FireInactive 从链头发起失效信号
func (p *Pipeline) FireInactive() error {
	return p.head.fire(types.SignalInactive, nil)
}

// FireData 从链头发起数据事件
func (p *Pipeline) FireData(data []byte) error {
	return p.head.fire(types.SignalData, data)
}

// Close 关闭连接并标记处理链拆除
//
// 关闭后不再接受新阶段，但不打断进行中的事件投递：
// 决策过程中关闭连接的阶段（如准入门控的拒绝路径）仍然
// 可以把当前生命周期信号转发给下游。
// Close 是幂等且并发安全的，门控的异步关闭路径依赖这一点。
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		if p.conn != nil {
			p.closeErr = p.conn.Close()
		}
	})
	return p.closeErr
}

// Closed 检查处理链是否已拆除
func (p *Pipeline) Closed() bool {
	return p.closed.Load()
}
