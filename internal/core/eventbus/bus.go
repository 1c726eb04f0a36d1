package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// 事件总线错误定义
var (
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("eventbus: invalid event type")

	// ErrNonPointerType 订阅/发射必须传入指针类型的零值
	ErrNonPointerType = errors.New("eventbus: event type must be a pointer")
)

// 确保实现了接口
var _ pkgif.EventBus = (*Bus)(nil)

// Bus 事件总线
//
// 按事件类型维护节点，每个节点保存该类型的订阅者列表和
// 发射器引用计数。
type Bus struct {
	mu sync.RWMutex

	// nodes 事件类型 -> 节点
	nodes map[reflect.Type]*node
}

// node 单个事件类型的路由节点
type node struct {
	lk        sync.Mutex
	typ       reflect.Type
	sinks     []*Subscription
	nEmitters atomic.Int32

	// dropCount 因订阅者缓冲区满而丢弃的事件数
	dropCount atomic.Int64
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		nodes: make(map[reflect.Type]*node),
	}
}

// Subscribe 订阅指定类型的事件
//
// eventType 传入事件类型的指针零值，如 new(types.EvtConnectionRejected)。
func (b *Bus) Subscribe(eventType interface{}, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	elemType, err := elemTypeOf(eventType)
	if err != nil {
		return nil, err
	}

	settings := &pkgif.SubscriptionSettings{
		Buffer: 16, // 默认缓冲区大小
	}
	for _, opt := range opts {
		opt(settings)
	}

	sub := &Subscription{
		bus: b,
		typ: elemType,
		out: make(chan interface{}, settings.Buffer),
	}

	b.withNode(elemType, func(n *node) {
		n.sinks = append(n.sinks, sub)
	})

	return sub, nil
}

// Emitter 获取指定事件类型的发射器
func (b *Bus) Emitter(eventType interface{}) (pkgif.Emitter, error) {
	elemType, err := elemTypeOf(eventType)
	if err != nil {
		return nil, err
	}

	var n *node
	b.withNode(elemType, func(nd *node) {
		n = nd
		n.nEmitters.Add(1)
	})

	return &Emitter{
		bus:  b,
		node: n,
		typ:  elemType,
	}, nil
}

// ============================================================================
// 内部方法
// ============================================================================

// elemTypeOf 校验并提取事件元素类型
func elemTypeOf(eventType interface{}) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// withNode 在节点上执行操作，节点不存在时创建
func (b *Bus) withNode(typ reflect.Type, cb func(*node)) {
	b.mu.Lock()
	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}
	n.lk.Lock()
	b.mu.Unlock()

	cb(n)
	n.lk.Unlock()
}

// tryDropNode 尝试删除节点（没有订阅者和发射器时）
func (b *Bus) tryDropNode(typ reflect.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		return
	}

	n.lk.Lock()
	empty := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()

	if empty {
		delete(b.nodes, typ)
	}
}

// removeSub 移除订阅
func (b *Bus) removeSub(sub *Subscription) {
	b.mu.Lock()
	n, ok := b.nodes[sub.typ]
	if !ok {
		b.mu.Unlock()
		return
	}
	n.lk.Lock()
	b.mu.Unlock()

	for i, s := range n.sinks {
		if s == sub {
			n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
			break
		}
	}
	shouldDrop := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()

	if shouldDrop {
		b.tryDropNode(sub.typ)
	}
}

// emit 发射事件到所有订阅者
//
// 非阻塞投递：订阅者缓冲区满时丢弃并计数，每丢弃 100 个
// 警告一次，避免日志泛滥。
func (n *node) emit(event interface{}) {
	n.lk.Lock()
	defer n.lk.Unlock()

	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			dropped := n.dropCount.Add(1)
			if dropped%100 == 1 {
				logger.Warn("慢消费者检测，丢弃事件",
					"dropped", dropped,
					"type", n.typ.String())
			}
		}
	}
}
