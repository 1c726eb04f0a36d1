package interfaces

// EventBus 事件总线接口
//
// 提供类型安全的事件发布/订阅机制。准入门控通过它发布
// 接受/拒绝事件，调用方按事件类型订阅。
type EventBus interface {
	// Subscribe 订阅指定类型的事件
	//
	// eventType 传入事件类型的指针零值，如 new(types.EvtConnectionRejected)。
	Subscribe(eventType interface{}, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取指定事件类型的发射器
	Emitter(eventType interface{}) (Emitter, error)
}

// Subscription 事件订阅
type Subscription interface {
	// Out 返回接收事件的通道
	Out() <-chan interface{}

	// Close 取消订阅
	Close() error
}

// Emitter 事件发射器
type Emitter interface {
	// Emit 发射事件
	Emit(event interface{}) error

	// Close 关闭发射器
	Close() error
}

// SubscriptionOpt 订阅选项函数类型
type SubscriptionOpt func(*SubscriptionSettings)

// SubscriptionSettings 订阅设置（导出以供实现使用）
type SubscriptionSettings struct {
	Buffer int
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}
