// Package eventbus 实现事件总线
//
// 提供类型安全的事件发布/订阅机制，按事件的具体类型路由。
// 准入门控通过它发布 types.EvtConnectionAccepted /
// types.EvtConnectionRejected，订阅方据此观测决策结果和
// 拒绝响应的失败。
//
// # 使用示例
//
//	bus := eventbus.NewBus()
//
//	sub, _ := bus.Subscribe(new(types.EvtConnectionRejected))
//	defer sub.Close()
//
//	go func() {
//	    for ev := range sub.Out() {
//	        rej := ev.(types.EvtConnectionRejected)
//	        fmt.Println("rejected:", rej.Addr)
//	    }
//	}()
//
// 投递是非阻塞的：订阅者缓冲区满时事件被丢弃并计数，
// 避免慢消费者阻塞发射方。
package eventbus
