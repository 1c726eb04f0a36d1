// Package interfaces 定义 conngate 的公共契约
//
// 本包只包含接口和选项类型，不包含实现：
//
//   - Pipeline / Handler / HandlerContext: 连接处理链契约
//   - Policy / PendingWrite: 准入决策契约
//   - Conn / Listener: 传输层契约
//   - EventBus / Subscription / Emitter: 事件总线契约
//
// 实现位于 internal/core 下的各组件包。
package interfaces
