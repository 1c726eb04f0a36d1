package types

import "net"

// ============================================================================
//                              准入事件
// ============================================================================

// EvtConnectionAccepted 连接被准入
//
// 准入门控做出接受决策后发布。
type EvtConnectionAccepted struct {
	// ConnID 连接 ID
	ConnID string

	// Addr 远程地址
	Addr net.Addr
}

// EvtConnectionRejected 连接被拒绝
//
// 准入门控做出拒绝决策后发布。连接此时可能尚未关闭：
// 如果拒绝钩子返回了待完成的响应写入，关闭发生在写入完成之后。
type EvtConnectionRejected struct {
	// ConnID 连接 ID
	ConnID string

	// Addr 远程地址
	Addr net.Addr

	// ResponseErr 拒绝响应写入失败时的错误（成功时为 nil）
	ResponseErr error

	// TimedOut 等待拒绝响应超时后强制关闭
	TimedOut bool
}
