package interfaces

import "net"

// ============================================================================
//                              Policy 接口
// ============================================================================

// Policy 准入策略
//
// 由具体策略实现（白名单、CIDR 规则引擎等，不在本库范围内），
// 准入门控在远程地址已知后恰好调用一次 Accept。
//
// 类型参数 T 约束远程地址类型，门控只接受能解析为 T 的连接。
//
// 使用示例:
//
//	policy := gate.PolicyFunc[*net.TCPAddr](func(ctx pkgif.HandlerContext, addr *net.TCPAddr) (bool, error) {
//	    return !addr.IP.IsLoopback(), nil
//	})
type Policy[T net.Addr] interface {
	// Accept 决定是否准入
	//
	// 返回 true 准入，false 拒绝。返回错误时不重试，
	// 错误作为该连接建立过程的致命错误向上传播。
	Accept(ctx HandlerContext, addr T) (bool, error)

	// Accepted 准入后回调
	//
	// 在门控从链上摘除自身之前调用，仅用于副作用。
	Accepted(ctx HandlerContext, addr T)

	// Rejected 拒绝后回调
	//
	// 可返回一个待完成的响应写入（如拒绝消息）；门控会等待
	// 写入完成后再关闭连接。返回 nil 时立即关闭。
	Rejected(ctx HandlerContext, addr T) PendingWrite
}

// ============================================================================
//                              PendingWrite 接口
// ============================================================================

// PendingWrite 进行中的异步写入
//
// 提供完成通知语义：Done 返回的通道在写入结束（成功或失败）
// 时关闭，之后 Err 返回最终结果。
type PendingWrite interface {
	// Done 返回完成通知通道
	Done() <-chan struct{}

	// Err 返回写入结果
	//
	// 只有在 Done 通道关闭后调用才有意义。
	Err() error
}
