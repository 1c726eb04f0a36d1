package interfaces

import "net"

// ============================================================================
//                              Handler 接口
// ============================================================================

// Handler 处理链阶段
//
// 每个连接的事件依次经过链上的各个阶段。单个连接的事件
// 严格串行投递，同一个 Handler 实例可以同时挂载到多条链上，
// 因此无状态的 Handler 可以安全共享。
//
// 各方法返回的错误沿调用链向上传播，由链的驱动方（通常是
// 传输层）决定如何处理该连接。
type Handler interface {
	// HandleRegistered 连接已注册到处理链
	//
	// 对部分传输，此时远程地址可能尚未解析。
	HandleRegistered(ctx HandlerContext) error

	// HandleActive 连接已激活
	HandleActive(ctx HandlerContext) error

	// HandleInactive 连接已失效
	HandleInactive(ctx HandlerContext) error

	// HandleData 收到入站数据
	HandleData(ctx HandlerContext, data []byte) error
}

// ============================================================================
//                              HandlerContext 接口
// ============================================================================

// HandlerContext 阶段上下文
//
// 每个阶段在链上拥有独立的上下文，提供：
//   - 所属连接的视图（远程地址、关闭操作）
//   - 向下游转发事件的能力（Fire*）
//   - 将本阶段从链上摘除的能力（Remove）
//
// Remove 和 Removed 是并发安全的；其余方法只应在该连接的
// 事件序列内调用。
type HandlerContext interface {
	// Name 返回阶段名称
	Name() string

	// Conn 返回所属连接
	Conn() Conn

	// RemoteAddr 返回远程地址
	//
	// 地址尚未解析时返回 nil。
	RemoteAddr() net.Addr

	// Close 关闭所属连接并拆除处理链
	Close() error

	// Remove 将本阶段从链上摘除
	//
	// 幂等操作，摘除后本阶段不再收到任何事件。
	Remove()

	// Removed 检查本阶段是否已被摘除
	Removed() bool

	// FireRegistered 向下游转发注册信号
	FireRegistered() error

	// FireActive 向下游转发激活信号
	FireActive() error

	// FireInactive 向下游转发失效信号
	FireInactive() error

	// FireData 向下游转发数据
	FireData(data []byte) error
}

// ============================================================================
//                              Pipeline 接口
// ============================================================================

// Pipeline 连接处理链
//
// 每条连接对应一条处理链。阶段按加入顺序排列，事件从链头
// 依次流向链尾。
type Pipeline interface {
	// Conn 返回所属连接
	Conn() Conn

	// AddLast 追加阶段到链尾
	//
	// 返回 Pipeline 自身以便链式调用。名称在链内必须唯一。
	AddLast(name string, h Handler) Pipeline

	// Remove 按名称摘除阶段
	//
	// 阶段不存在时返回 false。
	Remove(name string) bool

	// Names 返回当前链上的阶段名称（按顺序）
	Names() []string

	// FireRegistered 从链头发起注册信号
	FireRegistered() error

	// FireActive 从链头发起激活信号
	FireActive() error

	// FireInactive 从链头发起失效信号
	FireInactive() error

	// FireData 从链头发起数据事件
	FireData(data []byte) error

	// Close 关闭连接并标记处理链拆除
	//
	// 不打断进行中的事件投递。
	Close() error
}
