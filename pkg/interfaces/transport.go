package interfaces

import (
	"io"
	"net"
)

// ============================================================================
//                              Conn 接口
// ============================================================================

// Conn 传输层连接
//
// 处理链通过此接口访问底层连接。Close 是幂等的。
type Conn interface {
	io.ReadWriteCloser

	// ID 返回连接 ID
	ID() string

	// LocalAddr 返回本地地址
	LocalAddr() net.Addr

	// RemoteAddr 返回远程地址
	//
	// 地址尚未解析时返回 nil。
	RemoteAddr() net.Addr

	// WriteNotify 异步写入
	//
	// 发起写入并立即返回，通过 PendingWrite 通知完成结果。
	// 供拒绝响应等"写完再关"的场景使用。
	WriteNotify(p []byte) PendingWrite

	// Closed 检查连接是否已关闭
	Closed() bool
}

// ============================================================================
//                              Listener 接口
// ============================================================================

// Listener 传输层监听器
type Listener interface {
	// Accept 接受连接
	Accept() (Conn, error)

	// Addr 返回监听地址
	Addr() net.Addr

	// Close 关闭监听器
	Close() error
}
