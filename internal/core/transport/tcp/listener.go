package tcp

import (
	"fmt"
	"net"
	"sync/atomic"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
)

// ============================================================================
//                              Listener 实现
// ============================================================================

// 确保实现了接口
var _ pkgif.Listener = (*Listener)(nil)

// Listener TCP 监听器
type Listener struct {
	listener *net.TCPListener
	closed   atomic.Bool
}

// Listen 创建 TCP 监听器
//
// addr 形如 "127.0.0.1:0"，端口为 0 时由系统分配，
// 实际地址通过 Addr 获取。
func Listen(addr string) (*Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp: listen %s: %w", addr, err)
	}

	tcpListener, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return nil, fmt.Errorf("tcp: not a TCP listener")
	}

	return &Listener{listener: tcpListener}, nil
}

// Accept 接受连接
func (l *Listener) Accept() (pkgif.Conn, error) {
	conn, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("tcp: not a TCP connection")
	}

	// 设置连接选项
	_ = tcpConn.SetNoDelay(true)
	_ = tcpConn.SetKeepAlive(true)

	return NewConn(tcpConn), nil
}

// Addr 返回监听地址
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Close 关闭监听器（幂等）
func (l *Listener) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		return l.listener.Close()
	}
	return nil
}

// IsClosed 检查监听器是否已关闭
func (l *Listener) IsClosed() bool {
	return l.closed.Load()
}
