package tcp

import (
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
)

// ============================================================================
//                              Conn 实现
// ============================================================================

// 确保实现了接口
var _ pkgif.Conn = (*Conn)(nil)

// Conn TCP 连接
type Conn struct {
	conn   *net.TCPConn
	id     string
	closed atomic.Bool
}

// NewConn 封装 TCP 连接
func NewConn(c *net.TCPConn) *Conn {
	return &Conn{
		conn: c,
		id:   uuid.NewString(),
	}
}

// ID 返回连接 ID
func (c *Conn) ID() string {
	return c.id
}

// LocalAddr 返回本地地址
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr 返回远程地址
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Read 读取数据
func (c *Conn) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// Write 写入数据
func (c *Conn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// WriteNotify 异步写入
//
// 发起写入并立即返回，写入在后台完成后关闭 Done 通道。
// 写入的数据会先拷贝，调用方可以立即复用缓冲区。
func (c *Conn) WriteNotify(p []byte) pkgif.PendingWrite {
	buf := make([]byte, len(p))
	copy(buf, p)

	w := &pendingWrite{done: make(chan struct{})}
	go func() {
		_, err := c.conn.Write(buf)
		w.err = err
		close(w.done)
	}()
	return w
}

// Close 关闭连接（幂等）
func (c *Conn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		return c.conn.Close()
	}
	return nil
}

// Closed 检查连接是否已关闭
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// ============================================================================
//                              pendingWrite 实现
// ============================================================================

// pendingWrite 进行中的异步写入
//
// err 在 done 关闭之前写入，关闭通道建立先行发生关系，
// 接收方读取 err 无需额外同步。
type pendingWrite struct {
	done chan struct{}
	err  error
}

// Done 返回完成通知通道
func (w *pendingWrite) Done() <-chan struct{} {
	return w.done
}

// Err 返回写入结果
func (w *pendingWrite) Err() error {
	return w.err
}
