package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-conngate/internal/core/pipeline"
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/lib/log"
)

var logger = log.Logger("core/transport/tcp")

// NamedHandler 带名称的处理阶段
type NamedHandler struct {
	// Name 阶段名称（链内唯一）
	Name string

	// Handler 阶段实现
	Handler pkgif.Handler
}

// Server TCP 服务器
//
// 为每条接受的连接装配处理链：准入门控在链头，其后是
// 调用方提供的业务阶段。每条连接由独立的 goroutine 驱动，
// 其上的事件严格串行。
type Server struct {
	cfg       Config
	admission pkgif.Handler
	stages    []NamedHandler

	ln      *Listener
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	started atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup
}

// NewServer 创建 TCP 服务器
//
// admission 为准入门控阶段，必须提供；stages 为门控之后的
// 业务阶段，按顺序追加到链上。
func NewServer(cfg Config, admission pkgif.Handler, stages ...NamedHandler) (*Server, error) {
	if admission == nil {
		return nil, ErrNoAdmission
	}

	cfg = cfg.withDefaults()

	s := &Server{
		cfg:       cfg,
		admission: admission,
		stages:    stages,
	}
	if cfg.AcceptRate > 0 {
		s.limiter = rate.NewLimiter(cfg.AcceptRate, cfg.AcceptBurst)
	}
	return s, nil
}

// Start 启动服务器
func (s *Server) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ln, err := Listen(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.wg.Add(1)
	go s.acceptLoop()

	logger.Info("TCP 服务器已启动", "addr", ln.Addr().String())
	return nil
}

// Addr 返回实际监听地址
//
// 未启动时返回 nil。
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close 关闭服务器
//
// 停止接受新连接并等待存量连接的事件循环退出。
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.wg.Wait()

	logger.Info("TCP 服务器已关闭")
	return err
}

// acceptLoop 接受循环
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(s.ctx); err != nil {
				return
			}
		}

		conn, err := s.ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("接受连接失败", "error", err)
			// 瞬时错误（如 fd 耗尽）稍后重试
			select {
			case <-time.After(100 * time.Millisecond):
				continue
			case <-s.ctx.Done():
				return
			}
		}

		s.wg.Add(1)
		go s.serve(conn)
	}
}

// serve 驱动单条连接的事件序列
//
// 依次触发 registered 和 active，随后进入读循环。准入门控
// 拒绝连接时处理链已拆除，后续事件自然落空。
func (s *Server) serve(conn pkgif.Conn) {
	defer s.wg.Done()

	p := pipeline.New(conn)
	p.AddLast("admission", s.admission)
	for _, st := range s.stages {
		p.AddLast(st.Name, st.Handler)
	}

	if err := p.FireRegistered(); err != nil {
		logger.Warn("连接建立失败", "conn", conn.ID(), "signal", "registered", "error", err)
		_ = p.Close()
		return
	}
	// 门控在注册阶段拒绝并关闭连接后，不再触发后续信号
	if p.Closed() {
		return
	}
	if err := p.FireActive(); err != nil {
		logger.Warn("连接建立失败", "conn", conn.ID(), "signal", "active", "error", err)
		_ = p.Close()
		return
	}

	s.readLoop(conn, p)
}

// readLoop 读循环
func (s *Server) readLoop(conn pkgif.Conn, p *pipeline.Pipeline) {
	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		if p.Closed() {
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if ferr := p.FireData(data); ferr != nil {
				logger.Warn("数据处理失败", "conn", conn.ID(), "error", ferr)
				break
			}
		}
		if err != nil {
			break
		}
	}

	_ = p.FireInactive()
	_ = p.Close()
}
