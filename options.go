package conngate

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-conngate/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 准入策略
	policy pkgif.Policy[*net.TCPAddr]

	// 拒绝响应等待超时（0 表示一直等待）
	rejectTimeout time.Duration

	// 监听地址
	listenAddr string

	// 接受速率限制
	acceptRate  rate.Limit
	acceptBurst int

	// 门控之后的业务阶段
	stages []tcp.NamedHandler

	// 日志级别
	logLevel *slog.Level
}

// defaultOptions 返回默认选项
func defaultOptions() *options {
	return &options{
		listenAddr: "127.0.0.1:0",
	}
}

// apply 应用选项并验证
func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	if o.policy == nil {
		return ErrNoPolicy
	}
	return nil
}

// WithPolicy 设置准入策略
func WithPolicy(p pkgif.Policy[*net.TCPAddr]) Option {
	return func(o *options) error {
		if p == nil {
			return ErrNoPolicy
		}
		o.policy = p
		return nil
	}
}

// WithPolicyFunc 以函数形式设置准入策略
//
// 适合无钩子、不会失败的简单策略。
func WithPolicyFunc(accept func(addr *net.TCPAddr) bool) Option {
	return func(o *options) error {
		if accept == nil {
			return ErrNoPolicy
		}
		o.policy = policyFuncAdapter(accept)
		return nil
	}
}

// WithRejectTimeout 设置等待拒绝响应的最长时间
//
// 拒绝钩子返回待完成的响应写入时，门控最多等待这么久，
// 超时后强制关闭连接。0 表示一直等待。
func WithRejectTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("conngate: negative reject timeout: %v", d)
		}
		o.rejectTimeout = d
		return nil
	}
}

// WithListenAddr 设置监听地址
func WithListenAddr(addr string) Option {
	return func(o *options) error {
		if addr == "" {
			return fmt.Errorf("conngate: empty listen address")
		}
		o.listenAddr = addr
		return nil
	}
}

// WithAcceptRate 设置每秒接受连接数上限
func WithAcceptRate(perSecond float64, burst int) Option {
	return func(o *options) error {
		if perSecond <= 0 || burst <= 0 {
			return fmt.Errorf("conngate: invalid accept rate %v burst %d", perSecond, burst)
		}
		o.acceptRate = rate.Limit(perSecond)
		o.acceptBurst = burst
		return nil
	}
}

// WithHandler 追加业务阶段
//
// 阶段按追加顺序排在准入门控之后。
func WithHandler(name string, h pkgif.Handler) Option {
	return func(o *options) error {
		if name == "" || h == nil {
			return fmt.Errorf("conngate: invalid handler %q", name)
		}
		o.stages = append(o.stages, tcp.NamedHandler{Name: name, Handler: h})
		return nil
	}
}

// WithLogLevel 设置日志级别
func WithLogLevel(level slog.Level) Option {
	return func(o *options) error {
		o.logLevel = &level
		return nil
	}
}
