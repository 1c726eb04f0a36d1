package conngate

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-conngate/internal/core/eventbus"
	"github.com/dep2p/go-conngate/internal/core/gate"
	"github.com/dep2p/go-conngate/internal/core/metrics"
	"github.com/dep2p/go-conngate/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/lib/log"
)

// Service 准入门控服务
//
// 封装 TCP 服务器、准入门控、事件总线和指标的完整装配。
type Service struct {
	app *fx.App

	server   *tcp.Server
	bus      pkgif.EventBus
	registry *prometheus.Registry
}

// New 创建服务
//
// 必须通过 WithPolicy 或 WithPolicyFunc 提供准入策略。
func New(opts ...Option) (*Service, error) {
	o := defaultOptions()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}

	if o.logLevel != nil {
		log.SetOutputWithLevel(os.Stderr, *o.logLevel)
	}

	svc := &Service{}
	svc.app = buildFxApp(o, svc)
	if err := svc.app.Err(); err != nil {
		return nil, err
	}
	return svc, nil
}

// buildFxApp 构建 Fx 应用
//
// 组装顺序（按依赖）：EventBus → Metrics → Gate → TCP Server。
func buildFxApp(o *options, svc *Service) *fx.App {
	return fx.New(
		// 基础组件
		eventbus.Module(),
		metrics.Module(),

		// 配置注入
		fx.Provide(func(bus pkgif.EventBus, gm *metrics.GateMetrics) gate.Config {
			cfg := gate.DefaultConfig()
			cfg.RejectTimeout = o.rejectTimeout
			cfg.Bus = bus
			cfg.Metrics = gm
			return cfg
		}),
		fx.Provide(func() pkgif.Policy[*net.TCPAddr] { return o.policy }),
		fx.Provide(func() tcp.Config {
			cfg := tcp.DefaultConfig()
			cfg.ListenAddr = o.listenAddr
			cfg.AcceptRate = o.acceptRate
			cfg.AcceptBurst = o.acceptBurst
			return cfg
		}),
		fx.Provide(func() []tcp.NamedHandler { return o.stages }),

		// 门控与传输层
		gate.Module(),
		tcp.Module(),

		// 回填服务句柄
		fx.Populate(&svc.server, &svc.bus, &svc.registry),

		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	return s.app.Start(ctx)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	return s.app.Stop(ctx)
}

// Addr 返回实际监听地址
//
// 服务未启动时返回 nil。
func (s *Service) Addr() net.Addr {
	return s.server.Addr()
}

// Bus 返回事件总线
//
// 用于订阅准入事件。
func (s *Service) Bus() pkgif.EventBus {
	return s.bus
}

// MetricsHandler 返回 Prometheus 指标 HTTP 处理器
func (s *Service) MetricsHandler() http.Handler {
	return metrics.Handler(s.registry)
}

// policyFuncAdapter 将 func(addr) bool 适配为 Policy
func policyFuncAdapter(accept func(*net.TCPAddr) bool) pkgif.Policy[*net.TCPAddr] {
	return gate.PolicyFunc[*net.TCPAddr](func(_ pkgif.HandlerContext, addr *net.TCPAddr) (bool, error) {
		return accept(addr), nil
	})
}
