package tcp

import (
	"context"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"go.uber.org/fx"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params Fx 模块输入参数
type Params struct {
	fx.In

	Config    Config
	Admission pkgif.Handler
	Stages    []NamedHandler `optional:"true"`
}

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Server *Server
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport/tcp",
		fx.Provide(ProvideServer),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideServer 提供服务器实例
func ProvideServer(p Params) (Result, error) {
	srv, err := NewServer(p.Config, p.Admission, p.Stages...)
	if err != nil {
		return Result{}, err
	}
	return Result{Server: srv}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Server *Server
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Server.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Server.Close()
		},
	})
}
