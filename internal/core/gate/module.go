package gate

import (
	"context"
	"net"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"go.uber.org/fx"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params Fx 模块输入参数
type Params struct {
	fx.In

	Policy pkgif.Policy[*net.TCPAddr]
	Config Config
}

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Gate      *Gate[*net.TCPAddr]
	Admission pkgif.Handler
}

// Module 返回 Fx 模块
//
// 针对 TCP 传输实例化门控（T = *net.TCPAddr），并以
// pkgif.Handler 形式暴露给传输层装配处理链。
func Module() fx.Option {
	return fx.Module("gate",
		fx.Provide(ProvideGate),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideGate 提供门控实例
func ProvideGate(p Params) (Result, error) {
	g, err := New[*net.TCPAddr](p.Policy, p.Config)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Gate:      g,
		Admission: g,
	}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC   fx.Lifecycle
	Gate *Gate[*net.TCPAddr]
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Gate.Close()
		},
	})
}
