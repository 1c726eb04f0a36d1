package gate

import (
	"net"

	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
)

// ============================================================================
//                              NopHooks - 默认钩子
// ============================================================================

// NopHooks 空钩子实现
//
// 只需要 Accept 的策略可以内嵌 NopHooks，获得默认的空
// Accepted / Rejected 钩子：
//
//	type denyPrivate struct {
//	    gate.NopHooks[*net.TCPAddr]
//	}
//
//	func (denyPrivate) Accept(_ pkgif.HandlerContext, addr *net.TCPAddr) (bool, error) {
//	    return !addr.IP.IsPrivate(), nil
//	}
type NopHooks[T net.Addr] struct{}

// Accepted 空实现
func (NopHooks[T]) Accepted(_ pkgif.HandlerContext, _ T) {}

// Rejected 空实现，不发送拒绝响应
func (NopHooks[T]) Rejected(_ pkgif.HandlerContext, _ T) pkgif.PendingWrite {
	return nil
}

// ============================================================================
//                              PolicyFunc - 函数适配器
// ============================================================================

// PolicyFunc 将函数适配为 Policy
//
// 钩子使用 NopHooks 的空实现。
type PolicyFunc[T net.Addr] func(ctx pkgif.HandlerContext, addr T) (bool, error)

// 确保实现了接口
var _ pkgif.Policy[net.Addr] = (PolicyFunc[net.Addr])(nil)

// Accept 调用底层函数
func (f PolicyFunc[T]) Accept(ctx pkgif.HandlerContext, addr T) (bool, error) {
	return f(ctx, addr)
}

// Accepted 空实现
func (f PolicyFunc[T]) Accepted(ctx pkgif.HandlerContext, addr T) {
	NopHooks[T]{}.Accepted(ctx, addr)
}

// Rejected 空实现
func (f PolicyFunc[T]) Rejected(ctx pkgif.HandlerContext, addr T) pkgif.PendingWrite {
	return NopHooks[T]{}.Rejected(ctx, addr)
}
