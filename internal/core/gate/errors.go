package gate

import (
	"errors"
	"fmt"
	"net"
)

// 门控错误定义
var (
	// ErrNilPolicy 未提供策略
	ErrNilPolicy = errors.New("gate: nil policy")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("gate: invalid config")

	// ErrAddressUnresolved 连接激活时远程地址仍未解析
	//
	// 激活信号触发时环境必须已提供远程地址，仍未解析说明
	// 传输层或链的装配存在问题，属于不可恢复的契约违反。
	ErrAddressUnresolved = errors.New("gate: remote address unresolved at active")
)

// PolicyError 策略评估失败
//
// 包装策略 Accept 返回的错误。不重试，作为该连接建立过程的
// 致命错误向生命周期信号的调用方传播。
type PolicyError struct {
	// Addr 评估时的远程地址
	Addr net.Addr

	// Err 策略返回的原始错误
	Err error
}

// Error 实现 error 接口
func (e *PolicyError) Error() string {
	return fmt.Sprintf("gate: policy evaluation failed for %v: %v", e.Addr, e.Err)
}

// Unwrap 返回原始错误
func (e *PolicyError) Unwrap() error {
	return e.Err
}
