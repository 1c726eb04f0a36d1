package conngate

import "errors"

// 错误定义
var (
	// ErrNoPolicy 未提供准入策略
	ErrNoPolicy = errors.New("conngate: no admission policy configured")
)
