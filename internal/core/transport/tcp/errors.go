package tcp

import "errors"

// 传输层错误定义
var (
	// ErrServerClosed 服务器已关闭
	ErrServerClosed = errors.New("tcp: server closed")

	// ErrAlreadyStarted 服务器已启动
	ErrAlreadyStarted = errors.New("tcp: server already started")

	// ErrNoAdmission 未提供准入阶段
	ErrNoAdmission = errors.New("tcp: no admission handler")
)
