package pipeline

import (
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
)

// BaseHandler 透传阶段
//
// 所有事件原样向下游转发。自定义阶段可以内嵌 BaseHandler，
// 只覆盖关心的事件方法。
type BaseHandler struct{}

// 确保实现了接口
var _ pkgif.Handler = BaseHandler{}

// HandleRegistered 向下游转发注册信号
func (BaseHandler) HandleRegistered(ctx pkgif.HandlerContext) error {
	return ctx.FireRegistered()
}

// HandleActive 向下游转发激活信号
func (BaseHandler) HandleActive(ctx pkgif.HandlerContext) error {
	return ctx.FireActive()
}

// HandleInactive 向下游转发失效信号
func (BaseHandler) HandleInactive(ctx pkgif.HandlerContext) error {
	return ctx.FireInactive()
}

// HandleData 向下游转发数据
func (BaseHandler) HandleData(ctx pkgif.HandlerContext, data []byte) error {
	return ctx.FireData(data)
}
