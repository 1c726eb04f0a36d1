// Package types 定义 conngate 的共享值类型
//
// 包含生命周期信号和准入事件，供各内部组件与调用方共用。
// 本包不依赖任何内部实现，处于依赖图最底层。
package types
