package types

// ============================================================================
//                              Signal - 生命周期信号
// ============================================================================

// Signal 连接生命周期信号
//
// 连接在建立过程中依次经历两个里程碑：
//   - SignalRegistered: 连接已注册到处理链（远程地址可能尚未解析）
//   - SignalActive: 连接已激活，可以收发数据（远程地址必须已知）
//
// SignalInactive 在连接关闭时触发，用于通知各阶段做清理。
type Signal uint8

const (
	// SignalRegistered 连接已注册
	SignalRegistered Signal = iota

	// SignalActive 连接已激活
	SignalActive

	// SignalInactive 连接已失效
	SignalInactive

	// SignalData 入站数据
	SignalData
)

// String 返回信号名称
func (s Signal) String() string {
	switch s {
	case SignalRegistered:
		return "registered"
	case SignalActive:
		return "active"
	case SignalInactive:
		return "inactive"
	case SignalData:
		return "data"
	default:
		return "unknown"
	}
}
