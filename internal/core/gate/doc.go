// Package gate 实现基于远程地址的连接准入门控
//
// 门控作为处理链的一个阶段挂载在链头，在连接建立期间根据
// 远程地址决定准入或拒绝，决策恰好执行一次，完成后自动从
// 链上摘除。
//
// # 决策时机
//
// 连接建立期间最多触发两个生命周期信号：
//
//   - registered: 部分传输此时远程地址尚未解析，门控推迟
//     决策，原样转发信号并保持挂载
//   - active: 远程地址必须已知；仍未解析视为环境违反契约，
//     返回致命错误 ErrAddressUnresolved
//
// # 决策流程
//
//  1. 读取远程地址并断言为地址类型 T，失败则推迟
//  2. 调用策略 Accept；返回 true 时调用 Accepted 钩子，
//     返回 false 时调用 Rejected 钩子并关闭连接
//  3. 拒绝钩子返回待完成的响应写入时，等待写入结束
//     （成功或失败）再关闭，等待不占用事件序列
//  4. 无论何种分支，原样向下游转发生命周期信号；做出决策
//     后将自身从链上摘除
//
// # 使用示例
//
//	policy := gate.PolicyFunc[*net.TCPAddr](func(_ pkgif.HandlerContext, addr *net.TCPAddr) (bool, error) {
//	    return !addr.IP.IsPrivate(), nil
//	})
//
//	g, err := gate.New[*net.TCPAddr](policy, gate.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p.AddLast("admission", g)
//
// 门控自身无共享可变状态，同一个实例可以挂载到多条链上。
package gate
