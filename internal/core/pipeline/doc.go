// Package pipeline 实现连接处理链
//
// 每条连接对应一条处理链，链上的阶段（Handler）按加入顺序
// 排列，生命周期信号和数据事件从链头依次流向链尾。
//
// # 事件模型
//
//   - FireRegistered: 连接注册（远程地址可能未知）
//   - FireActive: 连接激活
//   - FireData: 入站数据
//   - FireInactive: 连接失效
//
// 单条连接的事件严格串行投递；阶段的摘除（Remove）是并发
// 安全的幂等操作，供准入门控等"决策后自摘除"的阶段使用。
//
// # 使用示例
//
//	p := pipeline.New(conn)
//	p.AddLast("admission", gateHandler)
//	p.AddLast("echo", echoHandler)
//
//	if err := p.FireRegistered(); err != nil {
//	    p.Close()
//	}
package pipeline
