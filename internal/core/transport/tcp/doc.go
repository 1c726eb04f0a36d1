// Package tcp 提供基于 TCP 的传输层实现
//
// Server 为每条接受的连接装配处理链：准入门控挂在链头，
// 之后是调用方提供的业务阶段。连接接受后依次触发
// registered 和 active 信号，随后进入读循环，把入站数据
// 作为数据事件投入链中。
//
// Conn 在 net.TCPConn 之上补充了连接 ID 和异步写入
// （WriteNotify），后者为门控的"写完拒绝响应再关闭"
// 路径提供完成通知。
package tcp
