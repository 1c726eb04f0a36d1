// Package conngate 提供基于远程地址的连接准入门控
//
// conngate 是一个面向 TCP 服务的小型网络库：为每条入站连接
// 装配处理链，链头的准入门控在远程地址已知后恰好评估一次
// 准入策略，拒绝的连接被关闭（可选地先写完拒绝响应），
// 准入的连接交给后续业务阶段处理，此后门控不再参与该连接。
//
// # 快速开始
//
//	svc, err := conngate.New(
//	    conngate.WithListenAddr("0.0.0.0:9000"),
//	    conngate.WithPolicyFunc(func(addr *net.TCPAddr) bool {
//	        return !addr.IP.IsLoopback()
//	    }),
//	    conngate.WithHandler("echo", echoHandler),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := svc.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Stop(context.Background())
//
// # 观测
//
// 决策结果通过事件总线发布（EvtConnectionAccepted /
// EvtConnectionRejected），Prometheus 指标通过
// MetricsHandler 暴露。
package conngate
