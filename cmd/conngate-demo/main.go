// Package main 提供 conngate 演示入口
//
// 启动一个带准入门控的 TCP 回显服务：命令行指定的 CIDR 内
// 的地址被拒绝，其余连接被回显。拒绝事件打印到日志，
// Prometheus 指标通过 HTTP 暴露。
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dep2p/go-conngate"
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/lib/log"
	"github.com/dep2p/go-conngate/pkg/types"
)

var logger = log.Logger("conngate/cmd")

var (
	listenAddr  = flag.String("listen", "127.0.0.1:9000", "监听地址")
	metricsAddr = flag.String("metrics", "127.0.0.1:9090", "指标 HTTP 地址")
	blockCIDR   = flag.String("block", "", "拒绝的 CIDR（如 10.0.0.0/8），为空时全部准入")
	acceptRate  = flag.Float64("accept-rate", 0, "每秒接受连接数上限（0 = 不限）")
)

// echoHandler 回显阶段
type echoHandler struct{}

func (echoHandler) HandleRegistered(ctx pkgif.HandlerContext) error { return ctx.FireRegistered() }
func (echoHandler) HandleActive(ctx pkgif.HandlerContext) error     { return ctx.FireActive() }
func (echoHandler) HandleInactive(ctx pkgif.HandlerContext) error   { return ctx.FireInactive() }

func (echoHandler) HandleData(ctx pkgif.HandlerContext, data []byte) error {
	_, err := ctx.Conn().Write(data)
	return err
}

func main() {
	flag.Parse()

	accept := func(*net.TCPAddr) bool { return true }
	if *blockCIDR != "" {
		_, ipnet, err := net.ParseCIDR(*blockCIDR)
		if err != nil {
			fmt.Fprintf(os.Stderr, "无效的 CIDR %q: %v\n", *blockCIDR, err)
			os.Exit(1)
		}
		accept = func(addr *net.TCPAddr) bool {
			return !ipnet.Contains(addr.IP)
		}
	}

	opts := []conngate.Option{
		conngate.WithListenAddr(*listenAddr),
		conngate.WithPolicyFunc(accept),
		conngate.WithHandler("echo", echoHandler{}),
	}
	if *acceptRate > 0 {
		opts = append(opts, conngate.WithAcceptRate(*acceptRate, 16))
	}

	svc, err := conngate.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建服务失败: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := svc.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}
	logger.Info("服务已启动", "listen", svc.Addr().String())

	// 拒绝事件订阅
	sub, err := svc.Bus().Subscribe(new(types.EvtConnectionRejected))
	if err == nil {
		defer sub.Close()
		go func() {
			for ev := range sub.Out() {
				rej := ev.(types.EvtConnectionRejected)
				logger.Info("连接被拒绝", "conn", rej.ConnID, "addr", rej.Addr.String())
			}
		}()
	}

	// 指标 HTTP 服务
	mux := http.NewServeMux()
	mux.Handle("/metrics", svc.MetricsHandler())
	msrv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("指标服务退出", "error", err)
		}
	}()

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = msrv.Shutdown(shutdownCtx)
	if err := svc.Stop(shutdownCtx); err != nil {
		logger.Warn("停止失败", "error", err)
	}
}
