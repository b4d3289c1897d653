package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptolens-api/internal/cli"
	"cryptolens-api/internal/config"
	"cryptolens-api/internal/svc"
)

const (
	apiTimeout      = 30 * time.Second // covers a full retry schedule
	shutdownTimeout = 10 * time.Second
)

var (
	configFile = flag.String("f", "etc/cryptolens.yaml", "the config file")
	queries    = flag.String("resolve", "btc,ethereum,sol", "comma separated identifiers resolved on every tick")
)

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	logx.MustSetup(cfg.Log)
	defer logx.Close()

	ensureUpstream(cfg)
	cli.LogConfigSummary(cfg)
	svcCtx := svc.MustNewServiceContext(*cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := newMonitor(svcCtx, splitList(*queries))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.run(ctx, cfg.Monitor.Interval())
	}()

	logx.Infof("monitor started, interval=%s", cfg.Monitor.Interval())
	<-ctx.Done()
	logx.Info("shutdown signal received, stopping monitor")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("monitor stopped cleanly")
	case <-time.After(shutdownTimeout):
		logx.Error("shutdown timeout exceeded, forcing exit")
	}
}
