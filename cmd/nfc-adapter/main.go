package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wfunc/privacy-kiosk/internal/adapter"
	"github.com/wfunc/privacy-kiosk/internal/config"
	"github.com/wfunc/privacy-kiosk/internal/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()
	log.Info("读卡适配器启动",
		zap.String("server", cfg.Adapter.ServerURL),
		zap.String("port", cfg.Adapter.NFC.Port))

	client := adapter.NewServerClient(&cfg.Adapter, log)

	reader, err := adapter.NewSerialTagReader(&cfg.Adapter.NFC, log)
	if err != nil {
		log.Fatal("读卡器打开失败", zap.Error(err))
	}
	defer reader.Close()

	poller := adapter.NewNFCPoller(client, reader, &cfg.Adapter.NFC, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := poller.Run(ctx); err != nil && err != context.Canceled {
		log.Error("读卡轮询异常退出", zap.Error(err))
		os.Exit(1)
	}

	log.Info("读卡适配器已退出")
}
