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
	log.Info("按键适配器启动",
		zap.String("server", cfg.Adapter.ServerURL),
		zap.Int("left_pin", cfg.Adapter.Button.LeftPin),
		zap.Int("right_pin", cfg.Adapter.Button.RightPin))

	client := adapter.NewServerClient(&cfg.Adapter, log)

	pins := adapter.NewSysfsPinReader()
	defer pins.Close()

	poller := adapter.NewButtonPoller(client, pins, &cfg.Adapter.Button, log)
	if err := poller.Setup(); err != nil {
		log.Fatal("按键引脚初始化失败", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := poller.Run(ctx); err != nil && err != context.Canceled {
		log.Error("按键轮询异常退出", zap.Error(err))
		os.Exit(1)
	}

	log.Info("按键适配器已退出")
}
