package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
)

// @title Go Gallery API
// @version 1.0
// @description 多用户图片视频图床服务
// @BasePath /api/v1
func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// 初始化日志系统
	if err := os.MkdirAll("logs", 0o755); err != nil {
		logger.Fatal("Failed to create logs directory", zap.Error(err))
	}
	logger.InitLogger(cfg.Log)
	defer logger.Sync() // 确保在应用退出时刷新所有缓冲的日志条目

	srv, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to build server", zap.Error(err))
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	srv.Run(stopChan)
}
