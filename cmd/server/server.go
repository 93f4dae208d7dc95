package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/pkg/cache"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/storage"
	"github.com/vtart/go-gallery/internal/router"
	"github.com/vtart/go-gallery/internal/services/verification"
	"github.com/vtart/go-gallery/internal/setup"
	"go.uber.org/zap"
)

type Server struct {
	httpServer  *http.Server
	redisClient *redis.Client
	verifier    *verification.Service
	sweeperStop context.CancelFunc
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	setup.InitMySQL(&cfg.MySQL)

	// 初始化 Redis 连接
	setup.InitRedis(&cfg.Redis)
	redisClient := setup.RedisClientGlobal

	// 初始化存储后端
	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage service: %w", err)
	}

	// 初始化验证码子系统，验证码存放在 Redis，多实例部署时共享
	cacheService := cache.NewRedisCache(redisClient)
	codeStore := verification.NewRedisStore(cacheService, cfg.Verification.CodeTTL)
	limiter := verification.NewRateLimiter(cfg.Verification.RateLimitWindow)
	verifier := verification.NewService(codeStore, limiter, cfg.Verification)

	// 启动验证码后台清理
	sweeperCtx, sweeperStop := context.WithCancel(context.Background())
	verifier.StartSweeper(sweeperCtx)

	// 初始化 Gin 引擎和注册路由
	routerCfg := router.NewRouterConfig(setup.DB, redisClient, storageService, verifier, cfg)
	engine := router.InitRouter(routerCfg)

	addr := ":" + cfg.Server.Port
	logger.Info(fmt.Sprintf("Server is running on %s", addr))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return &Server{
		httpServer:  httpServer,
		redisClient: redisClient,
		verifier:    verifier,
		sweeperStop: sweeperStop,
	}, nil
}

// Run 启动服务器并处理优雅关机
func (s *Server) Run(stopChan chan os.Signal) {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 先停止后台清理，再关闭 HTTP 服务
	s.sweeperStop()
	s.verifier.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	setup.CloseRedis()
	setup.CloseMySQLDB()
	logger.Info("Server exited gracefully")
}
