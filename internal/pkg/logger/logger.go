package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vtart/go-gallery/internal/config"
)

var (
	log  *zap.Logger
	once sync.Once
)

// InitLogger 根据配置初始化全局 Zap 日志器
// 路径或级别缺省时回落到 stdout/stderr 与 info
func InitLogger(cfg config.LogConfig) {
	once.Do(func() {
		log = build(cfg)
		zap.ReplaceGlobals(log)
	})
}

func build(cfg config.LogConfig) *zap.Logger {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			fmt.Fprintf(os.Stderr, "unknown log level %q, using info: %v\n", cfg.Level, err)
			level = zap.InfoLevel
		}
	}

	outputs := []string{"stdout"}
	if cfg.OutputPath != "" {
		outputs = append(outputs, cfg.OutputPath)
	}
	errOutputs := []string{"stderr"}
	if cfg.ErrorPath != "" {
		errOutputs = append(errOutputs, cfg.ErrorPath)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = outputs
	zc.ErrorOutputPaths = errOutputs
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	l, err := zc.Build()
	if err != nil {
		panic(fmt.Sprintf("build zap logger: %v", err))
	}
	return l
}

// GetLogger 返回全局 logger
// 在 InitLogger 之前被调用时退化为纯 stdout/stderr 配置
func GetLogger() *zap.Logger {
	if log == nil {
		InitLogger(config.LogConfig{})
	}
	return log
}

// Sync 刷新缓冲区，程序退出前调用
func Sync() {
	if log != nil {
		if err := log.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "sync zap logger: %v\n", err)
		}
	}
}

// 为方便使用，封装常用的日志方法
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}
