package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/vtart/go-gallery/internal/config"
)

// StorageService 定义了通用的文件存储操作接口
// key 是相对存储根的对象路径，例如 "users/42/images/xxx.jpg"
type StorageService interface {
	// PutObject 写入一个对象，返回实际写入的字节数
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (int64, error)
	// GetObject 打开一个对象用于读取，调用方负责 Close
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	// RemoveObject 删除一个对象，对象不存在时不报错
	RemoveObject(ctx context.Context, key string) error
	// CopyObject 在存储内复制对象，返回新对象大小
	CopyObject(ctx context.Context, srcKey, dstKey string) (int64, error)
	// ObjectExists 检查对象是否存在
	ObjectExists(ctx context.Context, key string) (bool, error)
	// ObjectURL 返回对象的公开访问URL
	ObjectURL(key string) string
}

// NewStorageService 根据配置选择存储后端
func NewStorageService(cfg *config.Config) (StorageService, error) {
	switch cfg.Storage.Type {
	case "local", "":
		return NewLocalStorage(&cfg.Storage, &cfg.Server)
	case "minio":
		return NewMinioStorage(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSStorage(&cfg.AliyunOSS)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Storage.Type)
	}
}
