package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
)

// AliyunOSSStorage 把对象存储在阿里云 OSS
type AliyunOSSStorage struct {
	bucket *oss.Bucket
	cfg    *config.AliyunOSSConfig
}

var _ StorageService = (*AliyunOSSStorage)(nil)

func NewAliyunOSSStorage(cfg *config.AliyunOSSConfig) (*AliyunOSSStorage, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化 OSS 客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化 OSS 客户端: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("获取 OSS 存储桶失败: %w", err)
	}

	logger.Info("OSS 客户端初始化成功", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.BucketName))
	return &AliyunOSSStorage{bucket: bucket, cfg: cfg}, nil
}

func (s *AliyunOSSStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (int64, error) {
	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := s.bucket.PutObject(key, reader, opts...); err != nil {
		return 0, fmt.Errorf("OSS 上传文件失败: %w", err)
	}

	// OSS SDK 不返回写入大小，回查对象元信息
	meta, err := s.bucket.GetObjectDetailedMeta(key)
	if err != nil {
		logger.Warn("OSS 获取对象元信息失败", zap.String("key", key), zap.Error(err))
		return size, nil
	}
	var written int64
	fmt.Sscanf(meta.Get("Content-Length"), "%d", &written)
	return written, nil
}

func (s *AliyunOSSStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.bucket.GetObject(key)
	if err != nil {
		return nil, fmt.Errorf("OSS 获取文件失败: %w", err)
	}
	return body, nil
}

func (s *AliyunOSSStorage) RemoveObject(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(key); err != nil {
		return fmt.Errorf("OSS 删除文件失败: %w", err)
	}
	return nil
}

func (s *AliyunOSSStorage) CopyObject(ctx context.Context, srcKey, dstKey string) (int64, error) {
	if _, err := s.bucket.CopyObject(srcKey, dstKey); err != nil {
		return 0, fmt.Errorf("OSS 复制文件失败: %w", err)
	}

	meta, err := s.bucket.GetObjectDetailedMeta(dstKey)
	if err != nil {
		return 0, nil
	}
	var size int64
	fmt.Sscanf(meta.Get("Content-Length"), "%d", &size)
	return size, nil
}

func (s *AliyunOSSStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	exists, err := s.bucket.IsObjectExist(key)
	if err != nil {
		return false, fmt.Errorf("OSS 检查文件失败: %w", err)
	}
	return exists, nil
}

func (s *AliyunOSSStorage) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", s.cfg.BucketName, s.cfg.Endpoint, strings.TrimLeft(key, "/"))
}
