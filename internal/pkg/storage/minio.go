package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
)

// MinioStorage 把对象存储在 MinIO，供多实例部署共享
type MinioStorage struct {
	client *minio.Client
	cfg    *config.MinIOConfig
}

var _ StorageService = (*MinioStorage)(nil)

func NewMinioStorage(cfg *config.MinIOConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL, // 根据配置决定是否使用 HTTPS
	})
	if err != nil {
		logger.Error("初始化 MinIO 客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化 MinIO 客户端: %w", err)
	}

	// 确保存储桶存在
	exists, err := client.BucketExists(context.Background(), cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
	}

	logger.Info("MinIO 客户端初始化成功", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.BucketName))
	return &MinioStorage{client: client, cfg: cfg}, nil
}

func (s *MinioStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (int64, error) {
	info, err := s.client.PutObject(ctx, s.cfg.BucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("MinIO 上传文件失败: %w", err)
	}
	return info.Size, nil
}

func (s *MinioStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("MinIO 获取文件失败: %w", err)
	}
	return obj, nil
}

func (s *MinioStorage) RemoveObject(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.cfg.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("MinIO 删除文件失败: %w", err)
	}
	return nil
}

func (s *MinioStorage) CopyObject(ctx context.Context, srcKey, dstKey string) (int64, error) {
	info, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.cfg.BucketName, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.cfg.BucketName, Object: srcKey},
	)
	if err != nil {
		return 0, fmt.Errorf("MinIO 复制文件失败: %w", err)
	}
	return info.Size, nil
}

func (s *MinioStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.cfg.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("MinIO 检查文件失败: %w", err)
	}
	return true, nil
}

func (s *MinioStorage) ObjectURL(key string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.BucketName, strings.TrimLeft(key, "/"))
}
