package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
)

// LocalStorage 把对象存储在本地磁盘，是默认后端
type LocalStorage struct {
	basePath string
	domain   string
}

var _ StorageService = (*LocalStorage)(nil)

func NewLocalStorage(cfg *config.StorageConfig, srv *config.ServerConfig) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.LocalBasePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储根目录失败: %w", err)
	}
	return &LocalStorage{basePath: cfg.LocalBasePath, domain: srv.Domain}, nil
}

// resolve 把对象key解析为磁盘路径，拒绝越出存储根目录的key
func (s *LocalStorage) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("非法的对象key: %s", key)
	}
	return filepath.Join(s.basePath, cleaned), nil
}

func (s *LocalStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (int64, error) {
	path, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("创建对象目录失败: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("创建对象文件失败: %w", err)
	}

	written, err := io.Copy(f, reader)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// 写入中断（包括客户端断开）时移除残留的半成品文件
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Error("LocalStorage: Failed to remove partial object", zap.String("key", key), zap.Error(rmErr))
		}
		return 0, fmt.Errorf("写入对象失败: %w", err)
	}
	return written, nil
}

func (s *LocalStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开对象失败: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) RemoveObject(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除对象失败: %w", err)
	}
	return nil
}

func (s *LocalStorage) CopyObject(ctx context.Context, srcKey, dstKey string) (int64, error) {
	src, err := s.GetObject(ctx, srcKey)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	// 复制大小未知，交由 PutObject 统计
	return s.PutObject(ctx, dstKey, src, -1, "")
}

func (s *LocalStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("检查对象失败: %w", err)
	}
	return true, nil
}

func (s *LocalStorage) ObjectURL(key string) string {
	return fmt.Sprintf("%s/uploads/%s", strings.TrimRight(s.domain, "/"), key)
}
