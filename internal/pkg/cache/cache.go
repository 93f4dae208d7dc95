package cache

import (
	"context"
	"fmt"
	"time"
)

// 缓存通用接口
type Cache interface {
	// Set在缓存中设置一个值，并指定过期时间。
	// value应该是一个可以被JSON封送的结构体或指向结构体的指针。
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Get从缓存中检索一个值，并将其解编组到目标接口。
	// target应该是一个指针，指向希望解编组成的类型。
	Get(ctx context.Context, key string, target any) error

	// 删除一个或多个key
	Del(ctx context.Context, keys ...string) error

	// 检查key是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// ScanKeys 返回所有匹配前缀的key
	ScanKeys(ctx context.Context, prefix string) ([]string, error)

	Expire(ctx context.Context, key string, expiration time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// GenerateUserFilesKey 用户文件列表缓存键
func GenerateUserFilesKey(userID uint64, folderID *uint64) string {
	if folderID == nil {
		return fmt.Sprintf("files:user:%d:folder:root", userID)
	}
	return fmt.Sprintf("files:user:%d:folder:%d", userID, *folderID)
}

// GenerateUserQuotaKey 用户配额信息缓存键
func GenerateUserQuotaKey(userID uint64) string {
	return fmt.Sprintf("quota:user:%d", userID)
}
