package explorer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vtart/go-gallery/internal/models"
)

// detectFileType 根据 MIME 类型判定文件类别，只接受图片和视频
func detectFileType(mimeType string) (string, bool) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.FileTypeImage, true
	case strings.HasPrefix(mimeType, "video/"):
		return models.FileTypeVideo, true
	default:
		return "", false
	}
}

// physicalFileName 生成磁盘上的物理文件名，保留原始扩展名
func physicalFileName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.New().String() + ext
}

// objectKey 拼接对象存储key: users/{userID}/{images|videos}/{fileName}
func objectKey(userID uint64, fileType, fileName string) string {
	category := "images"
	if fileType == models.FileTypeVideo {
		category = "videos"
	}
	return fmt.Sprintf("users/%d/%s/%s", userID, category, fileName)
}

// thumbnailKey 返回文件对应的缩略图key，和原图同目录，带 thumb_ 前缀
func thumbnailKey(key string) string {
	dir := filepath.Dir(key)
	name := filepath.Base(key)
	return filepath.ToSlash(filepath.Join(dir, "thumb_"+name))
}
