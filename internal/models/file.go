package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
)

// File 对应 files 表，描述一个已上传的图片或视频
type File struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint64  `gorm:"not null;index" json:"user_id"`
	FolderID      *uint64 `gorm:"default:null;index" json:"folder_id"` // 所属文件夹，根目录为 null
	FileName      string  `gorm:"type:varchar(255);not null" json:"filename"` // 物理文件名（uuid+扩展名）
	OriginalName  string  `gorm:"type:varchar(255);not null" json:"original_name"`
	FileType      string  `gorm:"type:varchar(16);not null" json:"file_type"` // image / video
	FileSize      uint64  `gorm:"type:bigint unsigned;not null" json:"file_size"`
	FilePath      string  `gorm:"type:varchar(1024);not null" json:"file_path"` // 相对存储根目录的路径
	ThumbnailPath *string `gorm:"type:varchar(1024);default:null" json:"thumbnail_path"`
	MimeType      *string `gorm:"type:varchar(128);default:null" json:"mime_type"`
	Width         *int    `gorm:"default:null" json:"width"`
	Height        *int    `gorm:"default:null" json:"height"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// 定义 GORM 关联，方便预加载
	User   *User   `gorm:"foreignKey:UserID" json:"-"`
	Folder *Folder `gorm:"foreignKey:FolderID" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (File) TableName() string {
	return "files"
}

// IsImage 判断文件是否为图片
func (f *File) IsImage() bool {
	return f.FileType == FileTypeImage
}
