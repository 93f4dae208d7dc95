package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 对应 users 表
type User struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string  `gorm:"type:varchar(64);unique;not null" json:"username"`
	PasswordHash string  `gorm:"type:varchar(255);not null" json:"-"` // - 表示不输出到 JSON
	Email        string  `gorm:"type:varchar(255);unique;not null" json:"email"`
	Role         string  `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	StorageLimit uint64  `gorm:"type:bigint unsigned;not null;default:1073741824" json:"storage_limit"` // 默认 1GB
	UsedStorage  uint64  `gorm:"type:bigint unsigned;not null;default:0" json:"used_storage"`
	AvatarFileID *uint64 `gorm:"default:null" json:"avatar_file_id"` // 当前头像对应的文件记录
	Status       uint8   `gorm:"type:tinyint unsigned;not null;default:1" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}
