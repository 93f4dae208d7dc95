package models

import (
	"time"

	"gorm.io/gorm"
)

// Folder 对应 folders 表
type Folder struct {
	ID       uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint64  `gorm:"not null;index" json:"user_id"`
	Name     string  `gorm:"type:varchar(255);not null" json:"name"`
	ParentID *uint64 `gorm:"default:null" json:"parent_id"` // 父文件夹，根层级为 null

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (Folder) TableName() string {
	return "folders"
}
