package model

import (
	"time"

	"gorm.io/gorm"
)

// CreationType 创作类型
type CreationType string

const (
	CreationArticle           CreationType = "article"
	CreationBlogTitle         CreationType = "blog-title"
	CreationImage             CreationType = "image"
	CreationBackgroundRemoval CreationType = "background-removal"
	CreationResumeReview      CreationType = "resume-review"
)

func (t CreationType) Valid() bool {
	switch t {
	case CreationArticle, CreationBlogTitle, CreationImage, CreationBackgroundRemoval, CreationResumeReview:
		return true
	}
	return false
}

// Creation 一次 AI 操作的产出。写入后只有 likes / updated_at 会变化
type Creation struct {
	ID        string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string       `json:"user_id" gorm:"type:varchar(64);not null;index:idx_creation_user_created"`
	Prompt    string       `json:"prompt" gorm:"type:text;not null;default:''"`
	Content   string       `json:"content" gorm:"type:text;not null;default:''"`
	Type      CreationType `json:"type" gorm:"type:varchar(32);not null"`
	Publish   bool         `json:"publish" gorm:"not null;default:false;index:idx_creation_publish_created"`
	Likes     LikeSet      `json:"likes"`
	CreatedAt time.Time    `json:"created_at" gorm:"index:idx_creation_user_created;index:idx_creation_publish_created"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Creation) TableName() string { return "creations" }

// AfterFind 为 NULL 的 likes 列不会经过 LikeSet.Scan，这里统一成空集合
func (c *Creation) AfterFind(*gorm.DB) error {
	if c.Likes == nil {
		c.Likes = LikeSet{}
	}
	return nil
}
