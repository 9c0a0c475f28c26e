package models

import (
	"time"
)

const (
	MaxTagNameLength        = 50
	MaxTagDescriptionLength = 200
)

// Tag represents a named label that can be attached to images
type Tag struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null;uniqueIndex;size:50"`
	Description string `gorm:"size:200"`

	CreatedAt time.Time

	// Relationships
	Images []ImageTag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

// ImageTag associates a tag with an image
type ImageTag struct {
	ImageID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID   uint `gorm:"primaryKey;autoIncrement:false;index"`

	CreatedAt time.Time
}

// TagUsage is a tag together with the number of images carrying it
type TagUsage struct {
	Tag
	UsageCount int64
}
