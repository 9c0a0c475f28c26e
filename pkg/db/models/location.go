package models

import (
	"time"
)

// Location is one filesystem path believed to hold a copy of an image
type Location struct {
	ID                uint   `gorm:"primaryKey"`
	ImageID           uint   `gorm:"not null;uniqueIndex:idx_location_image_path"`
	FilePath          string `gorm:"type:text;not null;uniqueIndex:idx_location_image_path"`
	IsInProjectFolder bool   `gorm:"not null;default:false"`
	Verified          bool   `gorm:"not null;default:false"`
	LastVerified      *time.Time
}

func (Location) TableName() string {
	return "image_locations"
}
