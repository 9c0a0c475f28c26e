package models

import (
	"time"
)

// Image represents one logical photo, identified by the hash of its bytes
type Image struct {
	ID            uint     `gorm:"primaryKey"`
	ContentHash   string   `gorm:"type:text;not null;uniqueIndex"`
	ReferenceCode string   `gorm:"type:text;not null;uniqueIndex"`
	ProjectPath   *string  `gorm:"type:text"` // Relative to the managed project folder
	Metadata      Metadata `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	// Relationships
	Locations []Location `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	Tags      []ImageTag `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
}

// ImageWithTags is the denormalized listing row used for display
type ImageWithTags struct {
	Image Image
	Tags  []string
}

// Paths returns the file paths of all known locations
func (i *Image) Paths() []string {
	paths := make([]string, 0, len(i.Locations))
	for _, location := range i.Locations {
		paths = append(paths, location.FilePath)
	}
	return paths
}
