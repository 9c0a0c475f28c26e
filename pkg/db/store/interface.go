package store

import (
	"context"

	"github.com/mwantia/photocat/pkg/db/models"
)

// SearchMode selects which attribute a catalog search matches against
type SearchMode string

const (
	SearchAll      SearchMode = "all"
	SearchFilename SearchMode = "filename"
	SearchTags     SearchMode = "tags"
	SearchMetadata SearchMode = "metadata"
)

// ParseSearchMode converts user input into a SearchMode
func ParseSearchMode(mode string) (SearchMode, error) {
	switch SearchMode(mode) {
	case SearchAll, SearchFilename, SearchTags, SearchMetadata:
		return SearchMode(mode), nil
	case "":
		return SearchAll, nil
	}
	return "", newError("parse_search_mode", ErrValidation, "unknown search mode %q", mode)
}

// CatalogStore defines the interface for catalog database operations.
// Every mutating operation runs in a single transaction; on failure nothing is written.
type CatalogStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Image operations
	AddImage(ctx context.Context, initialPath, contentHash, referenceCode string, metadata models.Metadata) (uint, error)
	GetImage(ctx context.Context, imageID uint) (*models.Image, error)
	GetImageByHash(ctx context.Context, contentHash string) (*models.Image, error)
	SetProjectPath(ctx context.Context, imageID uint, path string) error
	UpdateMetadata(ctx context.Context, imageID uint, metadata models.Metadata) error
	DeleteImage(ctx context.Context, imageID uint) error
	ListAllWithTags(ctx context.Context) ([]models.ImageWithTags, error)
	Search(ctx context.Context, query string, mode SearchMode) ([]models.Image, error)
	KnownHashes(ctx context.Context) (map[string]uint, error)
	ReferenceCodes(ctx context.Context) ([]string, error)

	// Location operations
	AddLocation(ctx context.Context, imageID uint, path string, isInProject bool) error
	VerifyLocation(ctx context.Context, imageID uint, path string, fileExists bool) error
	InvalidateLocation(ctx context.Context, imageID uint, path string) error
	ListLocations(ctx context.Context, imageID uint) ([]models.Location, error)

	// Tag operations
	AddTag(ctx context.Context, name, description string) (uint, error)
	DeleteTag(ctx context.Context, tagID uint) error
	ListTags(ctx context.Context) ([]models.TagUsage, error)
	TagImage(ctx context.Context, imageID, tagID uint) error
	UntagImage(ctx context.Context, imageID, tagID uint) error
	ClearTags(ctx context.Context, imageID uint) error
	GetTags(ctx context.Context, imageID uint) ([]string, error)
}
