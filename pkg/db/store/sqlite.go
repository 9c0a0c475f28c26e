package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/photocat/pkg/db/migrations"
	"github.com/mwantia/photocat/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements CatalogStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
	now  func() time.Time
}

var _ CatalogStore = (*SQLiteStore)(nil)

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path     string
	LogLevel logger.LogLevel
	Logger   logger.Interface
}

// NewSQLiteStore creates a new SQLite-backed catalog store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default
	}

	now := func() time.Time {
		return time.Now().UTC()
	}

	db, err := gorm.Open(sqlite.Open(withForeignKeys(cfg.Path)), &gorm.Config{
		Logger:  cfg.Logger.LogMode(cfg.LogLevel),
		NowFunc: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
		now:  now,
	}, nil
}

func withForeignKeys(path string) string {
	if strings.Contains(path, "_pragma=foreign_keys") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_pragma=foreign_keys(1)"
	}
	return path + "?_pragma=foreign_keys(1)"
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// A single connection serializes every catalog mutation
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs all pending schema migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return wrapError(op, s.db.WithContext(ctx).Transaction(fn))
}

func required(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return newError(op, ErrValidation, "%s must not be empty", field)
	}
	return nil
}

func requireImage(tx *gorm.DB, op string, imageID uint) error {
	var count int64
	if err := tx.Model(&models.Image{}).Where("id = ?", imageID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return newError(op, ErrNotFound, "image %d does not exist", imageID)
	}
	return nil
}

func requireTag(tx *gorm.DB, op string, tagID uint) error {
	var count int64
	if err := tx.Model(&models.Tag{}).Where("id = ?", tagID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return newError(op, ErrNotFound, "tag %d does not exist", tagID)
	}
	return nil
}

func orderLocations(db *gorm.DB) *gorm.DB {
	return db.Order("image_locations.id ASC")
}

// Image operations

func (s *SQLiteStore) AddImage(ctx context.Context, initialPath, contentHash, referenceCode string, metadata models.Metadata) (uint, error) {
	const op = "add_image"

	for field, value := range map[string]string{
		"initial path":   initialPath,
		"content hash":   contentHash,
		"reference code": referenceCode,
	} {
		if err := required(op, field, value); err != nil {
			return 0, err
		}
	}
	if metadata == nil {
		metadata = models.Metadata{}
	}
	if err := metadata.Validate(); err != nil {
		return 0, &Error{Op: op, Kind: ErrValidation, Err: err}
	}

	var imageID uint
	err := s.transaction(ctx, op, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Image{}).Where("content_hash = ?", contentHash).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return newError(op, ErrDuplicateHash, "content hash %s is already catalogued", contentHash)
		}

		if err := tx.Model(&models.Image{}).Where("reference_code = ?", referenceCode).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return newError(op, ErrValidation, "reference code %s is already in use", referenceCode)
		}

		image := models.Image{
			ContentHash:   contentHash,
			ReferenceCode: referenceCode,
			Metadata:      metadata,
		}
		if err := tx.Omit(clause.Associations).Create(&image).Error; err != nil {
			return err
		}

		verified := s.now()
		location := models.Location{
			ImageID:      image.ID,
			FilePath:     initialPath,
			Verified:     true,
			LastVerified: &verified,
		}
		if err := tx.Create(&location).Error; err != nil {
			return err
		}

		imageID = image.ID
		return nil
	})

	return imageID, err
}

func (s *SQLiteStore) GetImage(ctx context.Context, imageID uint) (*models.Image, error) {
	var image models.Image
	err := s.db.WithContext(ctx).
		Preload("Locations", orderLocations).
		Where("id = ?", imageID).
		First(&image).Error
	if err != nil {
		return nil, wrapError("get_image", err)
	}
	return &image, nil
}

// GetImageByHash returns nil without an error when no image carries the hash
func (s *SQLiteStore) GetImageByHash(ctx context.Context, contentHash string) (*models.Image, error) {
	var image models.Image
	err := s.db.WithContext(ctx).
		Preload("Locations", orderLocations).
		Where("content_hash = ?", contentHash).
		First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError("get_image_by_hash", err)
	}
	return &image, nil
}

func (s *SQLiteStore) SetProjectPath(ctx context.Context, imageID uint, path string) error {
	const op = "set_project_path"
	if err := required(op, "project path", path); err != nil {
		return err
	}

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		result := tx.Model(&models.Image{}).Where("id = ?", imageID).Update("project_path", path)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(op, ErrNotFound, "image %d does not exist", imageID)
		}
		return nil
	})
}

// UpdateMetadata replaces the whole metadata mapping of an image
func (s *SQLiteStore) UpdateMetadata(ctx context.Context, imageID uint, metadata models.Metadata) error {
	const op = "update_metadata"
	if metadata == nil {
		metadata = models.Metadata{}
	}
	if err := metadata.Validate(); err != nil {
		return &Error{Op: op, Kind: ErrValidation, Err: err}
	}

	encoded, err := metadata.Value()
	if err != nil {
		return &Error{Op: op, Kind: ErrValidation, Err: err}
	}

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		result := tx.Model(&models.Image{}).Where("id = ?", imageID).Update("metadata", encoded)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(op, ErrNotFound, "image %d does not exist", imageID)
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteImage(ctx context.Context, imageID uint) error {
	const op = "delete_image"

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		if err := requireImage(tx, op, imageID); err != nil {
			return err
		}
		if err := tx.Where("image_id = ?", imageID).Delete(&models.Location{}).Error; err != nil {
			return err
		}
		if err := tx.Where("image_id = ?", imageID).Delete(&models.ImageTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Image{}, imageID).Error
	})
}

// ListAllWithTags returns every image, newest first, with its locations and tag names
func (s *SQLiteStore) ListAllWithTags(ctx context.Context) ([]models.ImageWithTags, error) {
	const op = "list_all_with_tags"

	var images []models.Image
	err := s.db.WithContext(ctx).
		Preload("Locations", orderLocations).
		Order("created_at DESC").
		Order("id DESC").
		Find(&images).Error
	if err != nil {
		return nil, wrapError(op, err)
	}

	ids := make([]uint, 0, len(images))
	for _, image := range images {
		ids = append(ids, image.ID)
	}

	tags, err := s.tagNamesByImage(ctx, ids)
	if err != nil {
		return nil, wrapError(op, err)
	}

	result := make([]models.ImageWithTags, 0, len(images))
	for _, image := range images {
		names := tags[image.ID]
		if names == nil {
			names = []string{}
		}
		result = append(result, models.ImageWithTags{
			Image: image,
			Tags:  names,
		})
	}
	return result, nil
}

func (s *SQLiteStore) tagNamesByImage(ctx context.Context, ids []uint) (map[uint][]string, error) {
	result := make(map[uint][]string)
	if len(ids) == 0 {
		return result, nil
	}

	var rows []struct {
		ImageID uint
		Name    string
	}
	err := s.db.WithContext(ctx).
		Table("image_tags").
		Select("image_tags.image_id, tags.name").
		Joins("JOIN tags ON tags.id = image_tags.tag_id").
		Where("image_tags.image_id IN ?", ids).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ImageID] = append(result[row.ImageID], row.Name)
	}
	return result, nil
}

// Search matches images case-insensitively by location path, tag name or
// serialized metadata. Both sides are folded with Unicode lowercasing; an empty
// query matches everything.
func (s *SQLiteStore) Search(ctx context.Context, query string, mode SearchMode) ([]models.Image, error) {
	const op = "search"

	if _, err := ParseSearchMode(string(mode)); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	byFilename := db.Model(&models.Location{}).
		Select("image_locations.image_id").
		Where(`photocat_fold(image_locations.file_path) LIKE ? ESCAPE '\'`, pattern)
	byTag := db.Table("image_tags").
		Select("image_tags.image_id").
		Joins("JOIN tags ON tags.id = image_tags.tag_id").
		Where(`photocat_fold(tags.name) LIKE ? ESCAPE '\'`, pattern)

	q := db.Model(&models.Image{}).Preload("Locations", orderLocations)
	switch mode {
	case SearchFilename:
		q = q.Where("images.id IN (?)", byFilename)
	case SearchTags:
		q = q.Where("images.id IN (?)", byTag)
	case SearchMetadata:
		q = q.Where(`photocat_fold(images.metadata) LIKE ? ESCAPE '\'`, pattern)
	default:
		q = q.Where(`images.id IN (?) OR images.id IN (?) OR photocat_fold(images.metadata) LIKE ? ESCAPE '\'`, byFilename, byTag, pattern)
	}

	var images []models.Image
	if err := q.Order("images.created_at DESC").Order("images.id DESC").Find(&images).Error; err != nil {
		return nil, wrapError(op, err)
	}
	return images, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

// KnownHashes returns a snapshot of every content hash mapped to its image ID
func (s *SQLiteStore) KnownHashes(ctx context.Context) (map[string]uint, error) {
	var rows []struct {
		ID          uint
		ContentHash string
	}
	if err := s.db.WithContext(ctx).Model(&models.Image{}).Select("id, content_hash").Scan(&rows).Error; err != nil {
		return nil, wrapError("known_hashes", err)
	}

	hashes := make(map[string]uint, len(rows))
	for _, row := range rows {
		hashes[row.ContentHash] = row.ID
	}
	return hashes, nil
}

func (s *SQLiteStore) ReferenceCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := s.db.WithContext(ctx).Model(&models.Image{}).Pluck("reference_code", &codes).Error; err != nil {
		return nil, wrapError("reference_codes", err)
	}
	return codes, nil
}

// Location operations

// AddLocation inserts a location or refreshes the existing (image, path) pair.
// A location once recorded inside the project folder stays flagged as such.
func (s *SQLiteStore) AddLocation(ctx context.Context, imageID uint, path string, isInProject bool) error {
	const op = "add_location"
	if err := required(op, "path", path); err != nil {
		return err
	}

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		if err := requireImage(tx, op, imageID); err != nil {
			return err
		}

		verified := s.now()
		location := models.Location{
			ImageID:           imageID,
			FilePath:          path,
			IsInProjectFolder: isInProject,
			Verified:          true,
			LastVerified:      &verified,
		}
		// The project flag only ever turns on for an existing row
		updates := append(clause.AssignmentColumns([]string{"verified", "last_verified"}), clause.Assignment{
			Column: clause.Column{Name: "is_in_project_folder"},
			Value:  gorm.Expr("image_locations.is_in_project_folder OR excluded.is_in_project_folder"),
		})
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "image_id"}, {Name: "file_path"}},
			DoUpdates: updates,
		}).Create(&location).Error
	})
}

// VerifyLocation marks a location verified when the file exists and evicts
// the row when it does not. Evicting an already missing row is a no-op.
func (s *SQLiteStore) VerifyLocation(ctx context.Context, imageID uint, path string, fileExists bool) error {
	const op = "verify_location"

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		if !fileExists {
			return tx.Where("image_id = ? AND file_path = ?", imageID, path).Delete(&models.Location{}).Error
		}

		result := tx.Model(&models.Location{}).
			Where("image_id = ? AND file_path = ?", imageID, path).
			Updates(map[string]any{
				"verified":      true,
				"last_verified": s.now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(op, ErrNotFound, "location %q of image %d does not exist", path, imageID)
		}
		return nil
	})
}

// InvalidateLocation clears the verified flag while keeping the row
func (s *SQLiteStore) InvalidateLocation(ctx context.Context, imageID uint, path string) error {
	const op = "invalidate_location"

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		result := tx.Model(&models.Location{}).
			Where("image_id = ? AND file_path = ?", imageID, path).
			Update("verified", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(op, ErrNotFound, "location %q of image %d does not exist", path, imageID)
		}
		return nil
	})
}

// ListLocations returns the locations of one image, or of all images when imageID is 0
func (s *SQLiteStore) ListLocations(ctx context.Context, imageID uint) ([]models.Location, error) {
	q := s.db.WithContext(ctx).Model(&models.Location{})
	if imageID != 0 {
		q = q.Where("image_id = ?", imageID)
	}

	var locations []models.Location
	if err := q.Order("id ASC").Find(&locations).Error; err != nil {
		return nil, wrapError("list_locations", err)
	}
	return locations, nil
}

// Tag operations

// AddTag returns the ID of the tag with the given name, creating it if needed
func (s *SQLiteStore) AddTag(ctx context.Context, name, description string) (uint, error) {
	const op = "add_tag"

	name = strings.TrimSpace(name)
	if err := required(op, "tag name", name); err != nil {
		return 0, err
	}
	if len([]rune(name)) > models.MaxTagNameLength {
		return 0, newError(op, ErrValidation, "tag name exceeds %d characters", models.MaxTagNameLength)
	}
	if len([]rune(description)) > models.MaxTagDescriptionLength {
		return 0, newError(op, ErrValidation, "tag description exceeds %d characters", models.MaxTagDescriptionLength)
	}

	var tag models.Tag
	err := s.transaction(ctx, op, func(tx *gorm.DB) error {
		return tx.Where(models.Tag{Name: name}).
			Attrs(models.Tag{Description: description}).
			FirstOrCreate(&tag).Error
	})
	if err != nil {
		return 0, err
	}
	return tag.ID, nil
}

func (s *SQLiteStore) DeleteTag(ctx context.Context, tagID uint) error {
	const op = "delete_tag"

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		if err := requireTag(tx, op, tagID); err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", tagID).Delete(&models.ImageTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tag{}, tagID).Error
	})
}

// ListTags returns every tag alphabetically with the number of tagged images
func (s *SQLiteStore) ListTags(ctx context.Context) ([]models.TagUsage, error) {
	var usages []models.TagUsage
	err := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Select("tags.id, tags.name, tags.description, tags.created_at, COUNT(image_tags.image_id) AS usage_count").
		Joins("LEFT JOIN image_tags ON image_tags.tag_id = tags.id").
		Group("tags.id").
		Order("tags.name ASC").
		Scan(&usages).Error
	if err != nil {
		return nil, wrapError("list_tags", err)
	}
	return usages, nil
}

func (s *SQLiteStore) TagImage(ctx context.Context, imageID, tagID uint) error {
	const op = "tag_image"

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		if err := requireImage(tx, op, imageID); err != nil {
			return err
		}
		if err := requireTag(tx, op, tagID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ImageTag{ImageID: imageID, TagID: tagID}).Error
	})
}

// UntagImage removes a single association; removing a missing one is a no-op
func (s *SQLiteStore) UntagImage(ctx context.Context, imageID, tagID uint) error {
	return s.transaction(ctx, "untag_image", func(tx *gorm.DB) error {
		return tx.Where("image_id = ? AND tag_id = ?", imageID, tagID).Delete(&models.ImageTag{}).Error
	})
}

func (s *SQLiteStore) ClearTags(ctx context.Context, imageID uint) error {
	const op = "clear_tags"

	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		if err := requireImage(tx, op, imageID); err != nil {
			return err
		}
		return tx.Where("image_id = ?", imageID).Delete(&models.ImageTag{}).Error
	})
}

// GetTags returns the tag names of an image in alphabetical order
func (s *SQLiteStore) GetTags(ctx context.Context, imageID uint) ([]string, error) {
	const op = "get_tags"

	db := s.db.WithContext(ctx)
	if err := requireImage(db, op, imageID); err != nil {
		return nil, wrapError(op, err)
	}

	names := []string{}
	err := db.Table("tags").
		Joins("JOIN image_tags ON image_tags.tag_id = tags.id").
		Where("image_tags.image_id = ?", imageID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, wrapError(op, err)
	}
	return names, nil
}
