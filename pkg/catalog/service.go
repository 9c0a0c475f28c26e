// Package catalog implements the import workflow on top of the catalog store:
// hashing, deduplication, reference code allocation, metadata extraction and
// copies into the managed project folder.
package catalog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/mwantia/photocat/pkg/db/models"
	"github.com/mwantia/photocat/pkg/db/store"
	"github.com/mwantia/photocat/pkg/log"
	"github.com/mwantia/photocat/pkg/refcode"
	"github.com/mwantia/photocat/pkg/scan"
)

type Options struct {
	ProjectDir   string
	CopyOnImport bool
}

type Service struct {
	store     store.CatalogStore
	allocator *refcode.Allocator
	fs        billy.Filesystem
	hasher    *scan.Hasher
	log       log.LoggerService
	opts      Options
}

func NewService(s store.CatalogStore, allocator *refcode.Allocator, fs billy.Filesystem, hasher *scan.Hasher, logger log.LoggerService, opts Options) *Service {
	if opts.ProjectDir != "" {
		opts.ProjectDir = filepath.Clean(opts.ProjectDir)
	}

	return &Service{
		store:     s,
		allocator: allocator,
		fs:        fs,
		hasher:    hasher,
		log:       logger,
		opts:      opts,
	}
}

// RestoreAllocator seeds the allocator with the codes already persisted
func (s *Service) RestoreAllocator(ctx context.Context) error {
	codes, err := s.store.ReferenceCodes(ctx)
	if err != nil {
		return err
	}

	s.allocator.Restore(codes...)
	s.log.Debug("Restored reference counter to %d from %d codes", s.allocator.Counter(), len(codes))
	return nil
}

// ImportResult describes the outcome of importing one file
type ImportResult struct {
	Image   *models.Image
	Created bool
}

// Import catalogues the file at path. A file whose bytes are already known is
// recorded as an additional location of the existing image.
func (s *Service) Import(ctx context.Context, path string) (*ImportResult, error) {
	path = filepath.Clean(path)

	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat '%s': %w", path, err)
	}
	if info.IsDir() {
		return nil, &store.Error{Op: "import", Kind: store.ErrValidation, Err: fmt.Errorf("'%s' is a directory", path)}
	}

	hash, err := s.hasher.HashFile(path)
	if err != nil {
		return nil, err
	}

	return s.importHashed(ctx, path, hash, info.Size())
}

func (s *Service) importHashed(ctx context.Context, path, hash string, size int64) (*ImportResult, error) {
	existing, err := s.store.GetImageByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.store.AddLocation(ctx, existing.ID, path, s.InProject(path)); err != nil {
			return nil, err
		}
		s.log.Info("'%s' matches %s, recorded as additional location", path, existing.ReferenceCode)

		image, err := s.store.GetImage(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		return &ImportResult{Image: image}, nil
	}

	metadata := s.extractMetadata(path, size)
	code := s.allocator.Next()

	id, err := s.store.AddImage(ctx, path, hash, code, metadata)
	if err != nil {
		return nil, err
	}
	s.log.Info("Imported '%s' as %s", path, code)

	if s.opts.CopyOnImport && s.opts.ProjectDir != "" && !s.InProject(path) {
		if _, err := s.CopyToProject(ctx, id); err != nil {
			return nil, fmt.Errorf("imported %s but failed to copy into project folder: %w", code, err)
		}
	}

	image, err := s.store.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Image: image, Created: true}, nil
}

// InProject reports whether path lies inside the managed project folder
func (s *Service) InProject(path string) bool {
	if s.opts.ProjectDir == "" {
		return false
	}

	rel, err := filepath.Rel(s.opts.ProjectDir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

// CopyToProject copies the first existing location of an image into the
// project folder as <reference code><ext> and records it as the canonical copy.
func (s *Service) CopyToProject(ctx context.Context, imageID uint) (string, error) {
	const op = "copy_to_project"

	if s.opts.ProjectDir == "" {
		return "", &store.Error{Op: op, Kind: store.ErrValidation, Err: fmt.Errorf("no project folder configured")}
	}

	image, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return "", err
	}

	var source string
	for _, location := range image.Locations {
		if _, err := s.fs.Stat(location.FilePath); err == nil {
			source = location.FilePath
			break
		}
	}
	if source == "" {
		return "", &store.Error{Op: op, Kind: store.ErrNotFound, Err: fmt.Errorf("no readable location for %s", image.ReferenceCode)}
	}

	rel := image.ReferenceCode + strings.ToLower(filepath.Ext(source))
	dest := filepath.Join(s.opts.ProjectDir, rel)

	if dest != source {
		if err := s.copyFile(source, dest); err != nil {
			return "", err
		}
	}

	if err := s.store.SetProjectPath(ctx, imageID, rel); err != nil {
		return "", err
	}
	if err := s.store.AddLocation(ctx, imageID, dest, true); err != nil {
		return "", err
	}

	s.log.Info("Copied %s into project folder as '%s'", image.ReferenceCode, rel)
	return dest, nil
}

func (s *Service) copyFile(src, dst string) error {
	if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create '%s': %w", filepath.Dir(dst), err)
	}

	in, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", src, err)
	}
	defer in.Close()

	out, err := s.fs.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy '%s' to '%s': %w", src, dst, err)
	}
	return out.Close()
}

// UpdateMetadata replaces the metadata of an image, or merges into it when merge is set
func (s *Service) UpdateMetadata(ctx context.Context, imageID uint, metadata models.Metadata, merge bool) error {
	if merge {
		image, err := s.store.GetImage(ctx, imageID)
		if err != nil {
			return err
		}
		metadata = image.Metadata.Merge(metadata)
	}
	return s.store.UpdateMetadata(ctx, imageID, metadata)
}

// TagImage attaches the named tags, creating any that do not exist yet
func (s *Service) TagImage(ctx context.Context, imageID uint, names ...string) error {
	for _, name := range names {
		tagID, err := s.store.AddTag(ctx, name, "")
		if err != nil {
			return err
		}
		if err := s.store.TagImage(ctx, imageID, tagID); err != nil {
			return err
		}
	}
	return nil
}
