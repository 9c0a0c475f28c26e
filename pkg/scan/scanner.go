package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
	".heic": true,
	".hif":  true,
	".dng":  true,
	".arw":  true,
	".cr2":  true,
	".nef":  true,
	".raf":  true,
}

var skipFolders = map[string]bool{
	".stfolder":       true,
	".fseventsd":      true,
	".Trashes":        true,
	".Spotlight-V100": true,
	".git":            true,
}

// IsPhotoFile reports whether the extension of name is a supported photo format
func IsPhotoFile(name string) bool {
	return photoExts[strings.ToLower(filepath.Ext(name))]
}

// Result describes one file visited by a scan
type Result struct {
	Path    string
	Hash    string
	ImageID uint // Non-zero when Hash matches a known image
	Err     error
}

// Known reports whether the file matched an existing catalog entry
func (r Result) Known() bool {
	return r.ImageID != 0
}

// Scanner walks a directory tree and hashes every photo file it finds.
// It only reads the filesystem; applying results to the catalog is left to the receiver.
type Scanner struct {
	fs     billy.Filesystem
	hasher *Hasher
}

func NewScanner(fs billy.Filesystem, hasher *Hasher) *Scanner {
	return &Scanner{
		fs:     fs,
		hasher: hasher,
	}
}

// Start scans root in a background goroutine, comparing hashes against the
// known snapshot. The returned channel is closed when the walk finishes or
// ctx is cancelled; cancellation is checked between files.
func (s *Scanner) Start(ctx context.Context, root string, known map[string]uint) <-chan Result {
	results := make(chan Result)

	go func() {
		defer close(results)

		err := util.Walk(s.fs, root, func(filename string, fi os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if err != nil {
				return s.emit(ctx, results, Result{Path: filename, Err: err})
			}

			if fi.IsDir() {
				if filename != root && skipFolders[fi.Name()] {
					return filepath.SkipDir
				}
				return nil
			}

			if !IsPhotoFile(filename) {
				return nil
			}

			hash, err := s.hasher.HashFile(filename)
			if err != nil {
				return s.emit(ctx, results, Result{Path: filename, Err: err})
			}

			return s.emit(ctx, results, Result{
				Path:    filename,
				Hash:    hash,
				ImageID: known[hash],
			})
		})

		if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
			_ = s.emit(ctx, results, Result{Path: root, Err: err})
		}
	}()

	return results
}

func (s *Scanner) emit(ctx context.Context, results chan<- Result, result Result) error {
	select {
	case results <- result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
