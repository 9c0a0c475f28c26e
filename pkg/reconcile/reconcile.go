// Package reconcile brings stored image locations in line with the filesystem.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/db/models"
	"github.com/mwantia/photocat/pkg/db/store"
	"github.com/mwantia/photocat/pkg/log"
	"github.com/mwantia/photocat/pkg/scan"
)

// Strictness selects how much evidence a location needs to count as verified
type Strictness int

const (
	// Existence only checks that the path exists
	Existence Strictness = iota
	// Content additionally re-hashes the file and compares it to the stored hash
	Content
)

// ParseStrictness accepts the same values as the reconcile.strictness setting
func ParseStrictness(value string) (Strictness, error) {
	level, err := config.ReconcileServerConfig{Strictness: value}.ParseStrictness()
	if err != nil {
		return Existence, err
	}
	if level == config.StrictnessContent {
		return Content, nil
	}
	return Existence, nil
}

func (s Strictness) String() string {
	if s == Content {
		return config.StrictnessContent
	}
	return config.StrictnessExistence
}

// Store is the subset of the catalog store used during reconciliation
type Store interface {
	ListLocations(ctx context.Context, imageID uint) ([]models.Location, error)
	GetImage(ctx context.Context, imageID uint) (*models.Image, error)
	VerifyLocation(ctx context.Context, imageID uint, path string, fileExists bool) error
	InvalidateLocation(ctx context.Context, imageID uint, path string) error
}

// Report aggregates the outcome of one reconciliation run
type Report struct {
	Total      int
	Verified   int
	Evicted    int
	Skipped    int
	Mismatched int
	Cancelled  bool
	Errors     []error
}

// Processed returns the number of locations handled before the run ended
func (r Report) Processed() int {
	return r.Verified + r.Evicted + r.Skipped + r.Mismatched
}

type Reconciler struct {
	store      Store
	fs         billy.Filesystem
	hasher     *scan.Hasher
	strictness Strictness
	log        log.LoggerService
}

func NewReconciler(s Store, fs billy.Filesystem, hasher *scan.Hasher, strictness Strictness, logger log.LoggerService) *Reconciler {
	return &Reconciler{
		store:      s,
		fs:         fs,
		hasher:     hasher,
		strictness: strictness,
		log:        logger,
	}
}

// Run checks every location of imageID, or of all images when imageID is 0.
// Cancellation is honoured between items; rows processed so far stay
// updated and are reflected in the returned report.
func (r *Reconciler) Run(ctx context.Context, imageID uint) (Report, error) {
	report := Report{}

	locations, err := r.store.ListLocations(ctx, imageID)
	if err != nil {
		report.Cancelled = ctx.Err() != nil
		return report, fmt.Errorf("failed to list locations: %w", err)
	}
	report.Total = len(locations)

	hashes := make(map[uint]string)

	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			r.log.Warn("Reconciliation cancelled after %d of %d locations", report.Processed(), report.Total)
			return report, err
		}

		if err := r.reconcile(ctx, location, hashes, &report); err != nil {
			// Store faults are fatal for the run
			return report, err
		}
	}

	r.log.Info("Reconciled %d locations: %d verified, %d evicted, %d skipped, %d mismatched",
		report.Total, report.Verified, report.Evicted, report.Skipped, report.Mismatched)
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context, location models.Location, hashes map[uint]string, report *Report) error {
	info, err := r.fs.Stat(location.FilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := r.store.VerifyLocation(ctx, location.ImageID, location.FilePath, false); err != nil {
			return err
		}
		r.log.Debug("Evicted missing location '%s' of image %d", location.FilePath, location.ImageID)
		report.Evicted++
		return nil

	case err != nil:
		r.skip(report, location, err)
		return nil

	case info.IsDir():
		r.skip(report, location, fmt.Errorf("path is a directory"))
		return nil
	}

	if r.strictness == Content {
		expected, err := r.expectedHash(ctx, location.ImageID, hashes)
		if err != nil {
			return err
		}

		actual, err := r.hasher.HashFile(location.FilePath)
		if err != nil {
			r.skip(report, location, err)
			return nil
		}

		if actual != expected {
			if err := r.store.InvalidateLocation(ctx, location.ImageID, location.FilePath); err != nil {
				return err
			}
			mismatch := &store.Error{
				Op:   "reconcile",
				Kind: store.ErrIntegrity,
				Err:  fmt.Errorf("location '%s' of image %d hashes to %s, expected %s", location.FilePath, location.ImageID, actual, expected),
			}
			r.log.Warn("%v", mismatch)
			report.Mismatched++
			report.Errors = append(report.Errors, mismatch)
			return nil
		}
	}

	if err := r.store.VerifyLocation(ctx, location.ImageID, location.FilePath, true); err != nil {
		// The row may have been evicted concurrently
		if errors.Is(err, store.ErrNotFound) {
			r.skip(report, location, err)
			return nil
		}
		return err
	}
	report.Verified++
	return nil
}

func (r *Reconciler) expectedHash(ctx context.Context, imageID uint, hashes map[uint]string) (string, error) {
	if hash, ok := hashes[imageID]; ok {
		return hash, nil
	}

	image, err := r.store.GetImage(ctx, imageID)
	if err != nil {
		return "", err
	}
	hashes[imageID] = image.ContentHash
	return image.ContentHash, nil
}

func (r *Reconciler) skip(report *Report, location models.Location, err error) {
	r.log.Warn("Skipped location '%s' of image %d: %v", location.FilePath, location.ImageID, err)
	report.Skipped++
	report.Errors = append(report.Errors, fmt.Errorf("%s: %w", location.FilePath, err))
}
