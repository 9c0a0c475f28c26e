package catalog

import (
	"context"

	"github.com/mwantia/photocat/pkg/scan"
)

// RescanReport summarizes how scan results were applied to the catalog
type RescanReport struct {
	Scanned  int
	Added    int
	Imported int
	Ignored  int
	Failed   int
}

// Rescan walks root in a background scanner and applies every result on the
// calling goroutine. Files with known hashes become additional locations;
// unknown files are imported when importNew is set.
func (s *Service) Rescan(ctx context.Context, root string, importNew bool) (RescanReport, error) {
	report := RescanReport{}

	known, err := s.store.KnownHashes(ctx)
	if err != nil {
		return report, err
	}

	scanner := scan.NewScanner(s.fs, s.hasher)
	results := scanner.Start(ctx, root, known)

	// Images created during this scan, so repeated bytes become locations
	created := make(map[string]uint)

	for result := range results {
		if result.Err != nil {
			s.log.Warn("Failed to scan '%s': %v", result.Path, result.Err)
			report.Failed++
			continue
		}
		report.Scanned++

		imageID := result.ImageID
		if imageID == 0 {
			imageID = created[result.Hash]
		}

		if imageID != 0 {
			if err := s.store.AddLocation(ctx, imageID, result.Path, s.InProject(result.Path)); err != nil {
				s.log.Warn("Failed to record location '%s': %v", result.Path, err)
				report.Failed++
				continue
			}
			report.Added++
			continue
		}

		if !importNew {
			report.Ignored++
			continue
		}

		info, err := s.fs.Stat(result.Path)
		if err != nil {
			s.log.Warn("Failed to stat '%s': %v", result.Path, err)
			report.Failed++
			continue
		}

		imported, err := s.importHashed(ctx, result.Path, result.Hash, info.Size())
		if err != nil {
			s.log.Warn("Failed to import '%s': %v", result.Path, err)
			report.Failed++
			continue
		}
		created[result.Hash] = imported.Image.ID
		report.Imported++
	}

	s.log.Info("Scanned %d files under '%s': %d locations added, %d imported, %d ignored, %d failed",
		report.Scanned, root, report.Added, report.Imported, report.Ignored, report.Failed)
	return report, ctx.Err()
}
