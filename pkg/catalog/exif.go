package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mwantia/photocat/pkg/db/models"
	"github.com/rwcarlsen/goexif/exif"
)

var exifStrings = map[exif.FieldName]string{
	exif.Make:      "camera_make",
	exif.Model:     "camera_model",
	exif.LensModel: "lens_model",
}

var exifInts = map[exif.FieldName]string{
	exif.PixelXDimension: "width",
	exif.PixelYDimension: "height",
	exif.ISOSpeedRatings: "iso",
}

// extractMetadata collects file facts and, when present, EXIF fields.
// Missing or unreadable EXIF data is not an error.
func (s *Service) extractMetadata(path string, size int64) models.Metadata {
	metadata := models.Metadata{
		"original_name": filepath.Base(path),
		"size_bytes":    size,
	}

	f, err := s.fs.Open(path)
	if err != nil {
		s.log.Debug("Unable to open '%s' for EXIF extraction: %v", path, err)
		return metadata
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		s.log.Debug("No EXIF data in '%s': %v", path, err)
		return metadata
	}

	if captured, err := x.DateTime(); err == nil {
		metadata["captured_at"] = captured.Format(time.RFC3339)
	}

	for field, key := range exifStrings {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		if value, err := tag.StringVal(); err == nil {
			if value = strings.TrimSpace(strings.Trim(value, "\x00")); value != "" {
				metadata[key] = value
			}
		}
	}

	for field, key := range exifInts {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		if value, err := tag.Int(0); err == nil {
			metadata[key] = value
		}
	}

	if lat, long, err := x.LatLong(); err == nil {
		metadata["gps_latitude"] = lat
		metadata["gps_longitude"] = long
	}

	return metadata
}
