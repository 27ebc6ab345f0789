package filehandler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ImageInfo is the EXIF summary shown when a source image is loaded.
// Formats without EXIF (plain PNGs, screenshots) simply yield empty fields.
type ImageInfo struct {
	CameraMake  string
	CameraModel string
	DateTaken   time.Time
	HasDate     bool
	HasGPS      bool
}

// ExtractImageInfo reads EXIF metadata from an image file using the
// imagemeta library. Only metadata bytes are read, not the whole file.
func ExtractImageInfo(path string) (*ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	exifData, err := imagemeta.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	info := &ImageInfo{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		info.HasGPS = true
	}

	// Priority: DateTimeOriginal > CreateDate > ModifyDate
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		info.DateTaken = exifData.DateTimeOriginal()
		info.HasDate = true
	case !exifData.CreateDate().IsZero():
		info.DateTaken = exifData.CreateDate()
		info.HasDate = true
	case !exifData.ModifyDate().IsZero():
		info.DateTaken = exifData.ModifyDate()
		info.HasDate = true
	}

	log.Debug().
		Str("path", path).
		Bool("has_gps", info.HasGPS).
		Bool("has_date", info.HasDate).
		Msg("Image metadata extraction complete")

	return info, nil
}

// Summary renders the info as a short single line for the session console.
func (m *ImageInfo) Summary() string {
	var parts []string
	if m.CameraMake != "" || m.CameraModel != "" {
		parts = append(parts, strings.TrimSpace(m.CameraMake+" "+m.CameraModel))
	}
	if m.HasDate {
		parts = append(parts, m.DateTaken.Format("Jan 2, 2006"))
	}
	if m.HasGPS {
		parts = append(parts, "GPS tagged")
	}
	if len(parts) == 0 {
		return "no metadata"
	}
	return strings.Join(parts, " · ")
}
