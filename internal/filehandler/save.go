package filehandler

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for thumbnails
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/gemini-canvas-cli/internal/dataurl"
	"github.com/fpang/gemini-canvas-cli/internal/workflow"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// ThumbnailMaxDimension is the maximum width or height of a saved preview.
const ThumbnailMaxDimension = 256

// thumbnailQuality is the JPEG quality for preview encoding.
const thumbnailQuality = 85

// SaveEntry decodes a history entry's image reference and writes it under
// outputDir with the entry's file name, plus a small JPEG preview next to
// it. Returns the path of the saved image.
func SaveEntry(entry workflow.HistoryEntry, outputDir string) (string, error) {
	mediaType, encoded, err := dataurl.Decompose(entry.ImageRef)
	if err != nil {
		return "", fmt.Errorf("cannot save %s: %w", entry.FileName, err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("cannot decode %s: %w", entry.FileName, err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := ensureExtension(entry.FileName, mediaType)
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Saved generated image")

	// Preview is best effort; an undecodable format only costs the thumbnail.
	thumb, err := renderThumbnail(data, ThumbnailMaxDimension)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Skipping thumbnail")
		return path, nil
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	thumbPath := filepath.Join(outputDir, base+"-thumb.jpg")
	if err := os.WriteFile(thumbPath, thumb, 0o644); err != nil {
		log.Warn().Err(err).Str("path", thumbPath).Msg("Failed to write thumbnail")
	}

	return path, nil
}

// renderThumbnail downscales the image so its longer side is maxDim and
// encodes it as JPEG. Images already within bounds are re-encoded as-is.
func renderThumbnail(data []byte, maxDim int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > maxDim || height > maxDim {
		if width > height {
			height = height * maxDim / width
			width = maxDim
		} else {
			width = width * maxDim / height
			height = maxDim
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}

		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		src = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ensureExtension appends the extension implied by the media type when the
// file name has none.
func ensureExtension(name, mediaType string) string {
	if filepath.Ext(name) != "" {
		return name
	}
	switch mediaType {
	case "image/jpeg":
		return name + ".jpg"
	case "image/webp":
		return name + ".webp"
	default:
		return name + ".png"
	}
}
