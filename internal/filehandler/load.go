// Package filehandler moves images across the process boundary: loading a
// source image from disk into its encoded form, saving generated images and
// thumbnails, and exporting the session history as a compressed archive.
package filehandler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/gemini-canvas-cli/internal/dataurl"
	"github.com/fpang/gemini-canvas-cli/internal/workflow"
	"github.com/rs/zerolog/log"
)

// MaxSourceImageBytes caps the size of a source image read from disk.
const MaxSourceImageBytes = 20 << 20 // 20 MB

// LoadSourceImage reads an image file from disk and converts it into the
// encoded source-image form the generation workflow consumes.
func LoadSourceImage(path string) (*workflow.SourceImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not an image", path)
	}
	if info.Size() > MaxSourceImageBytes {
		return nil, fmt.Errorf("image is %d bytes; the limit is %d", info.Size(), MaxSourceImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%s is not an image (detected %s)", path, mediaType)
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	log.Debug().
		Str("path", path).
		Str("media_type", mediaType).
		Int64("bytes", info.Size()).
		Msg("Loaded source image")

	return &workflow.SourceImage{
		EncodedBytes: encoded,
		MediaType:    mediaType,
		DisplayName:  filepath.Base(path),
		PreviewRef:   dataurl.Encode(mediaType, encoded),
	}, nil
}
