package filehandler

import (
	"archive/tar"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fpang/gemini-canvas-cli/internal/dataurl"
	"github.com/fpang/gemini-canvas-cli/internal/workflow"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// exportManifest describes the archive contents, written as manifest.json
// at the head of the archive.
type exportManifest struct {
	ExportedAt string              `json:"exportedAt"`
	Count      int                 `json:"count"`
	Entries    []exportAttestation `json:"entries"`
}

// exportAttestation is one history entry's metadata, without the payload.
type exportAttestation struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	CreatedAt string `json:"createdAt"`
}

// ExportHistory writes the session history as a zstd-compressed tar archive
// at outPath: a manifest.json followed by every decodable image, newest
// first. Entries whose reference cannot be decoded are skipped with a
// warning rather than failing the whole export.
func ExportHistory(entries []workflow.HistoryEntry, outPath string) error {
	if len(entries) == 0 {
		return fmt.Errorf("history is empty; nothing to export")
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer file.Close()

	zw, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()

	manifest := exportManifest{
		ExportedAt: time.Now().Format(time.RFC3339),
		Count:      len(entries),
	}
	for _, entry := range entries {
		manifest.Entries = append(manifest.Entries, exportAttestation{
			ID:        entry.ID,
			FileName:  entry.FileName,
			CreatedAt: entry.CreatedAt,
		})
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeTarFile(tw, "manifest.json", manifestData); err != nil {
		return err
	}

	written := 0
	for i, entry := range entries {
		mediaType, encoded, err := dataurl.Decompose(entry.ImageRef)
		if err != nil {
			log.Warn().Err(err).Str("id", entry.ID).Msg("Skipping undecodable history entry")
			continue
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			log.Warn().Err(err).Str("id", entry.ID).Msg("Skipping history entry with bad payload")
			continue
		}

		name := fmt.Sprintf("%03d-%s", i+1, ensureExtension(entry.FileName, mediaType))
		if err := writeTarFile(tw, name, data); err != nil {
			return err
		}
		written++
	}

	log.Info().Str("path", outPath).Int("images", written).Msg("Exported session history")
	return nil
}

func writeTarFile(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write archive header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}
