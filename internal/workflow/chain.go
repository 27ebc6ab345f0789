package workflow

import (
	"github.com/fpang/gemini-canvas-cli/internal/dataurl"
)

// ContinuationPrompt replaces the user's prompt when a generated image is
// extended. It is a fixed instruction; the user never edits it.
const ContinuationPrompt = "Generate the next natural progression of this scene, " +
	"continuing seamlessly beyond the edge of the current frame. " +
	"Do not duplicate the existing image, do not repeat or overlap elements " +
	"already present, and do not produce a collage or side-by-side composition."

// chainSource decomposes a generated image reference into the source image
// for the next generation step. The new source reuses the generated image as
// its own preview, so no re-encoding happens. A reference that cannot be
// decomposed is a format error; the caller must leave its state untouched in
// that case.
func chainSource(generatedRef, originalName string) (*SourceImage, error) {
	mediaType, encoded, err := dataurl.Decompose(generatedRef)
	if err != nil {
		return nil, formatErr("cannot extend: generated image reference is malformed", err)
	}

	return &SourceImage{
		EncodedBytes: encoded,
		MediaType:    mediaType,
		DisplayName:  "extended-" + originalName,
		PreviewRef:   generatedRef,
	}, nil
}
