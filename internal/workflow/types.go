// Package workflow implements the generation workflow engine: request
// building, the daily-quota-gated orchestration state machine, the session
// history ledger, and the extend (chain) operation that turns a generated
// image back into the next input image.
package workflow

// Mode selects between generating a new image from a prompt alone and
// editing a supplied source image.
type Mode int

const (
	// ModeCreate generates an image from the prompt alone.
	ModeCreate Mode = iota
	// ModeEdit transforms a source image guided by the prompt.
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// AspectRatio is the requested output shape, passed verbatim to the service.
type AspectRatio string

const (
	// AspectSquare is the default output shape.
	AspectSquare AspectRatio = "1:1"
	// AspectLandscape is a 16:9 widescreen output.
	AspectLandscape AspectRatio = "16:9"
	// AspectPortrait is a 9:16 vertical output.
	AspectPortrait AspectRatio = "9:16"
)

// ParseAspectRatio validates a user-supplied aspect ratio string.
func ParseAspectRatio(s string) (AspectRatio, bool) {
	switch AspectRatio(s) {
	case AspectSquare, AspectLandscape, AspectPortrait:
		return AspectRatio(s), true
	}
	return "", false
}

// SourceImage is the active input image for edit-mode generation. It is
// replaced wholesale on upload, reset, or chaining, never mutated.
type SourceImage struct {
	// EncodedBytes is the base64-encoded image payload.
	EncodedBytes string
	// MediaType is the image MIME type (e.g. "image/png").
	MediaType string
	// DisplayName is the user-visible name, used to derive output file names.
	DisplayName string
	// PreviewRef is a displayable data URL for this image.
	PreviewRef string
}

// Request is a fully assembled generation request. Instruction is the
// composed outbound text the service receives; the raw prompt fields are
// retained so a retry can be compared against the original.
type Request struct {
	Mode           Mode
	Prompt         string
	NegativePrompt string
	AspectRatio    AspectRatio
	Source         *SourceImage
	Instruction    string
}

// Result is the generation service's response: a base64 payload and its
// media type, exactly as returned over the wire.
type Result struct {
	EncodedBytes string
	MediaType    string
}

// HistoryEntry records one successful generation. Entries are immutable
// after creation.
type HistoryEntry struct {
	// ID is a unique time-derived identifier.
	ID string
	// ImageRef is the displayable data URL of the generated image.
	ImageRef string
	// FileName is the suggested file name for saving this image.
	FileName string
	// CreatedAt is a human-readable timestamp.
	CreatedAt string
}
