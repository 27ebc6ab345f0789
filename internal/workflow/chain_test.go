package workflow

import (
	"errors"
	"testing"
)

func TestChainSourceDecomposesGeneratedImage(t *testing.T) {
	src, err := chainSource("data:image/png;base64,AAAA", "photo.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.MediaType != "image/png" {
		t.Errorf("expected media type image/png, got %q", src.MediaType)
	}
	if src.EncodedBytes != "AAAA" {
		t.Errorf("expected payload AAAA, got %q", src.EncodedBytes)
	}
	if src.DisplayName != "extended-photo.png" {
		t.Errorf("expected display name extended-photo.png, got %q", src.DisplayName)
	}
	if src.PreviewRef != "data:image/png;base64,AAAA" {
		t.Errorf("expected preview to reuse the generated reference, got %q", src.PreviewRef)
	}
}

func TestChainSourceMissingComma(t *testing.T) {
	_, err := chainSource("data:image/png;base64AAAA", "photo.png")
	if err == nil {
		t.Fatal("expected format error")
	}

	var wErr *WorkflowError
	if !errors.As(err, &wErr) || wErr.Kind != ErrKindFormat {
		t.Errorf("expected format error kind, got %v", err)
	}
}

func TestChainSourceUnrecognizedHeader(t *testing.T) {
	_, err := chainSource("image/png;base64,AAAA", "photo.png")
	if err == nil {
		t.Fatal("expected format error for missing data: prefix")
	}
}
