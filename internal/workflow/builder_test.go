package workflow

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildRequestRejectsWhitespacePrompt(t *testing.T) {
	tests := []string{"", "   ", "\t\n  "}

	for _, prompt := range tests {
		_, err := BuildRequest(prompt, "", AspectSquare, nil)
		if err == nil {
			t.Errorf("expected validation error for prompt %q", prompt)
			continue
		}
		var wErr *WorkflowError
		if !errors.As(err, &wErr) || wErr.Kind != ErrKindValidation {
			t.Errorf("expected validation error kind for prompt %q, got %v", prompt, err)
		}
	}
}

func TestBuildRequestCreateMode(t *testing.T) {
	req, err := BuildRequest("a red lighthouse at dusk", "", AspectLandscape, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Mode != ModeCreate {
		t.Errorf("expected create mode, got %v", req.Mode)
	}
	if req.Source != nil {
		t.Error("expected no source image in create mode")
	}
	if req.AspectRatio != AspectLandscape {
		t.Errorf("expected 16:9, got %s", req.AspectRatio)
	}
}

func TestBuildRequestEditMode(t *testing.T) {
	src := &SourceImage{EncodedBytes: "AAAA", MediaType: "image/png", DisplayName: "photo.png"}

	req, err := BuildRequest("make it snow", "", AspectSquare, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Mode != ModeEdit {
		t.Errorf("expected edit mode, got %v", req.Mode)
	}
	if req.Source != src {
		t.Error("expected source image to be carried into the request")
	}
}

func TestBuildRequestTrimsPrompt(t *testing.T) {
	req, err := BuildRequest("  a quiet harbor  ", "  fog  ", AspectSquare, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Prompt != "a quiet harbor" {
		t.Errorf("expected trimmed prompt, got %q", req.Prompt)
	}
	if req.NegativePrompt != "fog" {
		t.Errorf("expected trimmed negative prompt, got %q", req.NegativePrompt)
	}
}

func TestInstructionComposition(t *testing.T) {
	req, err := BuildRequest("a quiet harbor", "boats", AspectPortrait, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "a quiet harbor. Generate the image in a 9:16 aspect ratio. " +
		"Negative prompt: boats, blurry, ugly, distorted, text, watermark, low quality, bad anatomy. " +
		"Ensure the resulting image is high quality and photorealistic."
	if req.Instruction != want {
		t.Errorf("instruction mismatch:\n got: %s\nwant: %s", req.Instruction, want)
	}
}

func TestInstructionWithEmptyNegativePrompt(t *testing.T) {
	req, err := BuildRequest("a quiet harbor", "", AspectSquare, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(req.Instruction, "Negative prompt: blurry, ugly,") {
		t.Errorf("expected baseline negatives only, got: %s", req.Instruction)
	}
	if strings.Contains(req.Instruction, "Negative prompt: ,") {
		t.Errorf("empty negative prompt leaked into instruction: %s", req.Instruction)
	}
}

func TestBuildRequestDeterministic(t *testing.T) {
	src := &SourceImage{EncodedBytes: "AAAA", MediaType: "image/png", DisplayName: "photo.png"}

	first, err := BuildRequest("same input", "same negative", AspectLandscape, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildRequest("same input", "same negative", AspectLandscape, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("expected identical requests, got %+v and %+v", first, second)
	}
}

func TestParseAspectRatio(t *testing.T) {
	for _, valid := range []string{"1:1", "16:9", "9:16"} {
		if _, ok := ParseAspectRatio(valid); !ok {
			t.Errorf("expected %q to parse", valid)
		}
	}
	for _, invalid := range []string{"", "4:3", "square", "1:1 "} {
		if _, ok := ParseAspectRatio(invalid); ok {
			t.Errorf("expected %q to be rejected", invalid)
		}
	}
}
