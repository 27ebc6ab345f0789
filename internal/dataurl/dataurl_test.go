package dataurl

import "testing"

func TestEncode(t *testing.T) {
	got := Encode("image/png", "AAAA")
	want := "data:image/png;base64,AAAA"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDecompose(t *testing.T) {
	mediaType, encoded, err := Decompose("data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mediaType != "image/png" {
		t.Errorf("expected media type image/png, got %q", mediaType)
	}
	if encoded != "AAAA" {
		t.Errorf("expected payload AAAA, got %q", encoded)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	ref := Encode("image/jpeg", "c29tZSBieXRlcw==")
	mediaType, encoded, err := Decompose(ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mediaType != "image/jpeg" || encoded != "c29tZSBieXRlcw==" {
		t.Errorf("round trip mismatch: %q %q", mediaType, encoded)
	}
}

func TestDecomposeMalformed(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"missing comma", "data:image/png;base64AAAA"},
		{"missing data prefix", "image/png;base64,AAAA"},
		{"missing semicolon", "data:image/png,AAAA"},
		{"empty media type", "data:;base64,AAAA"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decompose(tt.ref); err == nil {
				t.Errorf("expected error for %q", tt.ref)
			}
		})
	}
}

func TestDecomposePayloadWithCommas(t *testing.T) {
	// Only the first comma delimits header from payload.
	mediaType, encoded, err := Decompose("data:image/png;base64,AA,BB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mediaType != "image/png" || encoded != "AA,BB" {
		t.Errorf("unexpected decomposition: %q %q", mediaType, encoded)
	}
}
