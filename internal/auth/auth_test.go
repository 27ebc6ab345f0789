package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"
	t.Setenv("GEMINI_API_KEY", testKey)

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	// Point HOME at a temporary directory without credentials.
	t.Setenv("HOME", t.TempDir())

	_, err := GetAPIKey()
	if err == nil {
		t.Error("expected error when no API key source available")
	}
}

func TestGetCredentialPath(t *testing.T) {
	path, err := getCredentialPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".canvas-cli", "credentials.gpg")

	if path != expected {
		t.Errorf("expected path %q, got %q", expected, path)
	}
}

func TestGetFromGPGFileNotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := getFromGPG()
	if err == nil {
		t.Error("expected error when credentials file does not exist")
	}
}

func TestClassifyErrorPatterns(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want ValidationErrorType
	}{
		{"invalid key", "API key not valid. Please pass a valid API key.", ErrTypeInvalidKey},
		{"permission denied", "rpc error: permission denied", ErrTypeInvalidKey},
		{"quota", "resource exhausted: quota exceeded", ErrTypeQuotaExceeded},
		{"network", "dial tcp: no such host", ErrTypeNetworkError},
		{"unknown", "something else entirely", ErrTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(errString(tt.msg))
			if got.Type != tt.want {
				t.Errorf("expected type %d, got %d", tt.want, got.Type)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
