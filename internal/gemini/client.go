// Package gemini implements the generation service against the Gemini
// generateContent REST endpoint. The REST surface is used instead of the Go
// SDK because image output requires the responseModalities generation
// config, and carrying the payload as base64 end to end avoids a decode and
// re-encode on every generation.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fpang/gemini-canvas-cli/internal/workflow"
	"github.com/rs/zerolog/log"
)

// defaultBaseURL is the Gemini REST API base URL.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls a Gemini image model via the REST API. It implements
// workflow.Service.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a generation client for the given model. The API key
// must be non-empty; a missing key is a configuration error surfaced here
// rather than as a cryptic HTTP 403 later.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}
	if model == "" {
		model = DefaultModelName
	}

	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Image generation can take 10-30s
		},
	}, nil
}

// Model returns the model ID this client targets.
func (c *Client) Model() string {
	return c.model
}

// --- REST API request/response types ---

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string    `json:"text,omitempty"`
	InlineData *blobData `json:"inlineData,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type blobData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Create generates an image from the composed instruction alone.
func (c *Client) Create(ctx context.Context, instruction string) (*workflow.Result, error) {
	return c.generate(ctx, nil, instruction)
}

// Edit transforms the source image guided by the composed instruction.
func (c *Client) Edit(ctx context.Context, source *workflow.SourceImage, instruction string) (*workflow.Result, error) {
	if source == nil {
		return nil, fmt.Errorf("edit requires a source image")
	}
	return c.generate(ctx, source, instruction)
}

// generate sends one generateContent call and extracts the image payload
// from the first candidate that carries inline data.
func (c *Client) generate(ctx context.Context, source *workflow.SourceImage, instruction string) (*workflow.Result, error) {
	startTime := time.Now()
	log.Info().
		Str("model", c.model).
		Bool("has_source", source != nil).
		Int("instruction_length", len(instruction)).
		Msg("Sending generation request to Gemini")

	// Build request: optional source image first, then the instruction.
	var parts []part
	if source != nil {
		parts = append(parts, part{
			InlineData: &blobData{
				MIMEType: source.MediaType,
				Data:     source.EncodedBytes,
			},
		})
	}
	parts = append(parts, part{Text: instruction})

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Gemini generation API returned error")
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateString(string(respBody), 200))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if genResp.Error != nil {
		return nil, fmt.Errorf("API error: %s (code: %d)", genResp.Error.Message, genResp.Error.Code)
	}

	// Extract the image; any text parts only feed the no-image error message.
	var text string
	for _, cand := range genResp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil {
				log.Info().
					Str("output_mime", p.InlineData.MIMEType).
					Int("output_base64_len", len(p.InlineData.Data)).
					Dur("duration", time.Since(startTime)).
					Msg("Generation complete")
				return &workflow.Result{
					EncodedBytes: p.InlineData.Data,
					MediaType:    p.InlineData.MIMEType,
				}, nil
			}
			text += p.Text
		}
	}

	return nil, fmt.Errorf("no image returned in response (text: %s)", truncateString(text, 200))
}

// truncateString shortens s for log/error output.
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
