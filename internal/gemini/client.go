// Package gemini is a thin client for the Gemini generateContent REST
// endpoint, plus helpers for extracting JSON from model output.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultAPIBase is the Generative Language API origin.
const defaultAPIBase = "https://generativelanguage.googleapis.com"

// defaultModel is the model used for all analysis prompts.
const defaultModel = "gemini-2.5-flash"

// maxErrorBodyBytes bounds upstream error bodies attached to errors.
const maxErrorBodyBytes = 2048

// Client calls the Gemini REST API.
type Client struct {
	// BaseURL is the API origin; overridable in tests.
	BaseURL string
	// HTTPClient performs requests; overridable in tests.
	HTTPClient *http.Client
	// Model is the model name used in the request path.
	Model string

	apiKey string
}

// New constructs a Client. It fails when the API key is absent so handlers
// can refuse to start the operation.
func New(apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	return &Client{
		BaseURL:    defaultAPIBase,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Model:      defaultModel,
		apiKey:     apiKey,
	}, nil
}

// GenerateContent sends one prompt and returns the first candidate's text.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": prompt},
				},
			},
		},
	}
	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", errMarshal)
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.Model)
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if errReq != nil {
		return "", fmt.Errorf("gemini: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, errDo := c.HTTPClient.Do(req)
	if errDo != nil {
		return "", fmt.Errorf("gemini: request: %w", errDo)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("gemini: generate failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	// response maps the candidate fields we consume.
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(&response); errDecode != nil {
		return "", fmt.Errorf("gemini: decode response: %w", errDecode)
	}

	var builder strings.Builder
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			builder.WriteString(part.Text)
		}
		break
	}
	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: empty response text")
	}
	return text, nil
}
