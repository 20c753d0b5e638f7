// Package ai calls the external generation service and interprets its
// replies. The service is not trusted to honor the structured-reply
// contract, so interpretation is best-effort and never fails outward.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	googleBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 120 * time.Second
)

// systemInstruction demands strict JSON conforming to the structured-reply
// schema. The extraction heuristic exists for when the model ignores it.
const systemInstruction = `You are an expert full-stack developer collaborating inside a shared workspace.

CRITICAL: You must respond with valid JSON only. No extra text, no markdown fencing, no malformed JSON.

Respond with an object of the form:
{"text": "<message for the room>", "fileTree": {"<path>": {"file": {"contents": "<file contents>"}}}}

The "fileTree" field is optional; include it only when the user asked for code. Use proper JSON escaping for quotes and newlines. Use simple file names like app.js or package.json.`

// Generator produces a raw text reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GoogleClient talks to the Gemini generateContent API.
type GoogleClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleClient builds a Gemini client. Empty model and baseURL fall back
// to defaults.
func NewGoogleClient(apiKey, model, baseURL string) *GoogleClient {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &GoogleClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type googlePart struct {
	Text string `json:"text,omitempty"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type googleRequest struct {
	Contents          []googleContent        `json:"contents"`
	SystemInstruction *googleContent         `json:"system_instruction,omitempty"`
	GenerationConfig  googleGenerationConfig `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

// Generate runs one generateContent request and returns the raw text reply.
// Failures here surface to the caller; nothing downstream of the router
// swallows them.
func (c *GoogleClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("google api key is not configured")
	}

	payload := googleRequest{
		Contents: []googleContent{
			{Role: "user", Parts: []googlePart{{Text: prompt}}},
		},
		SystemInstruction: &googleContent{Parts: []googlePart{{Text: systemInstruction}}},
		GenerationConfig: googleGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.4,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google request failed: %s", resp.Status)
	}

	var genResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", err
	}
	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from google provider")
	}

	var textParts []string
	for _, part := range genResp.Candidates[0].Content.Parts {
		textParts = append(textParts, part.Text)
	}
	return strings.Join(textParts, "\n"), nil
}
