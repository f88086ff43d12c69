package motivation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GeminiClient calls a Gemini-style generateContent endpoint.
type GeminiClient struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

type GeminiOption func(*GeminiClient)

func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) {
		g.httpClient = c
	}
}

func NewGeminiClient(apiKey, apiURL string, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured returns true if both key and endpoint are set.
func (g *GeminiClient) Configured() bool {
	return g.apiKey != "" && g.apiURL != ""
}

type generateRequest struct {
	Contents         []content      `json:"contents"`
	GenerationConfig generateConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the first candidate's text.
func (g *GeminiClient) Generate(prompt string) (string, error) {
	if !g.Configured() {
		return "", fmt.Errorf("gemini client not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generateConfig{
			Temperature:     0.7,
			MaxOutputTokens: 500,
			TopP:            0.9,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", g.apiURL+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("gemini API error: status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty gemini response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
