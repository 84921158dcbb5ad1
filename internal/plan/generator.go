package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pty0735/routinely/internal"
)

// DefaultGeminiURL is the generateContent endpoint the client posts to
// unless the config overrides it (tests point it at a local server).
const DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// Each failure mode is distinguishable to the caller; see errors.Is/As.
var (
	ErrMissingAPIKey     = errors.New("plan: gemini api key is not configured")
	ErrMalformedResponse = errors.New("plan: response has no candidate content")
	ErrEmptyPlan         = errors.New("plan: generated plan text is empty")
)

// StatusError reports a non-success HTTP status from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plan: gemini returned status %d", e.StatusCode)
}

type Generator interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (string, error)
}

// GeminiClient talks to the Gemini generateContent REST API. One request
// per call, no retries; the transport owns its timeout.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     internal.Logger
}

func NewGeminiClient(apiKey, baseURL string, logger internal.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Request/response envelope for generateContent.
type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) GeneratePlan(ctx context.Context, planReq PlanRequest) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	prompt := BuildPrompt(planReq)
	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("plan: encode request: %w", err)
	}

	url := g.baseURL + "?key=" + g.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("plan: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Errorf("plan: gemini request failed: %v", err)
		return "", fmt.Errorf("plan: request gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Errorf("plan: gemini returned %d: %s", resp.StatusCode, snippet)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("plan: decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ErrMalformedResponse
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPlan
	}
	return text, nil
}

var _ Generator = (*GeminiClient)(nil)
