// Package gemini is the cloud transport adapter: a REST client for the
// Generative Language API with typed error classification and forward-only
// streaming.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iceiceblakey1/atelier/internal/prompt"
)

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout   = 120 * time.Second
	streamingTimeout = 300 * time.Second
)

// Fixed vendor model identifiers, one family per feature.
const (
	ModelChat    = "gemini-3-pro-preview"
	ModelVision  = "gemini-3-pro-preview"
	ModelEnhance = "gemini-3-flash-preview"
	ModelImage   = "gemini-2.5-flash-image"
	ModelSpeech  = "gemini-2.5-flash-preview-tts"
)

// Client communicates with the Generative Language API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 0, // per-request timeouts via context
		},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL
// (for testing).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
}

// Generate performs a single-shot generation call and returns the full
// response once the whole payload is available.
func (c *Client) Generate(ctx context.Context, model string, p prompt.Request) (*GenerateResponse, error) {
	body, err := json.Marshal(fromPrompt(p))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

// Stream performs a streaming generation call, invoking fn once per
// non-empty text fragment in arrival order. It returns when the upstream
// closes the stream, when fn returns an error, or when ctx is canceled.
func (c *Client) Stream(ctx context.Context, model string, p prompt.Request, fn func(text string) error) error {
	body, err := json.Marshal(fromPrompt(p))
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, streamingTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return classifyStatus(resp.StatusCode, respBody)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk GenerateResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("decoding stream event: %w", err)
		}
		if text := chunk.FirstText(); text != "" {
			if err := fn(text); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}
