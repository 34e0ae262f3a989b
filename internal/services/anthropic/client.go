package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
)

const apiVersion = "2023-06-01"

var ErrNotConfigured = errors.New("anthropic API key not configured")

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(cfg *config.Config, logger *logger.Logger) *Client {
	return &Client{
		apiKey:    cfg.AnthropicAPIKey,
		baseURL:   strings.TrimRight(cfg.AnthropicBaseURL, "/"),
		model:     cfg.AnthropicModel,
		maxTokens: cfg.AnthropicMaxTokens,
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
		},
		logger: logger,
	}
}

// Messages API structures
type Request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Messages    []Message `json:"messages"`
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

type ImageSource struct {
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

type Response struct {
	ID         string         `json:"id"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Text builds a text content block.
func Text(s string) ContentBlock {
	return ContentBlock{Type: "text", Text: s}
}

// ImageURL builds an image block the API fetches itself.
func ImageURL(url string) ContentBlock {
	return ContentBlock{Type: "image", Source: &ImageSource{Type: "url", URL: url}}
}

// ImageData builds an inline base64 image block.
func ImageData(mediaType string, data []byte) ContentBlock {
	return ContentBlock{Type: "image", Source: &ImageSource{
		Type:      "base64",
		MediaType: mediaType,
		Data:      base64.StdEncoding.EncodeToString(data),
	}}
}

// Complete sends one user turn and returns the concatenated text reply.
func (c *Client) Complete(ctx context.Context, system string, blocks ...ContentBlock) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	temperature := 0.2
	request := Request{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Temperature: &temperature,
		Messages: []Message{
			{Role: "user", Content: blocks},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
			return "", fmt.Errorf("anthropic API error %d (%s): %s", resp.StatusCode, ae.Error.Type, ae.Error.Message)
		}
		return "", fmt.Errorf("anthropic API error %d: %s", resp.StatusCode, string(body))
	}

	var msgResp Response
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var out strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("no text in anthropic response")
	}

	c.logger.Debug("Anthropic reply %s (%s, %d chars)", msgResp.ID, msgResp.StopReason, out.Len())
	return out.String(), nil
}

// Ping sends a minimal prompt to verify credentials and model access.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Complete(ctx, "", Text("Reply with OK."))
	return err
}

// ExtractJSON returns the first JSON object or array embedded in a model
// reply, tolerating markdown fences and leading prose.
func ExtractJSON(reply string) (string, error) {
	s := strings.TrimSpace(reply)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = strings.TrimSpace(rest[:j])
		}
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("no JSON found in reply")
	}
	open := s[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON in reply")
}

// DecodeJSON extracts and unmarshals the JSON payload of a reply.
func DecodeJSON(reply string, v interface{}) error {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to parse JSON reply: %w", err)
	}
	return nil
}
