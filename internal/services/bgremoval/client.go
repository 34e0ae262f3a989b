package bgremoval

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
	"marketbridge/internal/models"
)

var ErrNotConfigured = errors.New("background removal endpoint not configured")

const maxResponseBytes = 25 << 20

// Client calls an HTTP background removal service. The service accepts
// {"image_url": ...} and answers either with JSON pointing at the result or
// with the image bytes themselves.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(cfg *config.Config, logger *logger.Logger) *Client {
	return &Client{
		endpoint: cfg.BackgroundRemovalURL,
		apiKey:   cfg.BackgroundRemovalAPIKey,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		logger: logger,
	}
}

type request struct {
	ImageURL string `json:"image_url"`
}

type response struct {
	URL         string `json:"url"`
	ResultURL   string `json:"result_url"`
	ImageBase64 string `json:"image_base64"`
	MIMEType    string `json:"mime_type"`
	Error       string `json:"error"`
}

// RemoveBackground returns a reference to the cleaned image.
func (c *Client) RemoveBackground(ctx context.Context, imageURL string) (models.ImageRef, error) {
	if c.endpoint == "" {
		return models.ImageRef{}, ErrNotConfigured
	}

	body, err := json.Marshal(request{ImageURL: imageURL})
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.ImageRef{}, fmt.Errorf("background removal error %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "image/") {
		if len(data) == 0 {
			return models.ImageRef{}, fmt.Errorf("empty image body")
		}
		c.logger.Debug("Background removed for %s (%d bytes inline)", imageURL, len(data))
		return models.ImageRef{Data: data, MIMEType: mediaType}, nil
	}

	return parseJSON(data)
}

func parseJSON(data []byte) (models.ImageRef, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return models.ImageRef{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if r.Error != "" {
		return models.ImageRef{}, fmt.Errorf("background removal failed: %s", r.Error)
	}

	switch {
	case r.URL != "" || r.ResultURL != "":
		u := r.URL
		if u == "" {
			u = r.ResultURL
		}
		if ref, ok := models.ParseDataURI(u); ok {
			return ref, nil
		}
		return models.URLRef(u), nil
	case r.ImageBase64 != "":
		if ref, ok := models.ParseDataURI(r.ImageBase64); ok {
			return ref, nil
		}
		raw, err := base64.StdEncoding.DecodeString(r.ImageBase64)
		if err != nil {
			return models.ImageRef{}, fmt.Errorf("invalid image_base64: %w", err)
		}
		mt := r.MIMEType
		if mt == "" {
			mt = http.DetectContentType(raw)
		}
		return models.ImageRef{Data: raw, MIMEType: mt}, nil
	}
	return models.ImageRef{}, fmt.Errorf("response carries no image")
}

// Ping checks that the service answers at all.
func (c *Client) Ping(ctx context.Context) error {
	if c.endpoint == "" {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, c.endpoint, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("background removal unreachable: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("background removal returned status %d", resp.StatusCode)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
