package marketplace

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
	"marketbridge/internal/models"
)

const signMethod = "hmac-sha256"

type Connector struct {
	baseURL    string
	appKey     string
	appSecret  string
	method     string
	httpClient *http.Client
	logger     *logger.Logger
	now        func() time.Time
}

func New(cfg *config.Config, logger *logger.Logger) *Connector {
	return &Connector{
		baseURL:   cfg.MarketplaceBaseURL,
		appKey:    cfg.MarketplaceAppKey,
		appSecret: cfg.MarketplaceAppSecret,
		method:    cfg.MarketplaceMethod,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// FetchListing fetches an item and normalizes whichever response shape the
// gateway returned into a canonical Listing.
func (c *Connector) FetchListing(ctx context.Context, itemID string) (*models.Listing, error) {
	raw, err := c.call(ctx, map[string]string{"num_iid": itemID})
	if err != nil {
		return nil, err
	}

	listing := Normalize(raw)
	if listing == nil || listing.Title == "" {
		return nil, fmt.Errorf("item %s: %w", itemID, models.ErrSourceNotFound)
	}
	if listing.ItemID == "" {
		listing.ItemID = itemID
	}

	c.logger.Debug("Fetched listing %s: %d images, %d description images, %d skus",
		itemID, len(listing.Images), len(listing.DescriptionImages), len(listing.SKUs))

	return listing, nil
}

// Ping performs a signed request for a well-known item to verify credentials.
func (c *Connector) Ping(ctx context.Context) error {
	_, err := c.call(ctx, map[string]string{"num_iid": "1"})
	return err
}

func (c *Connector) call(ctx context.Context, extra map[string]string) (map[string]interface{}, error) {
	params := map[string]string{
		"app_key":     c.appKey,
		"method":      c.method,
		"timestamp":   c.now().Format("2006-01-02 15:04:05"),
		"format":      "json",
		"v":           "2.0",
		"sign_method": signMethod,
	}
	for k, v := range extra {
		params[k] = v
	}
	params["sign"] = Sign(params, c.appSecret)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, models.ErrSourceNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if errResp, ok := raw["error_response"].(map[string]interface{}); ok {
		msg := firstString(errResp, "sub_msg", "msg")
		code := firstString(errResp, "sub_code", "code")
		if isNotFoundCode(code, msg) {
			return nil, fmt.Errorf("%s: %w", msg, models.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("marketplace error %s: %s", code, msg)
	}

	return raw, nil
}

func isNotFoundCode(code, msg string) bool {
	lc := strings.ToLower(code + " " + msg)
	return strings.Contains(lc, "not-exist") ||
		strings.Contains(lc, "not_found") ||
		strings.Contains(lc, "not found") ||
		strings.Contains(lc, "item-not-exist")
}

// Sign computes the request signature: parameters sorted by key,
// concatenated as key+value, HMAC-SHA256 with the app secret, upper hex.
// The "sign" parameter itself is excluded.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
