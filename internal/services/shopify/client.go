package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
)

// APIError is a non-2xx answer from the Admin API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTemporary classifies err as retryable: throttling, server errors and
// network timeouts.
func IsTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

type Client struct {
	shopDomain  string
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *logger.Logger
}

func NewClient(cfg *config.Config, logger *logger.Logger) *Client {
	version := cfg.ShopifyAPIVersion
	if version == "" {
		version = "2024-10"
	}
	domain := cfg.ShopifyShopDomain
	root := domain
	switch {
	case strings.HasPrefix(domain, "http://"), strings.HasPrefix(domain, "https://"):
		domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	case strings.Contains(domain, "."):
		root = "https://" + domain
	default:
		domain = domain + ".myshopify.com"
		root = "https://" + domain
	}

	return &Client{
		shopDomain:  strings.TrimRight(domain, "/"),
		baseURL:     fmt.Sprintf("%s/admin/api/%s", strings.TrimRight(root, "/"), version),
		accessToken: cfg.ShopifyAccessToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// ShopDomain is the host the storefront is served from.
func (c *Client) ShopDomain() string {
	return c.shopDomain
}

// CreateProduct creates a product with its variants and returns what the
// store assigned, including variant IDs and the handle.
func (c *Client) CreateProduct(ctx context.Context, input *ProductInput) (*Product, error) {
	var resp struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/products.json", map[string]interface{}{"product": input}, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

// CreateImage attaches one image to a product.
func (c *Client) CreateImage(ctx context.Context, productID int64, input *ImageInput) (*Image, error) {
	var resp struct {
		Image Image `json:"image"`
	}
	path := fmt.Sprintf("/products/%d/images.json", productID)
	if err := c.do(ctx, http.MethodPost, path, map[string]interface{}{"image": input}, &resp); err != nil {
		return nil, err
	}
	return &resp.Image, nil
}

// CreateMetafield writes one product metafield.
func (c *Client) CreateMetafield(ctx context.Context, productID int64, m *Metafield) (*Metafield, error) {
	var resp struct {
		Metafield Metafield `json:"metafield"`
	}
	path := fmt.Sprintf("/products/%d/metafields.json", productID)
	if err := c.do(ctx, http.MethodPost, path, map[string]interface{}{"metafield": m}, &resp); err != nil {
		return nil, err
	}
	return &resp.Metafield, nil
}

// SetInventoryLevel sets the available quantity of an inventory item at a
// location.
func (c *Client) SetInventoryLevel(ctx context.Context, level InventoryLevel) error {
	return c.do(ctx, http.MethodPost, "/inventory_levels/set.json", level, nil)
}

// GetShopInfo fetches shop information
func (c *Client) GetShopInfo(ctx context.Context) (*Shop, error) {
	var resp struct {
		Shop Shop `json:"shop"`
	}
	if err := c.do(ctx, http.MethodGet, "/shop.json", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Shop, nil
}

// Ping verifies the access token against the shop endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetShopInfo(ctx)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
