package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
	"marketbridge/internal/models"
	"marketbridge/internal/services/shopify"
)

// fakeShop records every Admin API call in arrival order.
type fakeShop struct {
	t *testing.T

	mu         sync.Mutex
	calls      []string
	images     []shopify.ImageInput
	metafields []shopify.Metafield
	imageFails map[string]int
	attempts   map[string]int
}

func (f *fakeShop) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/admin/api/2024-10")
	switch {
	case path == "/products.json":
		f.calls = append(f.calls, "product")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"product":{"id":99,"handle":"relaxed-hoodie",
			"options":[{"name":"Size","position":1},{"name":"Color","position":2}],
			"variants":[
				{"id":1,"option1":"S","option2":"Gray","inventory_item_id":11},
				{"id":2,"option1":"M","option2":"Gray","inventory_item_id":12},
				{"id":3,"option1":"S","option2":"Black","inventory_item_id":13}
			]}}`))
	case path == "/products/99/images.json":
		var body struct {
			Image shopify.ImageInput `json:"image"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		key := body.Image.Src
		if key == "" {
			key = body.Image.Filename
		}
		f.attempts[key]++
		if f.imageFails[key] > 0 {
			f.imageFails[key]--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		f.calls = append(f.calls, "image")
		f.images = append(f.images, body.Image)
		_, _ = w.Write([]byte(`{"image":{"id":1}}`))
	case path == "/products/99/metafields.json":
		var body struct {
			Metafield shopify.Metafield `json:"metafield"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.calls = append(f.calls, "metafield")
		f.metafields = append(f.metafields, body.Metafield)
		_, _ = w.Write([]byte(`{"metafield":{"id":1}}`))
	case path == "/inventory_levels/set.json":
		f.calls = append(f.calls, "inventory")
		_, _ = w.Write([]byte(`{}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestPublisher(t *testing.T, shop *fakeShop) (*Publisher, func()) {
	srv := httptest.NewServer(shop)
	cfg := &config.Config{
		ShopifyShopDomain: srv.URL,
		UploadBatchSize:   2,
		UploadMaxAttempts: 3,
		UploadRetryDelay:  time.Millisecond,
	}
	return New(cfg, shopify.NewClient(cfg, logger.Nop()), logger.Nop()), srv.Close
}

func testProduct() *models.FinalProduct {
	return &models.FinalProduct{
		SourceItemID: "123",
		Title:        "Relaxed Hoodie",
		Variants: []models.TranslatedVariant{
			{Size: "S", Color: "Gray", Price: 28, Stock: 3},
			{Size: "M", Color: "Gray", Price: 28, Stock: 5},
			{Size: "S", Color: "Black", Price: 28, Stock: 1},
		},
		Images: []models.ProcessedImage{
			{OriginalURL: "https://x/shared.jpg", Processed: models.URLRef("https://x/shared.jpg"), Position: 1},
			{OriginalURL: "https://x/gray.jpg", Processed: models.URLRef("https://x/gray.jpg"), VariantColors: []string{"Gray"}, Position: 2},
			{OriginalURL: "https://x/both.jpg", Processed: models.URLRef("https://x/both.jpg"), VariantColors: []string{"Gray", "Black"}, Position: 3},
			{OriginalURL: "https://x/black.jpg", Processed: models.ImageRef{Data: []byte("png"), MIMEType: "image/png"}, VariantColors: []string{"Black"}, Position: 4},
		},
		Metadata: models.ProductMetadata{Gender: "women", Colors: []string{"Gray", "Black"}},
	}
}

func TestLinkedVariantIDs(t *testing.T) {
	ids := map[string][]int64{"Gray": {1, 2}, "Black": {3}}
	assert.Equal(t, []int64{1, 2, 3}, LinkedVariantIDs([]string{"Gray", "Black"}, ids))
	assert.Equal(t, []int64{3}, LinkedVariantIDs([]string{"Black", "Navy"}, ids))
	assert.Nil(t, LinkedVariantIDs(nil, ids))
}

func TestPublish(t *testing.T) {
	shop := &fakeShop{t: t, imageFails: map[string]int{}, attempts: map[string]int{}}
	pub, cleanup := newTestPublisher(t, shop)
	defer cleanup()

	res, err := pub.Publish(context.Background(), testProduct())
	require.NoError(t, err)

	assert.Equal(t, int64(99), res.ProductID)
	assert.True(t, strings.HasSuffix(res.URL, "/products/relaxed-hoodie"))
	assert.True(t, strings.HasPrefix(res.URL, "https://127.0.0.1:"))
	assert.Equal(t, 4, res.ImagesUploaded)
	assert.Equal(t, 0, res.ImagesFailed)

	assert.Equal(t, "product", shop.calls[0])
	assert.Equal(t, []string{"image", "image", "image", "image", "metafield", "metafield"}, shop.calls[1:])

	bySrc := make(map[string]shopify.ImageInput)
	for _, img := range shop.images {
		bySrc[img.Src+img.Filename] = img
	}
	assert.Empty(t, bySrc["https://x/shared.jpg"].VariantIDs)
	assert.Equal(t, []int64{1, 2}, bySrc["https://x/gray.jpg"].VariantIDs)
	assert.Equal(t, []int64{1, 2, 3}, bySrc["https://x/both.jpg"].VariantIDs)

	inline := bySrc["image-4.png"]
	assert.Equal(t, "cG5n", inline.Attachment)
	assert.Equal(t, []int64{3}, inline.VariantIDs)
	assert.Equal(t, 4, inline.Position)
}

func TestPublishRetriesTransientFailures(t *testing.T) {
	shop := &fakeShop{t: t,
		imageFails: map[string]int{"https://x/gray.jpg": 2, "https://x/both.jpg": 10},
		attempts:   map[string]int{},
	}
	pub, cleanup := newTestPublisher(t, shop)
	defer cleanup()

	res, err := pub.Publish(context.Background(), testProduct())
	require.NoError(t, err)

	assert.Equal(t, 3, shop.attempts["https://x/gray.jpg"], "two 503s then success")
	assert.Equal(t, 3, shop.attempts["https://x/both.jpg"], "gives up after max attempts")
	assert.Equal(t, 3, res.ImagesUploaded)
	assert.Equal(t, 1, res.ImagesFailed)
	assert.Len(t, shop.metafields, 2, "metafields still written after a skipped image")
}

func TestPublishSetsInventoryAtLocation(t *testing.T) {
	shop := &fakeShop{t: t, imageFails: map[string]int{}, attempts: map[string]int{}}
	srv := httptest.NewServer(shop)
	defer srv.Close()
	cfg := &config.Config{ShopifyShopDomain: srv.URL, ShopifyLocationID: 5, UploadRetryDelay: time.Millisecond}
	pub := New(cfg, shopify.NewClient(cfg, logger.Nop()), logger.Nop())

	product := testProduct()
	product.Images = nil
	_, err := pub.Publish(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, []string{"product", "inventory", "inventory", "inventory", "metafield", "metafield"}, shop.calls)
}

func TestPublishNoVariants(t *testing.T) {
	shop := &fakeShop{t: t, imageFails: map[string]int{}, attempts: map[string]int{}}
	pub, cleanup := newTestPublisher(t, shop)
	defer cleanup()

	_, err := pub.Publish(context.Background(), &models.FinalProduct{Title: "x"})
	require.ErrorIs(t, err, models.ErrNoValidVariants)
	assert.Empty(t, shop.calls)
}
