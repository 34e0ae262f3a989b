package export

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
	"marketbridge/internal/metrics"
	"marketbridge/internal/models"
	"marketbridge/internal/retry"
	"marketbridge/internal/services/shopify"
)

// Store is the slice of the Shopify Admin API the publisher needs.
type Store interface {
	CreateProduct(ctx context.Context, input *shopify.ProductInput) (*shopify.Product, error)
	CreateImage(ctx context.Context, productID int64, input *shopify.ImageInput) (*shopify.Image, error)
	CreateMetafield(ctx context.Context, productID int64, m *shopify.Metafield) (*shopify.Metafield, error)
	SetInventoryLevel(ctx context.Context, level shopify.InventoryLevel) error
	ShopDomain() string
}

type PublishResult struct {
	ProductID      int64  `json:"product_id"`
	Handle         string `json:"handle"`
	URL            string `json:"url"`
	ImagesUploaded int    `json:"images_uploaded"`
	ImagesFailed   int    `json:"images_failed"`
}

type Publisher struct {
	store       Store
	transformer *shopify.Transformer
	logger      *logger.Logger
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	locationID  int64
}

func New(cfg *config.Config, store Store, logger *logger.Logger) *Publisher {
	batchSize := cfg.UploadBatchSize
	if batchSize <= 0 {
		batchSize = 3
	}
	return &Publisher{
		store:       store,
		transformer: shopify.NewTransformer(),
		logger:      logger,
		batchSize:   batchSize,
		maxAttempts: cfg.UploadMaxAttempts,
		retryDelay:  cfg.UploadRetryDelay,
		locationID:  cfg.ShopifyLocationID,
	}
}

// Publish creates the product with its variants, then uploads images linked
// to the variants of their colors, then writes metafields. The steps run in
// that order because image uploads need the variant IDs assigned in the
// first step. Only product creation is fatal.
func (p *Publisher) Publish(ctx context.Context, product *models.FinalProduct) (*PublishResult, error) {
	input, err := p.transformer.ToProductInput(product)
	if err != nil {
		return nil, err
	}

	created, err := p.store.CreateProduct(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	p.logger.Info("Created product %d (%s) with %d variants", created.ID, created.Handle, len(created.Variants))
	p.setInventory(ctx, created, product.Variants)

	variantIDs := p.transformer.VariantIDsByColor(created)

	result := &PublishResult{
		ProductID: created.ID,
		Handle:    created.Handle,
		URL:       fmt.Sprintf("https://%s/products/%s", p.store.ShopDomain(), created.Handle),
	}
	result.ImagesUploaded, result.ImagesFailed = p.uploadImages(ctx, created.ID, product.Images, variantIDs)

	p.writeMetafields(ctx, created.ID, product.Metadata)
	return result, nil
}

// LinkedVariantIDs returns the union of variant IDs for every color an
// image is tagged with, or nil for a shared image.
func LinkedVariantIDs(colors []string, variantIDs map[string][]int64) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, c := range colors {
		for _, id := range variantIDs[c] {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (p *Publisher) uploadImages(ctx context.Context, productID int64, images []models.ProcessedImage, variantIDs map[string][]int64) (int, int) {
	var uploaded, failed atomic.Int32

	for start := 0; start < len(images); start += p.batchSize {
		end := min(start+p.batchSize, len(images))

		var g errgroup.Group
		for _, img := range images[start:end] {
			img := img
			g.Go(func() error {
				if err := p.uploadImage(ctx, productID, img, variantIDs); err != nil {
					p.logger.Error("Skipping image %d (%s): %v", img.Position, img.OriginalURL, err)
					metrics.ImageUploads.WithLabelValues("failed").Inc()
					failed.Add(1)
					return nil
				}
				metrics.ImageUploads.WithLabelValues("uploaded").Inc()
				uploaded.Add(1)
				return nil
			})
		}
		_ = g.Wait()
	}

	p.logger.Info("Uploaded %d/%d images for product %d", uploaded.Load(), len(images), productID)
	return int(uploaded.Load()), int(failed.Load())
}

func (p *Publisher) uploadImage(ctx context.Context, productID int64, img models.ProcessedImage, variantIDs map[string][]int64) error {
	ids := LinkedVariantIDs(img.VariantColors, variantIDs)
	if !img.Shared() && len(ids) == 0 {
		p.logger.Warn("Image %d tagged %v matches no variant, uploading as shared", img.Position, img.VariantColors)
	}
	input := p.transformer.ToImageInput(img, ids)

	_, err := retry.Do(ctx, retry.Config{
		MaxAttempts: p.maxAttempts,
		Backoff:     retry.LinearBackoff(p.retryDelay),
		ShouldRetry: shopify.IsTemporary,
		OnRetry: func(attempt int, err error) {
			p.logger.Warn("Image %d upload attempt %d failed, retrying: %v", img.Position, attempt, err)
		},
	}, func() error {
		metrics.ImageUploadAttempts.Inc()
		_, err := p.store.CreateImage(ctx, productID, input)
		return err
	})
	return err
}

func (p *Publisher) setInventory(ctx context.Context, created *shopify.Product, variants []models.TranslatedVariant) {
	if p.locationID == 0 {
		return
	}
	for i, v := range created.Variants {
		if i >= len(variants) || v.InventoryItemID == 0 {
			continue
		}
		err := p.store.SetInventoryLevel(ctx, shopify.InventoryLevel{
			LocationID:      p.locationID,
			InventoryItemID: v.InventoryItemID,
			Available:       variants[i].Stock,
		})
		if err != nil {
			p.logger.Warn("Failed to set inventory for variant %d: %v", v.ID, err)
		}
	}
}

func (p *Publisher) writeMetafields(ctx context.Context, productID int64, meta models.ProductMetadata) {
	fields, err := p.transformer.Metafields(meta)
	if err != nil {
		p.logger.Error("Failed to build metafields for product %d: %v", productID, err)
		return
	}

	var g errgroup.Group
	for _, f := range fields {
		f := f
		g.Go(func() error {
			if _, err := p.store.CreateMetafield(ctx, productID, &f); err != nil {
				p.logger.Warn("Failed to write metafield %s.%s: %v", f.Namespace, f.Key, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
