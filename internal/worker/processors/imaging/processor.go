package imaging

import (
	"context"

	"golang.org/x/sync/errgroup"

	"marketbridge/internal/logger"
	"marketbridge/internal/metrics"
	"marketbridge/internal/models"
)

// Classifier decides what to do with a product image.
type Classifier interface {
	ClassifyImage(ctx context.Context, url string) (models.Classification, error)
}

// BackgroundRemover returns a cleaned copy of an image.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, url string) (models.ImageRef, error)
}

// ImageInput is one candidate image with the raw colors it belongs to.
type ImageInput struct {
	URL    string
	Colors []string
}

// VariantImage is a SKU's dedicated image.
type VariantImage struct {
	URL   string
	Color string
}

// BuildInputs unions shared images and variant images, deduplicated by URL.
// A URL present in both sets is treated as a variant image; a URL used by
// several colors collects all of them.
func BuildInputs(shared []string, variants []VariantImage) []ImageInput {
	var inputs []ImageInput
	index := make(map[string]int)

	variantURLs := make(map[string]bool)
	for _, v := range variants {
		if v.URL != "" {
			variantURLs[v.URL] = true
		}
	}

	for _, url := range shared {
		if url == "" || variantURLs[url] {
			continue
		}
		if _, ok := index[url]; ok {
			continue
		}
		index[url] = len(inputs)
		inputs = append(inputs, ImageInput{URL: url})
	}

	for _, v := range variants {
		if v.URL == "" {
			continue
		}
		i, ok := index[v.URL]
		if !ok {
			index[v.URL] = len(inputs)
			inputs = append(inputs, ImageInput{URL: v.URL})
			i = len(inputs) - 1
		}
		if v.Color != "" && !contains(inputs[i].Colors, v.Color) {
			inputs[i].Colors = append(inputs[i].Colors, v.Color)
		}
	}
	return inputs
}

// Processor classifies every candidate image and cleans up the ones that
// need it.
type Processor struct {
	classifier Classifier
	remover    BackgroundRemover
	logger     *logger.Logger
}

func NewProcessor(classifier Classifier, remover BackgroundRemover, logger *logger.Logger) *Processor {
	return &Processor{
		classifier: classifier,
		remover:    remover,
		logger:     logger,
	}
}

// Process handles all inputs concurrently. Images classified as delete are
// dropped; a failed classification or cleanup keeps the original URL. The
// result preserves input order and carries no positions yet.
func (p *Processor) Process(ctx context.Context, inputs []ImageInput) []models.ProcessedImage {
	results := make([]*models.ProcessedImage, len(inputs))

	var g errgroup.Group
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("Panic processing %s, keeping original: %v", in.URL, r)
					results[i] = &models.ProcessedImage{
						OriginalURL:   in.URL,
						Processed:     models.URLRef(in.URL),
						VariantColors: append([]string(nil), in.Colors...),
					}
				}
			}()
			results[i] = p.processOne(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	var out []models.ProcessedImage
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	p.logger.Info("Processed %d images, kept %d", len(inputs), len(out))
	return out
}

func (p *Processor) processOne(ctx context.Context, in ImageInput) *models.ProcessedImage {
	img := &models.ProcessedImage{
		OriginalURL:   in.URL,
		Processed:     models.URLRef(in.URL),
		VariantColors: append([]string(nil), in.Colors...),
	}

	c, err := p.classifier.ClassifyImage(ctx, in.URL)
	if err != nil {
		p.logger.Warn("Classification failed for %s, keeping original: %v", in.URL, err)
		metrics.ImageVerdicts.WithLabelValues("error").Inc()
		return img
	}
	metrics.ImageVerdicts.WithLabelValues(c.Verdict.String()).Inc()

	switch c.Verdict {
	case models.VerdictDelete:
		p.logger.Info("Dropping image %s: %s", in.URL, c.Reason)
		return nil
	case models.VerdictRemoveBackground:
		if p.remover == nil {
			return img
		}
		ref, err := p.remover.RemoveBackground(ctx, in.URL)
		if err != nil {
			p.logger.Warn("Background removal failed for %s, keeping original: %v", in.URL, err)
			return img
		}
		img.Processed = ref
	}
	return img
}

// RetagColors rewrites raw color tags to cleaned colors. Tags whose color
// was cleaned away are removed, so an image can fall back to shared.
func RetagColors(images []models.ProcessedImage, colorMap map[string]string) []models.ProcessedImage {
	out := make([]models.ProcessedImage, len(images))
	for i, img := range images {
		var colors []string
		for _, raw := range img.VariantColors {
			c, ok := colorMap[raw]
			if !ok {
				c = raw
			}
			if c != "" && !contains(colors, c) {
				colors = append(colors, c)
			}
		}
		img.VariantColors = colors
		out[i] = img
	}
	return out
}

// Order puts shared images first, then each color group in the order its
// color first appears, and assigns 1-based positions. An image is grouped
// under its first color.
func Order(images []models.ProcessedImage) []models.ProcessedImage {
	var shared []models.ProcessedImage
	var colorOrder []string
	groups := make(map[string][]models.ProcessedImage)

	for _, img := range images {
		if img.Shared() {
			shared = append(shared, img)
			continue
		}
		key := img.VariantColors[0]
		if _, ok := groups[key]; !ok {
			colorOrder = append(colorOrder, key)
		}
		groups[key] = append(groups[key], img)
	}

	out := make([]models.ProcessedImage, 0, len(images))
	out = append(out, shared...)
	for _, c := range colorOrder {
		out = append(out, groups[c]...)
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
