package assembly

import (
	"fmt"
	"strings"

	"marketbridge/internal/brands"
	"marketbridge/internal/logger"
	"marketbridge/internal/models"
	"marketbridge/internal/worker/processors/ai"
	"marketbridge/internal/worker/processors/imaging"
	"marketbridge/internal/worker/processors/validation"
)

// Metadata is the side information gathered concurrently with translation.
type Metadata struct {
	SizeChart *ai.SizeChartResult
	Brand     brands.Profile
}

type Assembler struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble merges translation, copy, processed images and metadata into the
// product handed to the publisher. It fails with models.ErrNoValidVariants
// when no variant survives color validation.
func (a *Assembler) Assemble(tp *ai.TranslatedProduct, cp *ai.Copy, images []models.ProcessedImage, meta Metadata) (*models.FinalProduct, error) {
	kept, dropped := validation.FilterVariants(tp.Variants)
	for _, v := range dropped {
		a.logger.Warn("Dropping SKU %s: invalid color %q (raw %q)", v.SKUID, v.Color, v.RawColor)
	}

	variants := DedupeVariants(kept)
	if len(variants) == 0 {
		return nil, fmt.Errorf("item %s: %w", tp.ItemID, models.ErrNoValidVariants)
	}

	colors := standardColors(variants)
	ordered := imaging.Order(unlinkOrphans(images, variants))

	title, description := tp.Title, ""
	if cp != nil {
		if cp.Title != "" {
			title = cp.Title
		}
		description = cp.DescriptionHTML
	}

	product := &models.FinalProduct{
		SourceItemID:    tp.ItemID,
		Title:           title,
		DescriptionHTML: description,
		Vendor:          meta.Brand.Vendor,
		ProductType:     tp.ProductType,
		Tags:            buildTags(tp.Tags, meta.Brand, tp.ProductType, colors),
		Variants:        variants,
		Images:          ordered,
		Metadata: models.ProductMetadata{
			Gender:           tp.Gender,
			Colors:           colors,
			Materials:        tp.Materials,
			CareInstructions: tp.CareInstructions,
		},
	}

	if sc := meta.SizeChart; sc != nil {
		product.Metadata.SizeChart = sc.Chart
		if sc.Materials != "" {
			product.Metadata.Materials = sc.Materials
		}
		if sc.CareInstructions != "" {
			product.Metadata.CareInstructions = sc.CareInstructions
		}
	}

	a.logger.Info("Assembled %q: %d variants (%d dropped), %d images, colors %v",
		product.Title, len(variants), len(dropped), len(ordered), colors)
	return product, nil
}

// DedupeVariants groups variants by (size, color) in first-seen order,
// summing stock and keeping the highest price.
func DedupeVariants(variants []models.TranslatedVariant) []models.TranslatedVariant {
	type key struct{ size, color string }
	index := make(map[key]int)
	var out []models.TranslatedVariant

	for _, v := range variants {
		k := key{v.Size, v.Color}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, v)
			continue
		}
		out[i].Stock += v.Stock
		if v.Price > out[i].Price {
			out[i].Price = v.Price
		}
	}
	return out
}

func standardColors(variants []models.TranslatedVariant) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range variants {
		if v.StandardColor == "" || seen[v.StandardColor] {
			continue
		}
		seen[v.StandardColor] = true
		out = append(out, v.StandardColor)
	}
	return out
}

// unlinkOrphans drops color tags that no surviving variant carries; an
// image left without tags becomes shared.
func unlinkOrphans(images []models.ProcessedImage, variants []models.TranslatedVariant) []models.ProcessedImage {
	live := make(map[string]bool)
	for _, v := range variants {
		live[v.Color] = true
	}

	out := make([]models.ProcessedImage, len(images))
	for i, img := range images {
		var colors []string
		for _, c := range img.VariantColors {
			if live[c] {
				colors = append(colors, c)
			}
		}
		img.VariantColors = colors
		out[i] = img
	}
	return out
}

func buildTags(translated []string, brand brands.Profile, productType string, colors []string) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		k := strings.ToLower(t)
		if t == "" || seen[k] {
			return
		}
		seen[k] = true
		tags = append(tags, t)
	}

	for _, t := range translated {
		add(t)
	}
	add(productType)
	add(brand.Vendor)
	for _, t := range brand.Tags {
		add(t)
	}
	for _, c := range colors {
		add(c)
	}
	return tags
}
