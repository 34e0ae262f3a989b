package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"marketbridge/internal/currency"
	"marketbridge/internal/models"
	"marketbridge/internal/services/anthropic"
	"marketbridge/internal/worker/processors/validation"
)

// TranslatedProduct is the English rendition of a listing with one variant
// per source SKU. Variants are not yet filtered or deduplicated.
type TranslatedProduct struct {
	ItemID           string                     `json:"item_id"`
	Title            string                     `json:"title"`
	Description      string                     `json:"description"`
	ProductType      string                     `json:"product_type"`
	Gender           string                     `json:"gender"`
	Tags             []string                   `json:"tags"`
	Materials        string                     `json:"materials"`
	CareInstructions string                     `json:"care_instructions"`
	Variants         []models.TranslatedVariant `json:"variants"`
	// ColorMap maps each raw source color to its cleaned English color.
	ColorMap map[string]string `json:"color_map"`
}

type colorTranslation struct {
	Name     string `json:"name"`
	Standard string `json:"standard"`
}

type translationReply struct {
	Title            string                      `json:"title"`
	Description      string                      `json:"description"`
	ProductType      string                      `json:"product_type"`
	Gender           string                      `json:"gender"`
	Tags             []string                    `json:"tags"`
	Materials        string                      `json:"materials"`
	CareInstructions string                      `json:"care_instructions"`
	Colors           map[string]colorTranslation `json:"colors"`
	Sizes            map[string]string           `json:"sizes"`
}

const translateSystemPrompt = `You translate Chinese marketplace fashion listings into natural English for a Western storefront.
Respond with a single JSON object and nothing else.`

type skuSample struct {
	Color string  `json:"color"`
	Size  string  `json:"size"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// TranslateListing translates a listing in a single call and builds a
// variant for every SKU. Fields missing from the reply fall back to
// deterministic heuristics; an unparseable reply fails the item.
func (e *Engine) TranslateListing(ctx context.Context, listing *models.Listing, rate float64) (*TranslatedProduct, error) {
	prompt, err := e.translationPrompt(listing)
	if err != nil {
		return nil, err
	}

	raw, err := e.client.Complete(ctx, translateSystemPrompt, anthropic.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w", err)
	}

	var reply translationReply
	if err := anthropic.DecodeJSON(raw, &reply); err != nil {
		return nil, fmt.Errorf("%w: translation: %v", ErrInvalidResponse, err)
	}

	tp := &TranslatedProduct{
		ItemID:           listing.ItemID,
		Title:            strings.TrimSpace(reply.Title),
		Description:      strings.TrimSpace(reply.Description),
		ProductType:      strings.TrimSpace(reply.ProductType),
		Gender:           normalizeGender(reply.Gender),
		Tags:             cleanTags(reply.Tags),
		Materials:        strings.TrimSpace(reply.Materials),
		CareInstructions: strings.TrimSpace(reply.CareInstructions),
		ColorMap:         make(map[string]string),
	}
	if tp.Title == "" {
		tp.Title = listing.Title
	}
	if tp.Gender == "" {
		tp.Gender = GuessGender(listing.Title + " " + tp.Title)
	}

	standardByColor := make(map[string]string)
	for _, rawColor := range listing.DistinctColors() {
		color, standard := resolveColor(rawColor, reply.Colors)
		tp.ColorMap[rawColor] = color
		if color != "" {
			standardByColor[rawColor] = standard
		}
	}

	for _, sku := range listing.SKUs {
		rawColor := sku.Color()
		price := sku.Price
		if price <= 0 {
			price = listing.BasePrice
		}
		tp.Variants = append(tp.Variants, models.TranslatedVariant{
			SKUID:         sku.ID,
			RawColor:      rawColor,
			Size:          resolveSize(sku.Size(), reply.Sizes),
			Color:         tp.ColorMap[rawColor],
			StandardColor: standardByColor[rawColor],
			Price:         currency.ToTargetPrice(price, rate, e.markup),
			Stock:         sku.Stock,
		})
	}

	e.logger.Info("Translated item %s: %q, %d variants, %d colors",
		listing.ItemID, tp.Title, len(tp.Variants), len(tp.ColorMap))
	return tp, nil
}

func (e *Engine) translationPrompt(listing *models.Listing) (string, error) {
	limit := e.skuSample
	if limit <= 0 || limit > len(listing.SKUs) {
		limit = len(listing.SKUs)
	}
	sample := make([]skuSample, 0, limit)
	for _, sku := range listing.SKUs[:limit] {
		sample = append(sample, skuSample{Color: sku.Color(), Size: sku.Size(), Price: sku.Price, Stock: sku.Stock})
	}

	sampleJSON, err := json.Marshal(sample)
	if err != nil {
		return "", fmt.Errorf("failed to marshal SKU sample: %w", err)
	}
	colorsJSON, err := json.Marshal(listing.DistinctColors())
	if err != nil {
		return "", fmt.Errorf("failed to marshal colors: %w", err)
	}
	sizesJSON, err := json.Marshal(listing.DistinctSizes())
	if err != nil {
		return "", fmt.Errorf("failed to marshal sizes: %w", err)
	}

	return fmt.Sprintf(`Translate this product listing.

Shop: %s
Title: %s
Description (HTML, may be empty):
%s

SKU sample: %s

Every distinct color value across all SKUs (translate ALL of them): %s
Every distinct size value: %s

Return JSON with exactly these keys:
{
  "title": "concise English product title, no shop name, no stock or shipping notes",
  "description": "2-4 sentence English description",
  "product_type": "garment category, e.g. Hoodie, Jeans, Dress",
  "gender": "women | men | unisex",
  "tags": ["short", "lowercase", "tags"],
  "materials": "fabric composition if stated, else empty",
  "care_instructions": "care text if stated, else empty",
  "colors": {"<original color value>": {"name": "English color name", "standard": "one of %s"}},
  "sizes": {"<original size value>": "clean size label such as S, M, XL, 38, One Size"}
}
Drop stock, presale and shipping-time notes from color and size names.
If a color value is really a size-guide or customer-service note, map its name to "".`,
		listing.ShopName, listing.Title, truncate(listing.DescriptionHTML, 4000),
		sampleJSON, colorsJSON, sizesJSON, strings.Join(StandardColors, ", ")), nil
}

// resolveColor picks the cleaned English color and its standard palette
// entry for one raw color value.
func resolveColor(rawColor string, translations map[string]colorTranslation) (string, string) {
	if validation.IsSizeGuideSentinel(rawColor) {
		return "", ""
	}

	tr, ok := translations[rawColor]
	color := ""
	if ok {
		color = CleanColor(tr.Name)
	}
	if color == "" && !ok {
		color = CleanColor(rawColor)
	}
	if color == "" {
		return "", ""
	}

	if std, ok := CanonicalStandardColor(tr.Standard); ok {
		return color, std
	}
	std := GuessStandardColor(color)
	if std == catchAllColor {
		// The raw value can still carry a source-language color keyword.
		if fromRaw := GuessStandardColor(rawColor); fromRaw != catchAllColor {
			std = fromRaw
		}
	}
	return color, std
}

func resolveSize(rawSize string, translations map[string]string) string {
	if s, ok := translations[rawSize]; ok {
		if c := CleanSize(s); c != "" {
			return c
		}
	}
	if c := CleanSize(rawSize); c != "" {
		return c
	}
	return "One Size"
}

func normalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "women", "woman", "female", "womens", "women's", "ladies":
		return "women"
	case "men", "man", "male", "mens", "men's":
		return "men"
	case "unisex", "both", "all":
		return "unisex"
	}
	return ""
}

// GuessGender infers the target audience from title keywords.
func GuessGender(text string) string {
	lc := strings.ToLower(text)
	switch {
	case strings.Contains(text, "男女"), strings.Contains(lc, "unisex"):
		return "unisex"
	case strings.Contains(text, "女"), strings.Contains(lc, "women"), strings.Contains(lc, "ladies"):
		return "women"
	case strings.Contains(text, "男"), strings.Contains(lc, "men's"), strings.Contains(lc, " men "):
		return "men"
	}
	return "unisex"
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
