package shopify

import (
	"encoding/json"
	"fmt"
	"strings"

	"marketbridge/internal/models"
)

const (
	OptionSize  = "Size"
	OptionColor = "Color"
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// ToProductInput converts an assembled product into a create payload with
// Size/Color options. Images are uploaded separately.
func (t *Transformer) ToProductInput(p *models.FinalProduct) (*ProductInput, error) {
	if len(p.Variants) == 0 {
		return nil, models.ErrNoValidVariants
	}

	input := &ProductInput{
		Title:       p.Title,
		BodyHTML:    p.DescriptionHTML,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Status:      "active",
		Tags:        strings.Join(p.Tags, ", "),
		Options:     []OptionInput{{Name: OptionSize}, {Name: OptionColor}},
	}

	for _, v := range p.Variants {
		input.Variants = append(input.Variants, VariantInput{
			Option1:             v.Size,
			Option2:             v.Color,
			Price:               fmt.Sprintf("%d.00", v.Price),
			Sku:                 variantSKU(p.SourceItemID, v),
			InventoryManagement: "shopify",
			InventoryPolicy:     "deny",
			InventoryQuantity:   v.Stock,
		})
	}
	return input, nil
}

// VariantIDsByColor maps each color option value to the IDs of the variants
// carrying it, in variant order.
func (t *Transformer) VariantIDsByColor(product *Product) map[string][]int64 {
	colorOption := 2
	for _, o := range product.Options {
		if strings.EqualFold(o.Name, OptionColor) && o.Position > 0 {
			colorOption = o.Position
		}
	}

	out := make(map[string][]int64)
	for _, v := range product.Variants {
		opt := v.Option2
		if colorOption == 1 {
			opt = v.Option1
		}
		if opt == nil || *opt == "" {
			continue
		}
		out[*opt] = append(out[*opt], v.ID)
	}
	return out
}

// ToImageInput builds the upload payload for one image. Inline images are
// sent as base64 attachments, hosted ones by URL.
func (t *Transformer) ToImageInput(img models.ProcessedImage, variantIDs []int64) *ImageInput {
	input := &ImageInput{
		Position:   img.Position,
		VariantIDs: variantIDs,
	}
	if img.Processed.IsInline() {
		input.Attachment = img.Processed.Base64()
		input.Filename = fmt.Sprintf("image-%d%s", img.Position, extension(img.Processed.MIMEType))
	} else {
		input.Src = img.Processed.URL
		if input.Src == "" {
			input.Src = img.OriginalURL
		}
	}
	return input
}

// Metafields renders product metadata under the custom namespace. Empty
// values are omitted.
func (t *Transformer) Metafields(meta models.ProductMetadata) ([]Metafield, error) {
	var out []Metafield
	if meta.Gender != "" {
		out = append(out, Metafield{Namespace: "custom", Key: "gender", Type: MetafieldSingleLine, Value: meta.Gender})
	}
	if len(meta.Colors) > 0 {
		colors, err := json.Marshal(meta.Colors)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal colors: %w", err)
		}
		out = append(out, Metafield{Namespace: "custom", Key: "colors", Type: MetafieldList, Value: string(colors)})
	}
	if meta.SizeChart != nil {
		chart, err := json.Marshal(meta.SizeChart)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal size chart: %w", err)
		}
		out = append(out, Metafield{Namespace: "custom", Key: "size_chart", Type: MetafieldJSON, Value: string(chart)})
	}
	if meta.Materials != "" {
		out = append(out, Metafield{Namespace: "custom", Key: "materials", Type: MetafieldMultiLine, Value: meta.Materials})
	}
	if meta.CareInstructions != "" {
		out = append(out, Metafield{Namespace: "custom", Key: "care_instructions", Type: MetafieldMultiLine, Value: meta.CareInstructions})
	}
	return out, nil
}

func variantSKU(itemID string, v models.TranslatedVariant) string {
	if itemID == "" {
		return ""
	}
	parts := []string{itemID, slug(v.Color), slug(v.Size)}
	return strings.ToUpper(strings.Join(parts, "-"))
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '/':
			b.WriteRune('_')
		}
	}
	return b.String()
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".jpg"
}
