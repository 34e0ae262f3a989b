package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// TranslatedVariant is derived 1:1 from a SKU after translation and cleaning.
type TranslatedVariant struct {
	SKUID         string `json:"sku_id"`
	RawColor      string `json:"raw_color"`
	Size          string `json:"size"`
	Color         string `json:"color"`
	StandardColor string `json:"standard_color"`
	Price         int64  `json:"price"`
	Stock         int    `json:"stock"`
}

// ImageRef points at a processed image: either a hosted URL or inline bytes.
type ImageRef struct {
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
}

// URLRef wraps a hosted image URL.
func URLRef(url string) ImageRef {
	return ImageRef{URL: url}
}

// IsInline reports whether the image travels as embedded bytes.
func (r ImageRef) IsInline() bool {
	return len(r.Data) > 0
}

// Base64 returns the inline payload base64 encoded.
func (r ImageRef) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Data)
}

// String renders the reference for logs and JSON reports; inline data is
// shown as a data URI prefix only.
func (r ImageRef) String() string {
	if r.IsInline() {
		return fmt.Sprintf("data:%s;base64,(%d bytes)", r.MIMEType, len(r.Data))
	}
	return r.URL
}

// ParseDataURI turns "data:image/png;base64,...." into an inline ImageRef.
func ParseDataURI(uri string) (ImageRef, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return ImageRef{}, false
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return ImageRef{}, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return ImageRef{}, false
	}
	return ImageRef{Data: data, MIMEType: strings.TrimSuffix(meta, ";base64")}, true
}

// ProcessedImage is a product photo after classification and cleanup.
// An empty VariantColors means the image is shared by all colors.
type ProcessedImage struct {
	OriginalURL   string   `json:"original_url"`
	Processed     ImageRef `json:"processed"`
	VariantColors []string `json:"variant_colors,omitempty"`
	Position      int      `json:"position"`
}

// Shared reports whether the image is not tied to a color.
func (p ProcessedImage) Shared() bool {
	return len(p.VariantColors) == 0
}

// ProductMetadata is published as custom metafields.
type ProductMetadata struct {
	Gender           string     `json:"gender"`
	Colors           []string   `json:"colors"`
	SizeChart        *SizeChart `json:"size_chart,omitempty"`
	Materials        string     `json:"materials,omitempty"`
	CareInstructions string     `json:"care_instructions,omitempty"`
}

// FinalProduct is the single unit handed to the commerce publisher.
type FinalProduct struct {
	SourceItemID    string              `json:"source_item_id"`
	Title           string              `json:"title"`
	DescriptionHTML string              `json:"description_html"`
	Vendor          string              `json:"vendor"`
	ProductType     string              `json:"product_type"`
	Tags            []string            `json:"tags"`
	Variants        []TranslatedVariant `json:"variants"`
	Images          []ProcessedImage    `json:"images"`
	Metadata        ProductMetadata     `json:"metadata"`
}
