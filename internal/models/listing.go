package models

import "strings"

// Listing is a raw marketplace product as returned by the source connector.
// Prices are already in major units of Currency.
type Listing struct {
	ItemID            string   `json:"item_id"`
	Title             string   `json:"title"`
	DescriptionHTML   string   `json:"description_html"`
	DescriptionImages []string `json:"description_images"`
	Images            []string `json:"images"`
	SKUs              []SKU    `json:"skus"`
	ShopName          string   `json:"shop_name"`
	BasePrice         float64  `json:"base_price"`
	Currency          string   `json:"currency"`
}

// SKU is one purchasable marketplace variant.
type SKU struct {
	ID         string     `json:"id"`
	Price      float64    `json:"price"`
	Stock      int        `json:"stock"`
	Properties []Property `json:"properties"`
	Image      string     `json:"image,omitempty"`
}

// Property is a raw name/value pair such as ("颜色分类", "灰-现货").
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var (
	colorPropertyNames = []string{"颜色", "color", "colour", "色"}
	sizePropertyNames  = []string{"尺码", "尺寸", "size", "码"}
)

// Color returns the raw color value of the SKU, or "" when none is present.
func (s SKU) Color() string {
	return s.property(colorPropertyNames)
}

// Size returns the raw size value of the SKU, or "" when none is present.
func (s SKU) Size() string {
	return s.property(sizePropertyNames)
}

func (s SKU) property(names []string) string {
	for _, p := range s.Properties {
		name := strings.ToLower(p.Name)
		for _, n := range names {
			if strings.Contains(name, n) {
				return strings.TrimSpace(p.Value)
			}
		}
	}
	return ""
}

// DistinctColors returns every distinct raw color across all SKUs in
// first-seen order.
func (l *Listing) DistinctColors() []string {
	seen := make(map[string]bool)
	var colors []string
	for _, sku := range l.SKUs {
		c := sku.Color()
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		colors = append(colors, c)
	}
	return colors
}

// DistinctSizes returns every distinct raw size across all SKUs in
// first-seen order.
func (l *Listing) DistinctSizes() []string {
	seen := make(map[string]bool)
	var sizes []string
	for _, sku := range l.SKUs {
		s := sku.Size()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		sizes = append(sizes, s)
	}
	return sizes
}
