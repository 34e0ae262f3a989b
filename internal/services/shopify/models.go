package shopify

import (
	"time"
)

// Product represents a Shopify product
type Product struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	BodyHTML    string     `json:"body_html"`
	Vendor      string     `json:"vendor"`
	ProductType string     `json:"product_type"`
	Handle      string     `json:"handle"`
	Status      string     `json:"status"`
	Tags        string     `json:"tags"`
	Variants    []Variant  `json:"variants"`
	Images      []Image    `json:"images"`
	Options     []Option   `json:"options"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

// Variant represents a product variant
type Variant struct {
	ID                int64   `json:"id"`
	ProductID         int64   `json:"product_id"`
	Title             string  `json:"title"`
	Price             string  `json:"price"`
	Sku               string  `json:"sku"`
	Position          int     `json:"position"`
	Option1           *string `json:"option1"`
	Option2           *string `json:"option2"`
	InventoryItemID   int64   `json:"inventory_item_id"`
	InventoryQuantity int     `json:"inventory_quantity"`
}

// Image represents a product image
type Image struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Position   int     `json:"position"`
	Src        string  `json:"src"`
	VariantIDs []int64 `json:"variant_ids"`
}

// Option represents a product option
type Option struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"product_id"`
	Name      string   `json:"name"`
	Position  int      `json:"position"`
	Values    []string `json:"values"`
}

// Shop represents shop information
type Shop struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Domain            string `json:"domain"`
	MyshopifyDomain   string `json:"myshopify_domain"`
	Currency          string `json:"currency"`
	PrimaryLocationID int64  `json:"primary_location_id"`
}

// ProductInput is the create payload for a product with its variants.
type ProductInput struct {
	Title       string         `json:"title"`
	BodyHTML    string         `json:"body_html"`
	Vendor      string         `json:"vendor"`
	ProductType string         `json:"product_type"`
	Status      string         `json:"status"`
	Tags        string         `json:"tags"`
	Options     []OptionInput  `json:"options"`
	Variants    []VariantInput `json:"variants"`
}

type OptionInput struct {
	Name string `json:"name"`
}

type VariantInput struct {
	Option1             string `json:"option1"`
	Option2             string `json:"option2"`
	Price               string `json:"price"`
	Sku                 string `json:"sku,omitempty"`
	InventoryManagement string `json:"inventory_management,omitempty"`
	InventoryPolicy     string `json:"inventory_policy,omitempty"`
	InventoryQuantity   int    `json:"inventory_quantity"`
}

// ImageInput uploads an image either by URL (Src) or inline (Attachment,
// base64 encoded).
type ImageInput struct {
	Src        string  `json:"src,omitempty"`
	Attachment string  `json:"attachment,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Position   int     `json:"position,omitempty"`
	VariantIDs []int64 `json:"variant_ids,omitempty"`
}

// Metafield types used for product metadata.
const (
	MetafieldSingleLine = "single_line_text_field"
	MetafieldMultiLine  = "multi_line_text_field"
	MetafieldList       = "list.single_line_text_field"
	MetafieldJSON       = "json"
)

type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type InventoryLevel struct {
	LocationID      int64 `json:"location_id"`
	InventoryItemID int64 `json:"inventory_item_id"`
	Available       int   `json:"available"`
}
