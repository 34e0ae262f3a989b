package models

import "errors"

// Item-fatal pipeline errors.
var (
	// ErrSourceNotFound indicates the marketplace returned no usable listing
	// for the requested item identifier.
	ErrSourceNotFound = errors.New("source listing not found")

	// ErrNoValidVariants indicates that every SKU was filtered out, so there
	// is nothing purchasable to publish.
	ErrNoValidVariants = errors.New("no valid variants")
)
