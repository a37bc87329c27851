// Package registry provides clients for the external product registries the
// resolver consults when a barcode is not in the local catalog.
package registry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a registry answered but does not know the barcode.
var ErrNotFound = errors.New("barcode not found in registry")

// Product is the normalized payload a registry returns for a barcode.
type Product struct {
	Barcode  string
	Name     string
	Brand    string
	Category string
	// Price is nil when the registry does not carry pricing for the item.
	Price *decimal.Decimal
}

// Source is a single external product registry.
type Source interface {
	// Name identifies the registry in logs and metrics.
	Name() string
	// Lookup resolves a barcode. Returns ErrNotFound on a definitive miss;
	// any other error means the registry could not be consulted.
	Lookup(ctx context.Context, barcode string) (*Product, error)
}
