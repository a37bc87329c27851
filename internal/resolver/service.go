// Package resolver maps scanned barcodes to catalog products, consulting
// external registries in order when the local catalog misses.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/rmagtoto/tindahan-backend/internal/products"
	"github.com/rmagtoto/tindahan-backend/pkg/config"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/logger"
	"github.com/rmagtoto/tindahan-backend/pkg/registry"
)

const localSource = "catalog"

// Resolution is the outcome of a successful barcode resolution.
type Resolution struct {
	Product *products.ProductDTO
	// Created is true when the product was minted from a registry hit
	// during this resolution.
	Created bool
	// Source names where the product came from: "catalog" or a registry name.
	Source string
}

type catalog interface {
	FindByBarcode(ctx context.Context, storeID uuid.UUID, barcode string) (*products.ProductDTO, error)
	CreateFromRegistry(ctx context.Context, storeID uuid.UUID, input products.CreateProductInput, source string) (*products.ProductDTO, bool, error)
}

type lookupMetrics interface {
	ObserveLookup(source, result string)
}

// Service resolves barcodes for the scan pipeline.
type Service interface {
	Resolve(ctx context.Context, storeID uuid.UUID, barcode string) (*Resolution, error)
}

type service struct {
	catalog       catalog
	sources       []registry.Source
	cfg           config.ResolverConfig
	fallbackPrice decimal.Decimal
	metrics       lookupMetrics
	logg          *logger.Logger
}

// NewService constructs a resolver consulting sources in the given order.
func NewService(cat catalog, sources []registry.Source, cfg config.ResolverConfig, metrics lookupMetrics, logg *logger.Logger) (Service, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	fallback, err := cfg.FallbackPrice()
	if err != nil {
		return nil, err
	}
	return &service{
		catalog:       cat,
		sources:       sources,
		cfg:           cfg,
		fallbackPrice: fallback,
		metrics:       metrics,
		logg:          logg,
	}, nil
}

// Resolve checks the local catalog first, then each registry in order. A
// registry hit creates the catalog product with the configured defaults so the
// next scan of the same code is a local hit.
func (s *service) Resolve(ctx context.Context, storeID uuid.UUID, barcode string) (*Resolution, error) {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	local, err := s.catalog.FindByBarcode(ctx, storeID, trimmed)
	if err == nil {
		s.observe(localSource, "hit")
		return &Resolution{Product: local, Source: localSource}, nil
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}
	s.observe(localSource, "miss")

	var legErrors error
	attempted := 0
	for _, source := range s.sources {
		attempted++
		hit, lookupErr := s.lookup(ctx, source, trimmed)
		if lookupErr != nil {
			if errors.Is(lookupErr, registry.ErrNotFound) {
				s.observe(source.Name(), "miss")
				continue
			}
			s.observe(source.Name(), "error")
			if s.logg != nil {
				logCtx := s.logg.WithBarcode(ctx, trimmed)
				s.logg.Warn(s.logg.WithField(logCtx, "source", source.Name()), "registry lookup failed")
			}
			legErrors = multierr.Append(legErrors, fmt.Errorf("%s: %w", source.Name(), lookupErr))
			continue
		}

		s.observe(source.Name(), "hit")
		return s.materialize(ctx, storeID, hit, source.Name())
	}

	// Every registry errored: the miss is not authoritative, surface it as a
	// dependency failure instead of inventing a not-found.
	if attempted > 0 && legErrors != nil && len(multierr.Errors(legErrors)) == attempted {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, legErrors, "all registries unavailable")
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "barcode not found in catalog or registries")
}

func (s *service) lookup(ctx context.Context, source registry.Source, barcode string) (*registry.Product, error) {
	legCtx := ctx
	if s.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		legCtx, cancel = context.WithTimeout(ctx, s.cfg.LookupTimeout)
		defer cancel()
	}
	return source.Lookup(legCtx, barcode)
}

func (s *service) materialize(ctx context.Context, storeID uuid.UUID, hit *registry.Product, sourceName string) (*Resolution, error) {
	price := s.fallbackPrice
	if hit.Price != nil && !hit.Price.IsNegative() {
		price = *hit.Price
	}

	name := hit.Name
	if hit.Brand != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(hit.Brand)) {
		name = fmt.Sprintf("%s %s", hit.Brand, hit.Name)
	}

	input := products.CreateProductInput{
		Name:         name,
		Barcode:      &hit.Barcode,
		Price:        price,
		Stock:        s.cfg.InitialStock,
		ReorderLevel: s.cfg.ReorderLevel,
	}
	if hit.Category != "" {
		category := hit.Category
		input.Category = &category
	}

	dto, created, err := s.catalog.CreateFromRegistry(ctx, storeID, input, sourceName)
	if err != nil {
		return nil, err
	}
	return &Resolution{Product: dto, Created: created, Source: sourceName}, nil
}

func (s *service) observe(source, result string) {
	if s.metrics != nil {
		s.metrics.ObserveLookup(source, result)
	}
}
