package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
)

// Catalog is the public, unauthenticated catalog surface.
type Catalog struct {
	c      *backend.Client
	images *backend.Client
}

// NewCatalog creates the catalog surface. images serves product-image
// fetches and is expected to retry transient failures.
func NewCatalog(c, images *backend.Client) *Catalog {
	return &Catalog{c: c, images: images}
}

// Products lists products matching the composed query.
func (a *Catalog) Products(ctx context.Context, query url.Values) ([]domain.Product, error) {
	var out []domain.Product
	if err := a.c.Get(ctx, "/api/products", query, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Product fetches one product.
func (a *Catalog) Product(ctx context.Context, id int64) (domain.Product, error) {
	var out domain.Product
	if err := a.c.Get(ctx, "/api/products/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return out, nil
}

// ProductImages lists the public images of a product.
func (a *Catalog) ProductImages(ctx context.Context, id int64) ([]domain.ProductImage, error) {
	var out []domain.ProductImage
	if err := a.images.Get(ctx, "/api/products/"+strconv.FormatInt(id, 10)+"/images", nil, &out); err != nil {
		return nil, fmt.Errorf("list images of product %d: %w", id, err)
	}
	return out, nil
}

// Categories lists all categories.
func (a *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := a.c.Get(ctx, "/api/categories", nil, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// CategoryNames lists the names of the active categories.
func (a *Catalog) CategoryNames(ctx context.Context) ([]string, error) {
	var out []string
	if err := a.c.Get(ctx, "/api/categories/names", nil, &out); err != nil {
		return nil, fmt.Errorf("list category names: %w", err)
	}
	return out, nil
}

// Filters lists the facet definitions offered for category. An empty
// category or "all" returns every active filter.
func (a *Catalog) Filters(ctx context.Context, category string) ([]domain.FilterDefinition, error) {
	var q url.Values
	if category != "" {
		q = url.Values{"category": {category}}
	}
	var out []domain.FilterDefinition
	if err := a.c.Get(ctx, "/api/filters", q, &out); err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return out, nil
}
