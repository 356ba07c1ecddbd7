package admin

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/facet"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// FilterSource lists the facet definitions offered for a category.
type FilterSource interface {
	Filters(ctx context.Context, category string) ([]domain.FilterDefinition, error)
}

// ProductForm edits one product together with its facet values. The facet
// definitions follow the product's category.
type ProductForm struct {
	store   Store[domain.Product]
	filters FilterSource
	logger  *slog.Logger

	product domain.Product
	panel   *facet.Panel
	err     string
}

// NewProductForm creates an empty form.
func NewProductForm(store Store[domain.Product], filters FilterSource, log *slog.Logger) *ProductForm {
	return &ProductForm{store: store, filters: filters, logger: log, panel: facet.NewPanel(nil, nil)}
}

// Open loads p into the form, restoring its facet values and the facet
// definitions of its category. A zero product starts a new entry.
func (f *ProductForm) Open(ctx context.Context, p domain.Product) error {
	f.product = p
	f.err = ""
	f.panel = facet.NewPanel(nil, facet.Selection(p.FilterValues))
	return f.loadDefinitions(ctx, p.Category)
}

// SetCategory changes the category, clears every facet value and loads the
// definitions of the new category.
func (f *ProductForm) SetCategory(ctx context.Context, category string) error {
	if category == f.product.Category {
		return nil
	}
	f.product.Category = category
	f.panel.SetSelection(nil)
	return f.loadDefinitions(ctx, category)
}

// Edit applies fn to the product fields. Category and facet values are
// managed by SetCategory and Toggle and are kept as they were.
func (f *ProductForm) Edit(fn func(p *domain.Product)) {
	category := f.product.Category
	fn(&f.product)
	f.product.Category = category
}

// Toggle checks or unchecks one facet value.
func (f *ProductForm) Toggle(facetName, value string) error {
	_, err := f.panel.Toggle(facetName, value)
	return err
}

// ClearFacets unchecks every facet value.
func (f *ProductForm) ClearFacets() {
	f.panel.ClearAll()
}

// Product returns the product as it would be submitted.
func (f *ProductForm) Product() domain.Product {
	p := f.product
	p.FilterValues = f.panel.Selection()
	return p
}

// Selection returns the checked facet values.
func (f *ProductForm) Selection() facet.Selection {
	return f.panel.Selection()
}

// Groups returns the facet groups of the current category.
func (f *ProductForm) Groups() []facet.Group {
	return f.panel.Groups()
}

// Err returns the raw message of the last failure, or "".
func (f *ProductForm) Err() string {
	return f.err
}

// Submit validates the product and creates or updates it. On success the
// form holds the stored product.
func (f *ProductForm) Submit(ctx context.Context) (domain.Product, error) {
	p := f.Product()
	if err := api.Validate(p); err != nil {
		f.err = apperrors.Message(err)
		return domain.Product{}, err
	}

	var saved domain.Product
	var err error
	if p.ID == 0 {
		saved, err = f.store.Create(ctx, p)
	} else {
		saved, err = f.store.Update(ctx, p.ID, p)
	}
	if err != nil {
		f.err = apperrors.Message(err)
		return domain.Product{}, err
	}

	logger.WithContext(ctx, f.logger).InfoContext(ctx, "product saved", slog.Int64("id", saved.ID))
	f.product = saved
	f.err = ""
	f.panel.SetSelection(facet.Selection(saved.FilterValues))
	return saved, nil
}

func (f *ProductForm) loadDefinitions(ctx context.Context, category string) error {
	if category == "" {
		f.panel.SetDefinitions(nil)
		return nil
	}
	defs, err := f.filters.Filters(ctx, category)
	if err != nil {
		f.err = apperrors.Message(err)
		f.panel.SetDefinitions(nil)
		return err
	}
	f.panel.SetDefinitions(defs)
	return nil
}
