package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/resource"
)

// Admin is the catalog management surface. Every call is privileged.
type Admin struct {
	c *backend.Client

	Products   *resource.Client[domain.Product]
	Categories *resource.Client[domain.Category]
	Filters    *resource.Client[domain.FilterDefinition]
	Images     *Images
}

// NewAdmin creates the admin surface.
func NewAdmin(c *backend.Client) *Admin {
	return &Admin{
		c:          c,
		Products:   resource.New[domain.Product](c, "/api/admin/products", "product"),
		Categories: resource.New[domain.Category](c, "/api/admin/categories", "category"),
		Filters:    resource.New[domain.FilterDefinition](c, "/api/admin/filters", "filter"),
		Images:     &Images{c: c},
	}
}

// FilterValues lists the values of a filter, inactive ones included.
func (a *Admin) FilterValues(ctx context.Context, filterID int64) ([]domain.FilterValue, error) {
	var out []domain.FilterValue
	_, err := a.c.Do(ctx, backend.Request{Method: http.MethodGet, Path: filterValuesPath(filterID), Auth: true}, &out)
	return out, err
}

// CreateFilterValue adds a value under a filter.
func (a *Admin) CreateFilterValue(ctx context.Context, filterID int64, v domain.FilterValue) (domain.FilterValue, error) {
	if err := Validate(v); err != nil {
		return domain.FilterValue{}, err
	}
	var out domain.FilterValue
	_, err := a.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: filterValuesPath(filterID), Body: v, Auth: true}, &out)
	return out, err
}

// UpdateFilterValue replaces a value by id.
func (a *Admin) UpdateFilterValue(ctx context.Context, id int64, v domain.FilterValue) (domain.FilterValue, error) {
	if err := Validate(v); err != nil {
		return domain.FilterValue{}, err
	}
	var out domain.FilterValue
	_, err := a.c.Do(ctx, backend.Request{Method: http.MethodPut, Path: filterValuePath(id), Body: v, Auth: true}, &out)
	return out, err
}

// DeleteFilterValue removes a value by id.
func (a *Admin) DeleteFilterValue(ctx context.Context, id int64) error {
	_, err := a.c.Do(ctx, backend.Request{Method: http.MethodDelete, Path: filterValuePath(id), Auth: true}, nil)
	return err
}

// CategoryFilters lists the filters assigned to a category.
func (a *Admin) CategoryFilters(ctx context.Context, categoryID int64) ([]domain.FilterDefinition, error) {
	var out []domain.FilterDefinition
	_, err := a.c.Do(ctx, backend.Request{Method: http.MethodGet, Path: categoryFiltersPath(categoryID), Auth: true}, &out)
	return out, err
}

// SetCategoryFilters replaces the filters assigned to a category.
func (a *Admin) SetCategoryFilters(ctx context.Context, categoryID int64, filterIDs []int64) error {
	if filterIDs == nil {
		filterIDs = []int64{}
	}
	_, err := a.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: categoryFiltersPath(categoryID), Body: filterIDs, Auth: true}, nil)
	return err
}

func filterValuesPath(filterID int64) string {
	return "/api/admin/filters/" + strconv.FormatInt(filterID, 10) + "/values"
}

func filterValuePath(id int64) string {
	return "/api/admin/filter-values/" + strconv.FormatInt(id, 10)
}

func categoryFiltersPath(categoryID int64) string {
	return "/api/admin/categories/" + strconv.FormatInt(categoryID, 10) + "/filters"
}
