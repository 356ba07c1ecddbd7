// Package resource provides one generic CRUD client per backend entity.
package resource

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/utafrali/storefront/internal/backend"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Entity is anything addressed by a numeric backend id.
type Entity interface {
	GetID() int64
}

// Client performs authenticated CRUD against one collection path such as
// /api/admin/products.
type Client[T Entity] struct {
	backend *backend.Client
	path    string
	name    string
}

// New returns a client for the collection at path. name labels not-found
// errors.
func New[T Entity](b *backend.Client, path, name string) *Client[T] {
	return &Client[T]{backend: b, path: path, name: name}
}

// Path returns the collection path.
func (c *Client[T]) Path() string { return c.path }

// List fetches the whole collection.
func (c *Client[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if _, err := c.backend.Do(ctx, backend.Request{Method: http.MethodGet, Path: c.path, Auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one entity.
func (c *Client[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	_, err := c.backend.Do(ctx, backend.Request{Method: http.MethodGet, Path: c.itemPath(id), Auth: true}, &out)
	return out, c.notFound(err, id)
}

// Create posts a new entity and returns the stored version.
func (c *Client[T]) Create(ctx context.Context, v T) (T, error) {
	var out T
	_, err := c.backend.Do(ctx, backend.Request{Method: http.MethodPost, Path: c.path, Body: v, Auth: true}, &out)
	return out, err
}

// Update replaces the entity at id and returns the stored version.
func (c *Client[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	var out T
	_, err := c.backend.Do(ctx, backend.Request{Method: http.MethodPut, Path: c.itemPath(id), Body: v, Auth: true}, &out)
	return out, c.notFound(err, id)
}

// Delete removes the entity at id.
func (c *Client[T]) Delete(ctx context.Context, id int64) error {
	_, err := c.backend.Do(ctx, backend.Request{Method: http.MethodDelete, Path: c.itemPath(id), Auth: true}, nil)
	return c.notFound(err, id)
}

func (c *Client[T]) itemPath(id int64) string {
	return c.path + "/" + strconv.FormatInt(id, 10)
}

// notFound labels bare 404s with the entity; backend messages are kept.
func (c *Client[T]) notFound(err error, id int64) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status == http.StatusNotFound && appErr.Message == http.StatusText(http.StatusNotFound) {
		return apperrors.NotFound(c.name, strconv.FormatInt(id, 10))
	}
	return err
}
