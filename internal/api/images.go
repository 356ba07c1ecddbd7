package api

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Upload limits enforced by the backend.
const (
	MaxImageSize        = 10 << 20
	MaxImagesPerProduct = 5
)

// Images manages the uploaded images of a product.
type Images struct {
	c *backend.Client
}

// List returns the images of a product.
func (i *Images) List(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	var out []domain.ProductImage
	_, err := i.c.Do(ctx, backend.Request{Method: http.MethodGet, Path: imagesPath(productID), Auth: true}, &out)
	return out, err
}

// Upload sends one image as multipart form data.
func (i *Images) Upload(ctx context.Context, productID int64, up ImageUpload) (domain.ProductImage, error) {
	if len(up.Content) == 0 {
		return domain.ProductImage{}, apperrors.InvalidInput("image file is empty")
	}
	if len(up.Content) > MaxImageSize {
		return domain.ProductImage{}, apperrors.InvalidInput("File size must not exceed 10MB")
	}
	if up.ContentType != "" && !strings.HasPrefix(up.ContentType, "image/") {
		return domain.ProductImage{}, apperrors.InvalidInput("File must be an image")
	}

	form := &backend.Multipart{
		Fields: map[string]string{
			"displayOrder": strconv.Itoa(up.DisplayOrder),
			"isPrimary":    strconv.FormatBool(up.IsPrimary),
		},
		Files: []backend.File{{
			Field:       "file",
			Filename:    up.Filename,
			ContentType: up.ContentType,
			Content:     bytes.NewReader(up.Content),
		}},
	}
	if up.AltText != "" {
		form.Fields["altText"] = up.AltText
	}

	var out domain.ProductImage
	_, err := i.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: imagesPath(productID), Multipart: form, Auth: true}, &out)
	return out, err
}

// Add uploads an image after the existing ones. The first image of a
// product becomes its primary image.
func (i *Images) Add(ctx context.Context, productID int64, up ImageUpload) (domain.ProductImage, error) {
	existing, err := i.List(ctx, productID)
	if err != nil {
		return domain.ProductImage{}, err
	}
	if len(existing) >= MaxImagesPerProduct {
		return domain.ProductImage{}, apperrors.InvalidInput("Product can have maximum 5 images")
	}
	up.DisplayOrder = len(existing)
	up.IsPrimary = len(existing) == 0
	return i.Upload(ctx, productID, up)
}

// Update changes image metadata. The backend takes the fields as query
// parameters; unset fields are left unchanged.
func (i *Images) Update(ctx context.Context, productID, imageID int64, meta ImageMetadata) (domain.ProductImage, error) {
	q := url.Values{}
	if meta.AltText != nil {
		q.Set("altText", *meta.AltText)
	}
	if meta.DisplayOrder != nil {
		q.Set("displayOrder", strconv.Itoa(*meta.DisplayOrder))
	}
	if meta.IsPrimary != nil {
		q.Set("isPrimary", strconv.FormatBool(*meta.IsPrimary))
	}

	var out domain.ProductImage
	_, err := i.c.Do(ctx, backend.Request{Method: http.MethodPut, Path: imagePath(productID, imageID), Query: q, Auth: true}, &out)
	return out, err
}

// SetPrimary promotes an image to primary.
func (i *Images) SetPrimary(ctx context.Context, productID, imageID int64) error {
	_, err := i.c.Do(ctx, backend.Request{Method: http.MethodPut, Path: imagePath(productID, imageID) + "/primary", Auth: true}, nil)
	return err
}

// Delete removes an image.
func (i *Images) Delete(ctx context.Context, productID, imageID int64) error {
	_, err := i.c.Do(ctx, backend.Request{Method: http.MethodDelete, Path: imagePath(productID, imageID), Auth: true}, nil)
	return err
}

func imagesPath(productID int64) string {
	return "/api/admin/products/" + strconv.FormatInt(productID, 10) + "/images"
}

func imagePath(productID, imageID int64) string {
	return imagesPath(productID) + "/" + strconv.FormatInt(imageID, 10)
}
