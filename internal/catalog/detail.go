package catalog

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/logger"
)

// Detail is the product detail view.
type Detail struct {
	Product domain.Product
	Images  []domain.ProductImage
	// Primary indexes Images, or is -1 when the product has no images.
	Primary  int
	ImageURL string
}

// Detail loads one product with its images. Images are optional: a failed
// image fetch is logged and the product still renders with its fallback
// image.
func (c *Catalog) Detail(ctx context.Context, id int64) (Detail, error) {
	p, err := c.src.Product(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	images, err := c.src.ProductImages(ctx, id)
	if err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "loading product images failed",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		images = p.Images
	}
	return NewDetail(p, images), nil
}

// NewDetail orders images and picks the image to show.
func NewDetail(p domain.Product, images []domain.ProductImage) Detail {
	sorted := domain.SortImages(images)
	d := Detail{Product: p, Images: sorted, Primary: domain.PrimaryImage(sorted)}
	if d.Primary >= 0 {
		d.ImageURL = sorted[d.Primary].ImageURL
	} else {
		d.ImageURL = p.DisplayImageURL()
	}
	return d
}
