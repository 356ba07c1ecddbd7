package domain

import (
	"strings"
	"time"
)

// Product is a catalog product as served by the backend.
type Product struct {
	ID              int64               `json:"id,omitempty"`
	Name            string              `json:"name" validate:"required,max=255"`
	Description     string              `json:"description"`
	Price           float64             `json:"price" validate:"gte=0"`
	CostPrice       *float64            `json:"costPrice,omitempty" validate:"omitempty,gte=0"`
	Category        string              `json:"category" validate:"required"`
	InStock         bool                `json:"inStock"`
	PrimaryImageURL string              `json:"primaryImageUrl,omitempty"`
	Images          []ProductImage      `json:"images,omitempty"`
	FilterValues    map[string][]string `json:"filterValues,omitempty"`
	CreatedAt       *time.Time          `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time          `json:"updatedAt,omitempty"`
}

// GetID returns the product id.
func (p Product) GetID() int64 { return p.ID }

// Margin returns price minus cost price, or false when no cost price is known.
func (p Product) Margin() (float64, bool) {
	if p.CostPrice == nil {
		return 0, false
	}
	return p.Price - *p.CostPrice, true
}

// placeholders maps a lower-cased category name to its stock image.
var placeholders = map[string]string{
	"electronics": "https://images.pexels.com/photos/356056/pexels-photo-356056.jpeg?auto=compress&cs=tinysrgb&w=500",
	"clothing":    "https://images.pexels.com/photos/996329/pexels-photo-996329.jpeg?auto=compress&cs=tinysrgb&w=500",
	"accessories": "https://images.pexels.com/photos/1152077/pexels-photo-1152077.jpeg?auto=compress&cs=tinysrgb&w=500",
	"home":        "https://images.pexels.com/photos/1000084/pexels-photo-1000084.jpeg?auto=compress&cs=tinysrgb&w=500",
	"sports":      "https://images.pexels.com/photos/3822864/pexels-photo-3822864.jpeg?auto=compress&cs=tinysrgb&w=500",
	"food":        "https://images.pexels.com/photos/918327/pexels-photo-918327.jpeg?auto=compress&cs=tinysrgb&w=500",
}

// DefaultPlaceholderImage is shown for categories without a dedicated
// placeholder.
const DefaultPlaceholderImage = "https://images.pexels.com/photos/230544/pexels-photo-230544.jpeg?auto=compress&cs=tinysrgb&w=500"

// PlaceholderImage returns the stock image for a category.
func PlaceholderImage(category string) string {
	if url, ok := placeholders[strings.ToLower(strings.TrimSpace(category))]; ok {
		return url
	}
	return DefaultPlaceholderImage
}

// DisplayImageURL returns the primary image of the product, falling back to
// the category placeholder.
func (p Product) DisplayImageURL() string {
	if p.PrimaryImageURL != "" {
		return p.PrimaryImageURL
	}
	return PlaceholderImage(p.Category)
}
