package domain

import (
	"sort"
	"time"
)

// Category groups products; products reference it by name.
type Category struct {
	ID           int64      `json:"id,omitempty"`
	Name         string     `json:"name" validate:"required,max=100"`
	Description  string     `json:"description,omitempty" validate:"max=500"`
	DisplayOrder int        `json:"displayOrder"`
	Active       bool       `json:"active"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// GetID returns the category id.
func (c Category) GetID() int64 { return c.ID }

// ActiveCategories returns the active categories ordered by display order.
// Ties keep the backend order.
func ActiveCategories(cats []Category) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}
