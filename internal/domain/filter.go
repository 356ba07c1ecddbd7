package domain

import (
	"sort"
	"time"
)

// FilterDefinition is a named facet with its selectable values.
type FilterDefinition struct {
	ID           int64         `json:"id,omitempty"`
	Name         string        `json:"name" validate:"required,max=100"`
	DisplayName  string        `json:"displayName" validate:"required,max=100"`
	Description  string        `json:"description,omitempty" validate:"max=500"`
	DisplayOrder int           `json:"displayOrder"`
	Active       bool          `json:"active"`
	Values       []FilterValue `json:"filterValues,omitempty"`
	CreatedAt    *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
}

// GetID returns the filter id.
func (f FilterDefinition) GetID() int64 { return f.ID }

// Label returns the display name, falling back to the name.
func (f FilterDefinition) Label() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Name
}

// FilterValue is one selectable value of a facet.
type FilterValue struct {
	ID           int64  `json:"id,omitempty"`
	Value        string `json:"value" validate:"required,max=100"`
	DisplayValue string `json:"displayValue" validate:"required,max=100"`
	DisplayOrder int    `json:"displayOrder"`
	Active       bool   `json:"active"`
}

// GetID returns the filter value id.
func (v FilterValue) GetID() int64 { return v.ID }

// Label returns the display value, falling back to the raw value.
func (v FilterValue) Label() string {
	if v.DisplayValue != "" {
		return v.DisplayValue
	}
	return v.Value
}

// ActiveValues returns the active values ordered by display order.
func (f FilterDefinition) ActiveValues() []FilterValue {
	out := make([]FilterValue, 0, len(f.Values))
	for _, v := range f.Values {
		if v.Active {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// HasValue reports whether value is one of the active values.
func (f FilterDefinition) HasValue(value string) bool {
	for _, v := range f.Values {
		if v.Active && v.Value == value {
			return true
		}
	}
	return false
}

// ActiveFilters returns the active definitions ordered by display order.
func ActiveFilters(defs []FilterDefinition) []FilterDefinition {
	out := make([]FilterDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Active {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// HasAvailableFilters reports whether any active definition offers at least
// one active value.
func HasAvailableFilters(defs []FilterDefinition) bool {
	for _, d := range defs {
		if !d.Active {
			continue
		}
		for _, v := range d.Values {
			if v.Active {
				return true
			}
		}
	}
	return false
}
