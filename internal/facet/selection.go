// Package facet models the facet panel of the catalog: the selected values per
// facet and the groups offered for the current category.
package facet

import (
	"slices"
	"sort"
)

// Selection maps a facet name to its selected values in selection order.
// Operations never mutate the receiver and never leave an empty entry.
type Selection map[string][]string

// Toggle adds value to facet when absent and removes it when present.
// Removing the last value of a facet removes the facet key.
func (s Selection) Toggle(facet, value string) Selection {
	out := s.Clone()
	vals := out[facet]
	if i := slices.Index(vals, value); i >= 0 {
		vals = slices.Delete(slices.Clone(vals), i, i+1)
	} else {
		vals = append(slices.Clone(vals), value)
	}
	if len(vals) == 0 {
		delete(out, facet)
	} else {
		out[facet] = vals
	}
	return out
}

// Clear returns the selection without facet.
func (s Selection) Clear(facet string) Selection {
	out := s.Clone()
	delete(out, facet)
	return out
}

// ClearAll returns an empty selection.
func (s Selection) ClearAll() Selection {
	return Selection{}
}

// Has reports whether value is selected for facet.
func (s Selection) Has(facet, value string) bool {
	return slices.Contains(s[facet], value)
}

// Count is the total number of selected values across all facets.
func (s Selection) Count() int {
	n := 0
	for _, vals := range s {
		n += len(vals)
	}
	return n
}

// Keys returns the facets with at least one selected value, sorted.
func (s Selection) Keys() []string {
	keys := make([]string, 0, len(s))
	for k, vals := range s {
		if len(vals) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy without empty entries.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, vals := range s {
		if len(vals) > 0 {
			out[k] = slices.Clone(vals)
		}
	}
	return out
}

// Normalize drops empty entries and duplicate values, keeping first
// occurrence order.
func (s Selection) Normalize() Selection {
	out := make(Selection, len(s))
	for k, vals := range s {
		var kept []string
		for _, v := range vals {
			if v != "" && !slices.Contains(kept, v) {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			out[k] = kept
		}
	}
	return out
}

// Equal reports whether both selections hold the same values in the same
// order. Empty entries are ignored.
func (s Selection) Equal(other Selection) bool {
	a, b := s.Clone(), other.Clone()
	if len(a) != len(b) {
		return false
	}
	for k, vals := range a {
		if !slices.Equal(vals, b[k]) {
			return false
		}
	}
	return true
}
