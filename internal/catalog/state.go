package catalog

import (
	"net/url"
	"strings"

	"github.com/utafrali/storefront/internal/facet"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "all"

// Sort orders understood by the backend.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortLatest    = "latest"
)

// State is the query the catalog view composes from its controls.
type State struct {
	Search   string
	Category string
	Sort     string
	Facets   facet.Selection
}

// Query renders the state as backend query parameters. Empty search, the
// "all" category, an empty sort and facets without values are omitted. Each
// facet becomes one parameter whose value is the comma-joined selection.
func (s State) Query() url.Values {
	q := url.Values{}
	if s.Search != "" {
		q.Set("search", s.Search)
	}
	if s.Category != "" && s.Category != AllCategories {
		q.Set("category", s.Category)
	}
	if s.Sort != "" {
		q.Set("sort", s.Sort)
	}
	for name, values := range s.Facets {
		if len(values) == 0 {
			continue
		}
		q.Set(name, strings.Join(values, ","))
	}
	return q
}

// Equal reports whether both states produce the same query.
func (s State) Equal(other State) bool {
	return s.Search == other.Search &&
		normalizeCategory(s.Category) == normalizeCategory(other.Category) &&
		s.Sort == other.Sort &&
		s.Facets.Equal(other.Facets)
}

func (s State) clone() State {
	s.Facets = s.Facets.Clone()
	return s
}

func normalizeCategory(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, AllCategories) {
		return AllCategories
	}
	return name
}

// ValidSort reports whether order is empty or a known sort order.
func ValidSort(order string) bool {
	switch order {
	case "", SortPriceAsc, SortPriceDesc, SortLatest:
		return true
	default:
		return false
	}
}
