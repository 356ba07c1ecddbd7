package backendtest

import (
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category := q.Get("category")

	facets := map[string][]string{}
	for key, vals := range q {
		switch key {
		case "search", "category", "sort":
			continue
		}
		if len(vals) > 0 && vals[0] != "" {
			facets[key] = strings.Split(vals[0], ",")
		}
	}

	s.mu.Lock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if !matchesFacets(*p, facets) {
			continue
		}
		view := s.withImages(*p)
		view.CostPrice = nil
		out = append(out, view)
	}
	s.mu.Unlock()

	sortProducts(out, q.Get("sort"))
	writeJSON(w, http.StatusOK, out)
}

// matchesFacets requires every facet to share at least one value with p.
func matchesFacets(p domain.Product, facets map[string][]string) bool {
	for name, wanted := range facets {
		have := p.FilterValues[name]
		hit := false
		for _, v := range wanted {
			if slices.Contains(have, v) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func sortProducts(ps []domain.Product, order string) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	switch order {
	case "price_asc":
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price < ps[j].Price })
	case "price_desc":
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price > ps[j].Price })
	case "latest":
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].ID > ps[j].ID })
	}
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	p, found := s.products[id]
	var view domain.Product
	if found {
		view = s.withImages(*p)
		view.CostPrice = nil
	}
	s.mu.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) listImages(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.products[id]
	images := domain.SortImages(s.images[id])
	s.mu.Unlock()

	if !found {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listCategoryNames(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cats := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cats = append(cats, *c)
	}
	s.mu.Unlock()

	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	names := []string{}
	for _, c := range domain.ActiveCategories(cats) {
		names = append(names, c.Name)
	}
	writeJSON(w, http.StatusOK, names)
}

// listFilters serves the active filters with their active values, limited
// to a category's assignments when one is named.
func (s *Server) listFilters(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	s.mu.Lock()
	var ids []int64
	if category != "" && category != "all" {
		if c := s.categoryByName(category); c != nil {
			ids = s.categoryFilters[c.ID]
		}
	} else {
		for id := range s.filters {
			ids = append(ids, id)
		}
	}

	out := []domain.FilterDefinition{}
	for _, id := range ids {
		f, ok := s.filters[id]
		if !ok || !f.Active {
			continue
		}
		def := *f
		def.Values = nil
		for _, v := range f.Values {
			if v.Active {
				def.Values = append(def.Values, v)
			}
		}
		if len(def.Values) > 0 {
			out = append(out, def)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}
