package backendtest

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

func (s *Server) adminListProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, s.withImages(*p))
	}
	s.mu.Unlock()

	sortProducts(out, "")
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) adminGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, found := s.Product(id)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if !decodeJSON(r, &p) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(p.Name) == "" || p.Price < 0 {
		writeMessage(w, http.StatusBadRequest, "Product name and a non-negative price are required")
		return
	}
	p.Images, p.PrimaryImageURL = nil, ""
	stored := s.AddProduct(p)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.Product
	if !decodeJSON(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	p, found := s.products[id]
	var view domain.Product
	if found {
		now := time.Now().UTC()
		p.Name, p.Description, p.Price, p.CostPrice = in.Name, in.Description, in.Price, in.CostPrice
		p.Category, p.InStock, p.FilterValues, p.UpdatedAt = in.Category, in.InStock, in.FilterValues, &now
		view = s.withImages(*p)
	}
	s.mu.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.products[id]
	delete(s.products, id)
	delete(s.images, id)
	s.mu.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()
	content, _ := io.ReadAll(file)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.products[id]; !found {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	if len(s.images[id]) >= 5 {
		writeMessage(w, http.StatusBadRequest, "Product can have maximum 5 images")
		return
	}

	img := domain.ProductImage{
		ID:               s.id(),
		OriginalFilename: header.Filename,
		AltText:          r.FormValue("altText"),
		DisplayOrder:     len(s.images[id]),
		FileSize:         int64(len(content)),
		ContentType:      header.Header.Get("Content-Type"),
	}
	img.ImageURL = fmt.Sprintf("/uploads/products/%d-%s", img.ID, header.Filename)
	if img.AltText == "" {
		img.AltText = header.Filename
	}
	if v := r.FormValue("displayOrder"); v != "" {
		img.DisplayOrder, _ = strconv.Atoi(v)
	}
	if r.FormValue("isPrimary") == "true" || len(s.images[id]) == 0 {
		for i := range s.images[id] {
			s.images[id][i].IsPrimary = false
		}
		img.IsPrimary = true
	}
	s.images[id] = append(s.images[id], img)
	s.syncPrimaryURL(id)
	writeJSON(w, http.StatusCreated, img)
}

func (s *Server) updateImage(w http.ResponseWriter, r *http.Request) {
	pid, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	iid, ok := idParam(w, r, "imageId")
	if !ok {
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.images[pid] {
		img := &s.images[pid][i]
		if img.ID != iid {
			continue
		}
		if q.Has("altText") {
			img.AltText = q.Get("altText")
		}
		if q.Has("displayOrder") {
			img.DisplayOrder, _ = strconv.Atoi(q.Get("displayOrder"))
		}
		if q.Get("isPrimary") == "true" {
			s.markPrimary(pid, iid)
		}
		writeJSON(w, http.StatusOK, s.images[pid][i])
		return
	}
	writeMessage(w, http.StatusNotFound, "Image not found")
}

func (s *Server) setPrimaryImage(w http.ResponseWriter, r *http.Request) {
	pid, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	iid, ok := idParam(w, r, "imageId")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.markPrimary(pid, iid) {
		writeMessage(w, http.StatusBadRequest, "Image does not belong to product")
		return
	}
	writeMessage(w, http.StatusOK, "Primary image updated successfully")
}

func (s *Server) markPrimary(pid, iid int64) bool {
	found := false
	for i := range s.images[pid] {
		if s.images[pid][i].ID == iid {
			found = true
		}
	}
	if !found {
		return false
	}
	for i := range s.images[pid] {
		s.images[pid][i].IsPrimary = s.images[pid][i].ID == iid
	}
	s.syncPrimaryURL(pid)
	return true
}

func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request) {
	pid, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	iid, ok := idParam(w, r, "imageId")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	images := s.images[pid]
	for i, img := range images {
		if img.ID != iid {
			continue
		}
		s.images[pid] = append(images[:i:i], images[i+1:]...)
		if img.IsPrimary && len(s.images[pid]) > 0 {
			s.images[pid][0].IsPrimary = true
		}
		s.syncPrimaryURL(pid)
		writeMessage(w, http.StatusOK, "Image deleted successfully")
		return
	}
	writeMessage(w, http.StatusNotFound, "Image not found")
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	c, found := s.categories[id]
	var view domain.Category
	if found {
		view = *c
	}
	s.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if !decodeJSON(r, &c) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	exists := s.categoryByName(c.Name) != nil
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusBadRequest, "Category with this name already exists")
		return
	}
	writeJSON(w, http.StatusCreated, s.AddCategory(c))
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.Category
	if !decodeJSON(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if other := s.categoryByName(in.Name); other != nil && other.ID != id {
		writeMessage(w, http.StatusBadRequest, "Category with this name already exists")
		return
	}
	c, found := s.categories[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	in.ID = c.ID
	*c = in
	writeJSON(w, http.StatusOK, *c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.categories[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	used := 0
	for _, p := range s.products {
		if p.Category == c.Name {
			used++
		}
	}
	if used > 0 {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Cannot delete category. It is being used by %d product(s)", used))
		return
	}
	delete(s.categories, id)
	delete(s.categoryFilters, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCategoryFilters(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	out := []domain.FilterDefinition{}
	for _, fid := range s.categoryFilters[id] {
		if f, ok := s.filters[fid]; ok {
			out = append(out, *f)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) setCategoryFilters(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var ids []int64
	if !decodeJSON(r, &ids) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.categories[id]; !found {
		writeMessage(w, http.StatusBadRequest, "Category not found")
		return
	}
	for _, fid := range ids {
		if _, found := s.filters[fid]; !found {
			writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Filter not found: %d", fid))
			return
		}
	}
	s.categoryFilters[id] = ids
	w.WriteHeader(http.StatusOK)
}

func (s *Server) adminListFilters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]domain.FilterDefinition, 0, len(s.filters))
	for _, f := range s.filters {
		out = append(out, *f)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	f, found := s.filters[id]
	var view domain.FilterDefinition
	if found {
		view = *f
	}
	s.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) filterByName(name string) *domain.FilterDefinition {
	for _, f := range s.filters {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (s *Server) createFilter(w http.ResponseWriter, r *http.Request) {
	var f domain.FilterDefinition
	if !decodeJSON(r, &f) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	exists := s.filterByName(f.Name) != nil
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusBadRequest, "Filter with this name already exists")
		return
	}
	writeJSON(w, http.StatusCreated, s.AddFilter(f))
}

func (s *Server) updateFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.FilterDefinition
	if !decodeJSON(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if other := s.filterByName(in.Name); other != nil && other.ID != id {
		writeMessage(w, http.StatusBadRequest, "Filter with this name already exists")
		return
	}
	f, found := s.filters[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.Name, f.DisplayName, f.Description = in.Name, in.DisplayName, in.Description
	f.DisplayOrder, f.Active = in.DisplayOrder, in.Active
	writeJSON(w, http.StatusOK, *f)
}

func (s *Server) deleteFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.filters[id]
	delete(s.filters, id)
	for cid, ids := range s.categoryFilters {
		kept := ids[:0:0]
		for _, fid := range ids {
			if fid != id {
				kept = append(kept, fid)
			}
		}
		s.categoryFilters[cid] = kept
	}
	s.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFilterValues(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	f, found := s.filters[id]
	out := []domain.FilterValue{}
	if found {
		out = append(out, f.Values...)
	}
	s.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createFilterValue(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var v domain.FilterValue
	if !decodeJSON(r, &v) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, found := s.filters[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if containsValue(f.Values, v.Value) {
		writeMessage(w, http.StatusBadRequest, "Filter value already exists")
		return
	}
	v.ID = s.id()
	f.Values = append(f.Values, v)
	writeJSON(w, http.StatusCreated, v)
}

func containsValue(vals []domain.FilterValue, value string) bool {
	for _, v := range vals {
		if v.Value == value {
			return true
		}
	}
	return false
}

// valueRef locates a filter value by id.
func (s *Server) valueRef(id int64) (*domain.FilterDefinition, int) {
	for _, f := range s.filters {
		for i, v := range f.Values {
			if v.ID == id {
				return f, i
			}
		}
	}
	return nil, -1
}

func (s *Server) updateFilterValue(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.FilterValue
	if !decodeJSON(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, i := s.valueRef(id)
	if f == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	for _, other := range f.Values {
		if other.Value == in.Value && other.ID != id {
			writeMessage(w, http.StatusBadRequest, "Filter value already exists")
			return
		}
	}
	in.ID = id
	f.Values[i] = in
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) deleteFilterValue(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, i := s.valueRef(id)
	if f == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.Values = append(f.Values[:i:i], f.Values[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}
