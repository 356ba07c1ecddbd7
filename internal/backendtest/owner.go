package backendtest

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
)

var documentLabels = map[string]string{
	"profile-picture": "Profile picture",
	"id-document1":    "ID document 1",
	"id-document2":    "ID document 2",
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]domain.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.user)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, found := s.User(id)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Role      string `json:"role"`
	}
	if !decodeJSON(r, &req) || req.Email == "" || req.FirstName == "" || req.LastName == "" || req.Role == "" {
		writeMessage(w, http.StatusBadRequest, "Email, firstName, lastName, and role are required")
		return
	}
	role := domain.Role(req.Role)
	if !role.IsValid() {
		writeMessage(w, http.StatusBadRequest, "Invalid role. Must be USER, ADMIN, or OWNER")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountByEmail(req.Email) != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create user: Email already exists")
		return
	}
	now := time.Now().UTC()
	u := domain.User{
		ID: s.id(), Email: req.Email, FirstName: req.FirstName, LastName: req.LastName,
		Role: role, Enabled: true, CreatedAt: &now, UpdatedAt: &now,
	}
	s.accounts[u.ID] = &account{user: u, temporary: "temp-" + req.Email, pending: true}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.User
	if !decodeJSON(r, &in) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	files := acc.user.Profile
	if in.FirstName != "" {
		acc.user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		acc.user.LastName = in.LastName
	}
	acc.user.Profile = in.Profile
	acc.user.ProfilePictureURL = files.ProfilePictureURL
	acc.user.IDDocument1URL, acc.user.IDDocument1Filename = files.IDDocument1URL, files.IDDocument1Filename
	acc.user.IDDocument2URL, acc.user.IDDocument2Filename = files.IDDocument2URL, files.IDDocument2Filename
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.accounts[id]
	delete(s.accounts, id)
	s.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req map[string]string
	if !decodeJSON(r, &req) || req["role"] == "" {
		writeMessage(w, http.StatusBadRequest, "Role is required")
		return
	}
	role := domain.Role(req["role"])
	if !role.IsValid() {
		writeMessage(w, http.StatusBadRequest, "Invalid role. Must be USER, ADMIN, or OWNER")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	acc.user.Role = role
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req map[string]*bool
	if !decodeJSON(r, &req) || req["enabled"] == nil {
		writeMessage(w, http.StatusBadRequest, "Enabled status is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	acc.user.Enabled = *req["enabled"]
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) ownerResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	temp := fmt.Sprintf("tmp-%d-%d", id, s.id())
	acc.passwordHash, acc.temporary, acc.pending = nil, temp, true
	writeJSON(w, http.StatusOK, map[string]string{
		"message":           "Password reset successfully. Temporary password sent to user's email.",
		"temporaryPassword": temp,
	})
}

func (s *Server) uploadUserDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	doc := chi.URLParam(r, "document")
	label, known := documentLabels[doc]
	if !known {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.accounts[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	url := fmt.Sprintf("/uploads/users/%d/%s-%s", id, doc, header.Filename)
	resp := map[string]string{"message": label + " uploaded successfully"}
	switch doc {
	case "profile-picture":
		acc.user.ProfilePictureURL = url
		resp["imageUrl"] = url
	case "id-document1":
		acc.user.IDDocument1URL, acc.user.IDDocument1Filename = url, header.Filename
		resp["url"], resp["filename"] = url, header.Filename
	case "id-document2":
		acc.user.IDDocument2URL, acc.user.IDDocument2Filename = url, header.Filename
		resp["url"], resp["filename"] = url, header.Filename
	}
	writeJSON(w, http.StatusOK, resp)
}
