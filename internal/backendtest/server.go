// Package backendtest runs an in-memory catalog backend for tests. It serves
// the same REST paths, status codes and bodies as the real backend.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/domain"
)

// Call is one request observed by the server.
type Call struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	CorrelationID string
	TraceParent   string
}

type account struct {
	user         domain.User
	passwordHash []byte
	temporary    string
	pending      bool
}

// setPassword stores the bcrypt hash of password. An empty password leaves
// the account unable to sign in.
func (a *account) setPassword(password string) error {
	if password == "" {
		a.passwordHash = nil
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.passwordHash = hash
	return nil
}

func (a *account) checkPassword(password string) bool {
	return a.passwordHash != nil && bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

type forced struct {
	status int
	body   string
}

// Server is an in-memory backend on an httptest server.
type Server struct {
	*httptest.Server

	// Before, when set, runs before every handler. Tests use it to delay or
	// block specific requests.
	Before func(r *http.Request)

	// TokenTTL is the lifetime of tokens issued by sign-in.
	TokenTTL time.Duration

	mu              sync.Mutex
	secret          []byte
	nextID          int64
	products        map[int64]*domain.Product
	categories      map[int64]*domain.Category
	filters         map[int64]*domain.FilterDefinition
	categoryFilters map[int64][]int64
	images          map[int64][]domain.ProductImage
	accounts        map[int64]*account
	resetTokens     map[string]string
	revoked         map[string]bool
	forced          map[string][]forced
	calls           []Call
}

// New starts a server and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		TokenTTL:        time.Hour,
		secret:          []byte("backendtest-secret"),
		products:        map[int64]*domain.Product{},
		categories:      map[int64]*domain.Category{},
		filters:         map[int64]*domain.FilterDefinition{},
		categoryFilters: map[int64][]int64{},
		images:          map[int64][]domain.ProductImage{},
		accounts:        map[int64]*account{},
		resetTokens:     map[string]string{},
		revoked:         map[string]bool{},
		forced:          map[string][]forced{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/api/products", s.listProducts)
	r.Get("/api/products/{id}", s.getProduct)
	r.Get("/api/products/{id}/images", s.listImages)
	r.Get("/api/categories", s.listCategories)
	r.Get("/api/categories/names", s.listCategoryNames)
	r.Get("/api/filters", s.listFilters)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signin", s.signIn)
		r.Post("/signup", s.signUp)
		r.Post("/activate-account", s.activate)
		r.Post("/check-auth", s.checkAuth)
		r.Post("/forgot-password", s.forgotPassword)
		r.Post("/reset-password", s.resetPassword)
		r.Get("/validate-reset-token", s.validateResetToken)
		r.With(s.requireRole()).Post("/change-password", s.changePassword)
	})

	r.With(s.requireRole()).Get("/api/user/profile", s.profile)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.requireRole(domain.RoleAdmin, domain.RoleOwner))
		r.Get("/products", s.adminListProducts)
		r.Post("/products", s.adminCreateProduct)
		r.Get("/products/{id}", s.adminGetProduct)
		r.Put("/products/{id}", s.adminUpdateProduct)
		r.Delete("/products/{id}", s.adminDeleteProduct)

		r.Get("/products/{id}/images", s.listImages)
		r.Post("/products/{id}/images", s.uploadImage)
		r.Put("/products/{id}/images/{imageId}", s.updateImage)
		r.Put("/products/{id}/images/{imageId}/primary", s.setPrimaryImage)
		r.Delete("/products/{id}/images/{imageId}", s.deleteImage)

		r.Get("/categories", s.listCategories)
		r.Post("/categories", s.createCategory)
		r.Get("/categories/{id}", s.getCategory)
		r.Put("/categories/{id}", s.updateCategory)
		r.Delete("/categories/{id}", s.deleteCategory)
		r.Get("/categories/{id}/filters", s.getCategoryFilters)
		r.Post("/categories/{id}/filters", s.setCategoryFilters)

		r.Get("/filters", s.adminListFilters)
		r.Post("/filters", s.createFilter)
		r.Get("/filters/{id}", s.getFilter)
		r.Put("/filters/{id}", s.updateFilter)
		r.Delete("/filters/{id}", s.deleteFilter)
		r.Get("/filters/{id}/values", s.listFilterValues)
		r.Post("/filters/{id}/values", s.createFilterValue)
		r.Put("/filter-values/{id}", s.updateFilterValue)
		r.Delete("/filter-values/{id}", s.deleteFilterValue)
	})

	r.Route("/api/owner/users", func(r chi.Router) {
		r.Use(s.requireRole(domain.RoleOwner))
		r.Get("/", s.listUsers)
		r.Post("/", s.createUser)
		r.Get("/{id}", s.getUser)
		r.Put("/{id}", s.updateUser)
		r.Delete("/{id}", s.deleteUser)
		r.Put("/{id}/role", s.setRole)
		r.Put("/{id}/status", s.setStatus)
		r.Post("/{id}/reset-password", s.ownerResetPassword)
		r.Post("/{id}/{document}", s.uploadUserDocument)
	})

	return r
}

// record logs the call, runs the Before hook and serves forced responses.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			CorrelationID: r.Header.Get("X-Correlation-ID"),
			TraceParent:   r.Header.Get("traceparent"),
		})
		key := r.Method + " " + r.URL.Path
		var f *forced
		if queue := s.forced[key]; len(queue) > 0 {
			f = &queue[0]
			s.forced[key] = queue[1:]
		}
		s.mu.Unlock()

		if s.Before != nil {
			s.Before(r)
		}
		if f != nil {
			if strings.HasPrefix(strings.TrimSpace(f.body), "{") {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail queues a canned response for the next request to method and path.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.forced[key] = append(s.forced[key], forced{status: status, body: body})
}

// Calls returns the observed requests in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount counts requests to method and path.
func (s *Server) CallCount(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// ResetCalls forgets the observed requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}
