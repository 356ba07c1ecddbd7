package backendtest

import (
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// AddCategory stores c and returns it with its id.
func (s *Server) AddCategory(c domain.Category) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.categories[c.ID] = &c
	return c
}

// AddFilter stores def with ids for it and its values, and assigns it to the
// named categories.
func (s *Server) AddFilter(def domain.FilterDefinition, categories ...string) domain.FilterDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	def.ID = s.id()
	values := make([]domain.FilterValue, len(def.Values))
	for i, v := range def.Values {
		v.ID = s.id()
		values[i] = v
	}
	def.Values = values
	s.filters[def.ID] = &def

	for _, name := range categories {
		if c := s.categoryByName(name); c != nil {
			s.categoryFilters[c.ID] = append(s.categoryFilters[c.ID], def.ID)
		}
	}
	return def
}

// AddProduct stores p and returns it with its id.
func (s *Server) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = &now, &now
	s.products[p.ID] = &p
	return p
}

// AddImage attaches img to a product.
func (s *Server) AddImage(productID int64, img domain.ProductImage) domain.ProductImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	img.ID = s.id()
	s.images[productID] = append(s.images[productID], img)
	s.syncPrimaryURL(productID)
	return img
}

// AddUser stores an active account with password. It panics when password
// cannot be hashed (longer than 72 bytes).
func (s *Server) AddUser(email, password string, role domain.Role) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{ID: s.id(), Email: email, FirstName: "Test", LastName: string(role), Role: role, Enabled: true}
	acc := &account{user: u}
	if err := acc.setPassword(password); err != nil {
		panic(err)
	}
	s.accounts[u.ID] = acc
	return u
}

// AddPendingUser stores an account awaiting activation with temporary.
func (s *Server) AddPendingUser(email, temporary string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{ID: s.id(), Email: email, Role: domain.RoleUser, Enabled: true}
	s.accounts[u.ID] = &account{user: u, temporary: temporary, pending: true}
	return u
}

// Token issues a token for email valid for ttl.
func (s *Server) Token(email string, ttl time.Duration) string {
	return s.issueToken(email, ttl)
}

// Revoke makes the backend reject token while its claims stay unexpired.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// IssueResetToken registers a password-reset token for email.
func (s *Server) IssueResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "reset-" + strings.ReplaceAll(email, "@", "-at-")
	s.resetTokens[token] = email
	return token
}

// Product returns the stored product.
func (s *Server) Product(id int64) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.withImages(*p), true
}

// Images returns the stored images of a product.
func (s *Server) Images(productID int64) []domain.ProductImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ProductImage(nil), s.images[productID]...)
}

// User returns the stored account.
func (s *Server) User(id int64) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.User{}, false
	}
	return acc.user, true
}

// PasswordMatches reports whether password signs email in.
func (s *Server) PasswordMatches(email, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByEmail(email)
	return acc != nil && acc.checkPassword(password)
}

// CategoryFilterIDs returns the filters assigned to a category.
func (s *Server) CategoryFilterIDs(categoryID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.categoryFilters[categoryID]...)
}

func (s *Server) categoryByName(name string) *domain.Category {
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func (s *Server) accountByEmail(email string) *account {
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, email) {
			return acc
		}
	}
	return nil
}

func (s *Server) withImages(p domain.Product) domain.Product {
	p.Images = domain.SortImages(s.images[p.ID])
	return p
}

// syncPrimaryURL mirrors the primary image onto the product.
func (s *Server) syncPrimaryURL(productID int64) {
	p, ok := s.products[productID]
	if !ok {
		return
	}
	p.PrimaryImageURL = ""
	for _, img := range s.images[productID] {
		if img.IsPrimary {
			p.PrimaryImageURL = img.ImageURL
			return
		}
	}
}
