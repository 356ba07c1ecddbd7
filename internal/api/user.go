package api

import (
	"context"
	"net/http"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
)

// UserProfile is the signed-in user's own profile.
type UserProfile struct {
	c *backend.Client
}

// NewUserProfile creates the profile surface.
func NewUserProfile(c *backend.Client) *UserProfile {
	return &UserProfile{c: c}
}

// Get fetches the full profile of the signed-in user.
func (p *UserProfile) Get(ctx context.Context) (domain.User, error) {
	var out domain.User
	_, err := p.c.Do(ctx, backend.Request{Method: http.MethodGet, Path: "/api/user/profile", Auth: true}, &out)
	return out, err
}
