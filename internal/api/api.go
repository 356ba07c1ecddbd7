// Package api exposes the typed backend surfaces used by the storefront:
// the public catalog, authentication, the admin catalog and the owner's
// user management.
package api

import (
	"github.com/utafrali/storefront/internal/backend"
)

// API bundles every surface over one backend client. Images carries the
// retrying client used for public product-image fetches.
type API struct {
	Catalog *Catalog
	Auth    *Auth
	Admin   *Admin
	Owner   *Owner
	User    *UserProfile
}

// New wires all surfaces. images may be nil, in which case image fetches use
// c unchanged.
func New(c *backend.Client, images *backend.Client) *API {
	if images == nil {
		images = c
	}
	return &API{
		Catalog: NewCatalog(c, images),
		Auth:    NewAuth(c),
		Admin:   NewAdmin(c),
		Owner:   NewOwner(c),
		User:    NewUserProfile(c),
	}
}
