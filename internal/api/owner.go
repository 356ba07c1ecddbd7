package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/resource"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// UserDocument names an uploadable user file slot.
type UserDocument string

// Upload slots on a user profile.
const (
	ProfilePicture UserDocument = "profile-picture"
	IDDocument1    UserDocument = "id-document1"
	IDDocument2    UserDocument = "id-document2"
)

// ParseUserDocument validates a slot name.
func ParseUserDocument(s string) (UserDocument, error) {
	switch d := UserDocument(s); d {
	case ProfilePicture, IDDocument1, IDDocument2:
		return d, nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown document %q", s))
	}
}

// PasswordReset is the owner's reset-password answer.
type PasswordReset struct {
	Message           string `json:"message"`
	TemporaryPassword string `json:"temporaryPassword"`
}

// Owner is the user management surface, restricted to owners.
type Owner struct {
	c     *backend.Client
	Users *resource.Client[domain.User]
}

// NewOwner creates the owner surface.
func NewOwner(c *backend.Client) *Owner {
	return &Owner{c: c, Users: resource.New[domain.User](c, "/api/owner/users", "user")}
}

// CreateUser creates an account; the backend mails its temporary password.
func (o *Owner) CreateUser(ctx context.Context, req CreateUserRequest) (domain.User, error) {
	if err := Validate(req); err != nil {
		return domain.User{}, err
	}
	var out domain.User
	_, err := o.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: o.Users.Path(), Body: req, Auth: true}, &out)
	return out, err
}

// UpdateProfile replaces the editable fields of a user.
func (o *Owner) UpdateProfile(ctx context.Context, u domain.User) (domain.User, error) {
	if err := Validate(u.Profile); err != nil {
		return domain.User{}, err
	}
	return o.Users.Update(ctx, u.ID, u)
}

// SetRole changes the role of a user.
func (o *Owner) SetRole(ctx context.Context, id int64, role domain.Role) (domain.User, error) {
	if !role.IsValid() {
		return domain.User{}, apperrors.InvalidInput("Invalid role. Must be USER, ADMIN, or OWNER")
	}
	var out domain.User
	_, err := o.c.Do(ctx, backend.Request{
		Method: http.MethodPut,
		Path:   userPath(id) + "/role",
		Body:   map[string]string{"role": string(role)},
		Auth:   true,
	}, &out)
	return out, err
}

// SetEnabled enables or disables a user.
func (o *Owner) SetEnabled(ctx context.Context, id int64, enabled bool) (domain.User, error) {
	var out domain.User
	_, err := o.c.Do(ctx, backend.Request{
		Method: http.MethodPut,
		Path:   userPath(id) + "/status",
		Body:   map[string]bool{"enabled": enabled},
		Auth:   true,
	}, &out)
	return out, err
}

// ResetPassword issues a temporary password for a user.
func (o *Owner) ResetPassword(ctx context.Context, id int64) (PasswordReset, error) {
	var out PasswordReset
	_, err := o.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: userPath(id) + "/reset-password", Auth: true}, &out)
	return out, err
}

// UploadDocument uploads a profile picture or an ID document. The answer
// carries the backend message and the stored file URL.
func (o *Owner) UploadDocument(ctx context.Context, id int64, doc UserDocument, filename, contentType string, content []byte) (map[string]string, error) {
	if len(content) == 0 {
		return nil, apperrors.InvalidInput("file is empty")
	}
	form := &backend.Multipart{Files: []backend.File{{
		Field:       "file",
		Filename:    filename,
		ContentType: contentType,
		Content:     bytes.NewReader(content),
	}}}

	out := map[string]string{}
	_, err := o.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: userPath(id) + "/" + string(doc), Multipart: form, Auth: true}, &out)
	return out, err
}

func userPath(id int64) string {
	return "/api/owner/users/" + strconv.FormatInt(id, 10)
}
