package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// JWTResponse is the body of a successful sign-in or auth check.
type JWTResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// User converts the response into the session's user.
func (r JWTResponse) User() domain.User {
	return domain.User{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      domain.ParseRole(r.Role),
		Enabled:   true,
	}
}

// SignInResult is either a token with its user or an activation demand.
type SignInResult struct {
	Token           string
	User            domain.User
	NeedsActivation bool
	Email           string
	Message         string
}

type activationBody struct {
	Message         string `json:"message"`
	NeedsActivation bool   `json:"needsActivation"`
	Email           string `json:"email"`
	Username        string `json:"username"`
}

// Auth is the authentication surface.
type Auth struct {
	c *backend.Client
}

// NewAuth creates the auth surface.
func NewAuth(c *backend.Client) *Auth {
	return &Auth{c: c}
}

// SignIn posts credentials. A 202 carries an activation demand instead of a
// token.
func (a *Auth) SignIn(ctx context.Context, req SignInRequest) (SignInResult, error) {
	if err := Validate(req); err != nil {
		return SignInResult{}, err
	}

	var raw json.RawMessage
	status, err := a.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: "/api/auth/signin", Body: req}, &raw)
	if err != nil {
		return SignInResult{}, err
	}

	if status == http.StatusAccepted {
		var body activationBody
		if err := decodeRaw(raw, &body); err != nil {
			return SignInResult{}, err
		}
		email := body.Email
		if email == "" {
			email = req.Email
		}
		return SignInResult{NeedsActivation: true, Email: email, Message: body.Message}, nil
	}

	var body JWTResponse
	if err := decodeRaw(raw, &body); err != nil {
		return SignInResult{}, err
	}
	if body.Token == "" {
		return SignInResult{}, apperrors.Internal("sign-in response carried no token")
	}
	return SignInResult{Token: body.Token, User: body.User()}, nil
}

// SignUp registers an account and returns the backend's message.
func (a *Auth) SignUp(ctx context.Context, req SignUpRequest) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	if req.Username == "" {
		req.Username = req.Email
	}
	return a.message(ctx, backend.Request{Method: http.MethodPost, Path: "/api/auth/signup", Body: req})
}

// ActivateAccount exchanges the temporary password for a new one.
func (a *Auth) ActivateAccount(ctx context.Context, req ActivateAccountRequest) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	return a.message(ctx, backend.Request{Method: http.MethodPost, Path: "/api/auth/activate-account", Body: req})
}

// CheckAuth validates token and returns its user.
func (a *Auth) CheckAuth(ctx context.Context, token string) (domain.User, error) {
	var body JWTResponse
	if _, err := a.c.Do(ctx, backend.Request{Method: http.MethodPost, Path: "/api/auth/check-auth", Bearer: token}, &body); err != nil {
		return domain.User{}, err
	}
	return body.User(), nil
}

// ChangePassword changes the signed-in user's password.
func (a *Auth) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	return a.message(ctx, backend.Request{Method: http.MethodPost, Path: "/api/auth/change-password", Body: req, Auth: true})
}

// ForgotPassword requests a reset link.
func (a *Auth) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	return a.message(ctx, backend.Request{Method: http.MethodPost, Path: "/api/auth/forgot-password", Body: req})
}

// ResetPassword sets a new password with a reset token.
func (a *Auth) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	return a.message(ctx, backend.Request{Method: http.MethodPost, Path: "/api/auth/reset-password", Body: req})
}

type tokenValidity struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ValidateResetToken reports whether a reset token is still usable. A 400
// answer is a valid "no", not an error.
func (a *Auth) ValidateResetToken(ctx context.Context, token string) (bool, string, error) {
	if token == "" {
		return false, "", apperrors.InvalidInput("reset token is required")
	}
	var body tokenValidity
	_, err := a.c.Do(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   "/api/auth/validate-reset-token",
		Query:  url.Values{"token": {token}},
	}, &body)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Status == http.StatusBadRequest {
			return false, appErr.Message, nil
		}
		return false, "", err
	}
	return body.Valid, body.Message, nil
}

func (a *Auth) message(ctx context.Context, r backend.Request) (string, error) {
	var body MessageResponse
	if _, err := a.c.Do(ctx, r, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

func decodeRaw(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Validate rejects a form client-side as an invalid-input AppError.
func Validate(form any) error {
	if err := validator.Validate(form); err != nil {
		appErr := apperrors.InvalidInput(err.Error())
		appErr.Err = fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
		return appErr
	}
	return nil
}
