package api

import "github.com/utafrali/storefront/internal/domain"

// SignInRequest is the login form.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest registers a new account. The backend mails a temporary
// password that must be exchanged through account activation.
type SignUpRequest struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

// ActivateAccountRequest exchanges the mailed temporary password.
type ActivateAccountRequest struct {
	Email             string `json:"email" validate:"required,email"`
	TemporaryPassword string `json:"temporaryPassword" validate:"required"`
	NewPassword       string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword   string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangePasswordRequest changes the signed-in user's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a reset with the mailed token.
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// CreateUserRequest is the owner's new-user form.
type CreateUserRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	FirstName string      `json:"firstName" validate:"required,max=50"`
	LastName  string      `json:"lastName" validate:"required,max=50"`
	Role      domain.Role `json:"role" validate:"required,oneof=USER ADMIN OWNER"`
}

// ImageUpload is one product image upload.
type ImageUpload struct {
	Filename     string
	ContentType  string
	Content      []byte
	AltText      string
	DisplayOrder int
	IsPrimary    bool
}

// ImageMetadata updates an uploaded image in place.
type ImageMetadata struct {
	AltText      *string
	DisplayOrder *int
	IsPrimary    *bool
}

// MessageResponse is the {"message": ...} body most mutations return.
type MessageResponse struct {
	Message string `json:"message"`
}
