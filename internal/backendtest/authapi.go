package backendtest

import (
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
)

type jwtResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func newJWTResponse(token string, u domain.User) jwtResponse {
	return jwtResponse{
		Token:     token,
		Type:      "Bearer",
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      "ROLE_" + string(u.Role),
	}
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(r, &req) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc := s.accountByEmail(req.Email)
	var user domain.User
	var pending, valid bool
	if acc != nil {
		user, pending = acc.user, acc.pending
		valid = acc.checkPassword(req.Password) && acc.user.Enabled
	}
	s.mu.Unlock()

	switch {
	case pending:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"message":         "Account requires activation. Please check your email for activation instructions.",
			"needsActivation": true,
			"email":           user.Email,
		})
	case !valid:
		writeMessage(w, http.StatusBadRequest, "Invalid username or password")
	default:
		writeJSON(w, http.StatusOK, newJWTResponse(s.issueToken(user.Email, s.TokenTTL), user))
	}
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if !decodeJSON(r, &req) || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountByEmail(req.Email) != nil {
		writeMessage(w, http.StatusBadRequest, "Error: Email is already in use!")
		return
	}
	u := domain.User{ID: s.id(), Email: req.Email, FirstName: req.FirstName, LastName: req.LastName, Role: domain.RoleUser, Enabled: true}
	s.accounts[u.ID] = &account{user: u, temporary: "temp-" + req.Email, pending: true}
	writeMessage(w, http.StatusOK, "Account created successfully! Please check your email for activation instructions. You have 48 hours to activate your account.")
}

func (s *Server) activate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email             string `json:"email"`
		TemporaryPassword string `json:"temporaryPassword"`
		NewPassword       string `json:"newPassword"`
		ConfirmPassword   string `json:"confirmPassword"`
	}
	if !decodeJSON(r, &req) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeMessage(w, http.StatusBadRequest, "New password and confirm password do not match")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountByEmail(req.Email)
	if acc == nil || !acc.pending || acc.temporary != req.TemporaryPassword {
		writeMessage(w, http.StatusBadRequest, "Invalid email or temporary password")
		return
	}
	if err := acc.setPassword(req.NewPassword); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	acc.pending, acc.temporary = false, ""
	writeMessage(w, http.StatusOK, "Account activated successfully! You can now log in with your new password.")
}

func (s *Server) checkAuth(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.accountFromRequest(r)
	if !ok {
		writeText(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	s.mu.Lock()
	user := acc.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, newJWTResponse("", user))
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decodeJSON(r, &req) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	acc := accountFromContext(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !acc.checkPassword(req.CurrentPassword):
		writeMessage(w, http.StatusBadRequest, "Current password is incorrect")
	case req.NewPassword != req.ConfirmPassword:
		writeMessage(w, http.StatusBadRequest, "New password and confirm password do not match")
	case req.NewPassword == req.CurrentPassword:
		writeMessage(w, http.StatusBadRequest, "New password must be different from current password")
	default:
		if err := acc.setPassword(req.NewPassword); err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeMessage(w, http.StatusOK, "Password changed successfully")
	}
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(r, &req) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	if s.accountByEmail(req.Email) != nil {
		s.resetTokens["reset-"+req.Email] = req.Email
	}
	s.mu.Unlock()
	writeMessage(w, http.StatusOK, "If an account with that email exists, we've sent a password reset link to it.")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decodeJSON(r, &req) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeMessage(w, http.StatusBadRequest, "New password and confirm password do not match")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resetTokens[req.Token]
	acc := s.accountByEmail(email)
	if !ok || acc == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	if err := acc.setPassword(req.NewPassword); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	delete(s.resetTokens, req.Token)
	writeMessage(w, http.StatusOK, "Password reset successfully. You can now log in with your new password.")
}

func (s *Server) validateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	s.mu.Lock()
	_, ok := s.resetTokens[token]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "message": "Invalid or expired token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "message": "Token is valid"})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	acc := accountFromContext(r.Context())
	s.mu.Lock()
	user := acc.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}
