package backendtest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/domain"
)

type ctxKey struct{}

// issueToken signs an HS256 token for email that expires after ttl. A
// negative ttl yields an already-expired token.
func (s *Server) issueToken(email string, ttl time.Duration) string {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    "catalog-backend",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

// accountFromRequest resolves the bearer token to a live, enabled account.
func (s *Server) accountFromRequest(r *http.Request) (*account, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, false
	}

	token, err := jwt.ParseWithClaims(parts[1], &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[parts[1]] {
		return nil, false
	}
	acc := s.accountByEmail(claims.Subject)
	if acc == nil || !acc.user.Enabled {
		return nil, false
	}
	return acc, true
}

// requireRole rejects requests without a valid token (401) or without one
// of roles (403).
func (s *Server) requireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, ok := s.accountFromRequest(r)
			if !ok {
				writeText(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			allowed := len(roles) == 0
			for _, role := range roles {
				if acc.user.Role == role {
					allowed = true
				}
			}
			if !allowed {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"status": http.StatusForbidden,
					"error":  "Forbidden",
					"path":   r.URL.Path,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acc)))
		})
	}
}

func accountFromContext(ctx context.Context) *account {
	acc, _ := ctx.Value(ctxKey{}).(*account)
	return acc
}
