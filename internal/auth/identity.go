package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/travelearn/tne-admin/internal/shared"
)

// ErrTokenExpired is returned for tokens whose exp claim has passed.
var ErrTokenExpired = shared.ErrSessionExpired

// Identity is what the dashboard reads from the backend token. The backend
// signs it; the signature is not checked here.
type Identity struct {
	Subject   string
	Name      string
	Email     string
	ExpiresAt time.Time
}

// DisplayName returns the best label for the top bar.
func (i Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	default:
		return "Admin"
	}
}

// Expired reports whether the token has an expiry before now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// ParseIdentity decodes the claims of token without verifying its signature.
func ParseIdentity(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("auth: parse token: %w", err)
	}
	id := Identity{
		Name:  firstClaim(claims, "name", "username", "firstName"),
		Email: firstClaim(claims, "email"),
	}
	id.Subject, _ = claims.GetSubject()
	if id.Subject == "" {
		id.Subject = firstClaim(claims, "id", "_id", "userId")
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
