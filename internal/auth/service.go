package auth

import (
	"context"
	"errors"
	"time"

	"github.com/travelearn/tne-admin/internal/backend"
	"github.com/travelearn/tne-admin/internal/shared"
)

// Authenticator exchanges credentials for a backend token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Service wraps the backend login.
type Service struct {
	api Authenticator
	now func() time.Time
}

// NewService constructs a new Service.
func NewService(api Authenticator) *Service {
	return &Service{api: api, now: time.Now}
}

// Authenticate logs in against the backend and decodes the returned token.
// Rejected credentials surface as shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, Identity, error) {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return "", Identity{}, shared.ErrInvalidCredentials
		}
		return "", Identity{}, err
	}
	id, err := ParseIdentity(token)
	if err != nil {
		// Opaque tokens are still usable; only the display name is lost.
		id = Identity{}
	}
	if id.Email == "" {
		id.Email = email
	}
	if id.Expired(s.now()) {
		return "", Identity{}, ErrTokenExpired
	}
	return token, id, nil
}
