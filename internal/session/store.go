// Package session provides the login session store used by the optional
// authentication gate.
package session

import (
	"context"
	"errors"

	"pdf-relay/internal/models"
)

// ErrNotFound is returned when no live session exists for a token.
var ErrNotFound = errors.New("session not found")

// Store is the capability interface the HTTP layer depends on. Implementations
// must be safe for concurrent use; there is no eviction beyond expiry.
type Store interface {
	Put(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}
