package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/acg-climbing/sessions-api/internal/domain"
)

var ErrMiss = errors.New("cache miss")

// IdentityCache keeps resolved identities keyed by auth session id. Entries
// are also indexed by the identity's user so DeleteUser can drop every
// session of one user.
type IdentityCache interface {
	Get(ctx context.Context, key string) (domain.Identity, error)
	Set(ctx context.Context, key string, identity domain.Identity, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}
