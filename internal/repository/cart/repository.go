package cart

import (
	"context"

	"minishop-gateway/internal/domain"
)

// Repository stores cart snapshots between requests. Missing or expired
// carts are reported as domain.ErrNotFound.
type Repository interface {
	Save(ctx context.Context, snap domain.CartSnapshot) error
	Get(ctx context.Context, id string) (domain.CartSnapshot, error)
	Delete(ctx context.Context, id string) error
	// Update loads the cart, lets fn change it and stores the result. Updates
	// of the same id never interleave, so no change is lost. An error from fn
	// aborts the update and is returned as is.
	Update(ctx context.Context, id string, fn func(snap *domain.CartSnapshot) error) (domain.CartSnapshot, error)
}

// Purger is implemented by stores that need expired carts swept out.
// Redis expires keys on its own.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
