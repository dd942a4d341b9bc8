package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"minishop-gateway/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgres stores carts in cart_sessions. Carts idle for longer than ttl
// read as missing; ttl <= 0 disables expiry.
func NewPostgres(pool *pgxpool.Pool, ttl time.Duration) Repository {
	return &postgresRepo{pool: pool, ttl: ttl, now: time.Now}
}

// cutoff is the oldest updated_at still considered live, or nil without expiry.
func (r *postgresRepo) cutoff() *time.Time {
	if r.ttl <= 0 {
		return nil
	}
	t := r.now().Add(-r.ttl)
	return &t
}

func (r *postgresRepo) Save(ctx context.Context, snap domain.CartSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	const q = `
INSERT INTO cart_sessions (id, store, snapshot, item_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET snapshot = EXCLUDED.snapshot,
	item_count = EXCLUDED.item_count,
	updated_at = EXCLUDED.updated_at
`
	_, err = r.pool.Exec(ctx, q, snap.ID, snap.Store, payload, snap.Count, snap.CreatedAt, r.now())
	return err
}

func (r *postgresRepo) Get(ctx context.Context, id string) (domain.CartSnapshot, error) {
	const q = `
SELECT snapshot
FROM cart_sessions
WHERE id = $1
  AND ($2::timestamptz IS NULL OR updated_at >= $2)
`
	var payload []byte
	if err := r.pool.QueryRow(ctx, q, id, r.cutoff()).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CartSnapshot{}, domain.ErrNotFound
		}
		return domain.CartSnapshot{}, err
	}
	var snap domain.CartSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("decode cart %s: %w", id, err)
	}
	return snap, nil
}

// Update locks the row for the length of the transaction.
func (r *postgresRepo) Update(ctx context.Context, id string, fn func(snap *domain.CartSnapshot) error) (domain.CartSnapshot, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const sel = `
SELECT snapshot
FROM cart_sessions
WHERE id = $1
  AND ($2::timestamptz IS NULL OR updated_at >= $2)
FOR UPDATE
`
	var payload []byte
	if err := tx.QueryRow(ctx, sel, id, r.cutoff()).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CartSnapshot{}, domain.ErrNotFound
		}
		return domain.CartSnapshot{}, err
	}
	var snap domain.CartSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("decode cart %s: %w", id, err)
	}
	if err := fn(&snap); err != nil {
		return domain.CartSnapshot{}, err
	}
	snap.ID = id
	if payload, err = json.Marshal(snap); err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("encode cart: %w", err)
	}

	const upd = `
UPDATE cart_sessions
SET snapshot = $2,
	item_count = $3,
	updated_at = $4
WHERE id = $1
`
	if _, err := tx.Exec(ctx, upd, id, payload, snap.Count, r.now()); err != nil {
		return domain.CartSnapshot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.CartSnapshot{}, err
	}
	return snap, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PurgeExpired deletes carts idle for longer than the ttl.
func (r *postgresRepo) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := r.cutoff()
	if cutoff == nil {
		return 0, nil
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_sessions WHERE updated_at < $1`, *cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
