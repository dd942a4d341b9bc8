package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"minishop-gateway/internal/domain"
	cartrepo "minishop-gateway/internal/repository/cart"
)

// Action names accepted by Apply.
const (
	ActionAdd      = "add"
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
	ActionRemove   = "remove"
	ActionOpen     = "open"
	ActionClose    = "close"
)

type Service struct {
	repo   cartrepo.Repository
	logger *zap.Logger
	newID  func() string
}

func New(repo cartrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, newID: func() string { return uuid.NewString() }}
}

// UpdateAction is one cart mutation. Product is used by add; Key by the others.
type UpdateAction struct {
	Action  string          `json:"action"`
	Product *domain.Product `json:"product,omitempty"`
	Key     string          `json:"key,omitempty"`
	Origin  *domain.Point   `json:"origin,omitempty"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

// Create mounts an empty cart for store.
func (s *Service) Create(ctx context.Context, store string) (domain.CartSnapshot, error) {
	store = strings.TrimSpace(store)
	if store == "" {
		return domain.CartSnapshot{}, domain.Invalid("store", "store required")
	}
	c := domain.NewCart(s.newID(), store)
	snap := c.Snapshot()
	if err := s.repo.Save(ctx, snap); err != nil {
		return domain.CartSnapshot{}, err
	}
	s.logger.Debug("cart created", zap.String("cart_id", snap.ID), zap.String("store", store))
	return snap, nil
}

// Get loads a cart of store.
func (s *Service) Get(ctx context.Context, store, id string) (*domain.Cart, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Store != store {
		return nil, domain.ErrNotFound
	}
	return domain.CartFromSnapshot(snap), nil
}

// Apply runs actions in order and stores the result. Unknown actions are
// rejected before anything is applied; the mutations themselves never fail.
// Concurrent Apply calls on one cart are serialized by the repository.
func (s *Service) Apply(ctx context.Context, store, id string, in UpdateInput) (domain.CartSnapshot, error) {
	if len(in.Actions) == 0 {
		return domain.CartSnapshot{}, domain.Invalid("actions", "actions required")
	}
	for _, a := range in.Actions {
		if err := validateAction(a); err != nil {
			return domain.CartSnapshot{}, err
		}
	}
	return s.repo.Update(ctx, id, func(snap *domain.CartSnapshot) error {
		if snap.Store != store {
			return domain.ErrNotFound
		}
		c := domain.CartFromSnapshot(*snap)
		for _, a := range in.Actions {
			applyAction(c, a)
		}
		*snap = c.Snapshot()
		return nil
	})
}

// Delete discards a cart. Missing carts are not an error.
func (s *Service) Delete(ctx context.Context, store, id string) error {
	if _, err := s.Get(ctx, store, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func validateAction(a UpdateAction) error {
	switch normalize(a.Action) {
	case ActionAdd:
		if a.Product == nil {
			return domain.Invalid("product", "product required")
		}
	case ActionIncrease, ActionDecrease, ActionRemove, ActionOpen, ActionClose:
	default:
		return domain.Invalid("action", "unsupported action")
	}
	return nil
}

func applyAction(c *domain.Cart, a UpdateAction) {
	switch normalize(a.Action) {
	case ActionAdd:
		c.AddToCart(*a.Product, a.Origin)
	case ActionIncrease:
		c.Increase(a.Key)
	case ActionDecrease:
		c.Decrease(a.Key)
	case ActionRemove:
		c.RemoveLine(a.Key)
	case ActionOpen:
		c.Open()
	case ActionClose:
		c.Close()
	}
}

func normalize(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
