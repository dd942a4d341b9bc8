// Package storefront serves the customer side: store lookup, branch choice and booking.
package storefront

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/availability"
	"minishop-gateway/internal/domain"
	"minishop-gateway/internal/mappicker"
)

// Upstream is the part of the API client the storefront uses.
type Upstream interface {
	RequestWithMeta(ctx context.Context, path, method string, body any, headers http.Header) (apiclient.Response, error)
	Fetch(ctx context.Context, resource string, params url.Values) (apiclient.Response, error)
}

// Carts is the cart-session surface booking needs.
type Carts interface {
	Get(ctx context.Context, store, id string) (*domain.Cart, error)
	Delete(ctx context.Context, store, id string) error
}

type Service struct {
	api    Upstream
	carts  Carts
	logger *zap.Logger
}

func New(api Upstream, carts Carts, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, carts: carts, logger: logger}
}

// LoadStore fetches the shop and its products.
func (s *Service) LoadStore(ctx context.Context, slug string) (domain.Storefront, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Storefront{}, domain.Invalid("store", "Store is required")
	}
	resp, err := s.api.Fetch(ctx, "/"+url.PathEscape(slug), nil)
	if err != nil {
		return domain.Storefront{}, err
	}
	if resp.Status == http.StatusNotFound {
		return domain.Storefront{}, domain.ErrStoreNotFound
	}
	if !resp.OK {
		return domain.Storefront{}, apiclient.AsError(resp, "Failed to load store")
	}
	var out domain.Storefront
	if err := resp.Decode(&out); err != nil {
		return domain.Storefront{}, err
	}
	if out.Products == nil {
		out.Products = []domain.Product{}
	}
	return out, nil
}

// BranchMap is the branches view: every branch with its verdict plus the map frame.
type BranchMap struct {
	Branches []availability.Verdict `json:"branches"`
	Pins     []mappicker.Pin        `json:"pins"`
	Viewport mappicker.Viewport     `json:"viewport"`
}

// Branches lists the store's branches classified against req.
func (s *Service) Branches(ctx context.Context, slug string, req availability.Requirements) (BranchMap, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return BranchMap{}, domain.Invalid("store", "Store is required")
	}
	ids := req.IDs()
	slices.Sort(ids)
	var params url.Values
	if len(ids) > 0 {
		params = url.Values{"productIds": ids}
	}

	resp, err := s.api.Fetch(ctx, "/store/"+url.PathEscape(slug)+"/branches", params)
	if err != nil {
		return BranchMap{}, err
	}
	if resp.Status == http.StatusNotFound {
		return BranchMap{}, domain.ErrStoreNotFound
	}
	if !resp.OK {
		return BranchMap{}, apiclient.AsError(resp, "Ошибка загрузки филиалов")
	}
	var body struct {
		Branches []domain.Branch `json:"branches"`
	}
	if err := resp.Decode(&body); err != nil {
		return BranchMap{}, err
	}
	pins := mappicker.Pins(slug, body.Branches, req)
	return BranchMap{
		Branches: availability.Classify(req, body.Branches),
		Pins:     pins,
		Viewport: mappicker.ViewportFor(pins),
	}, nil
}

// BranchesForCart classifies branches against the lines of a cart session.
func (s *Service) BranchesForCart(ctx context.Context, slug, cartID string) (BranchMap, error) {
	c, err := s.carts.Get(ctx, slug, cartID)
	if err != nil {
		return BranchMap{}, err
	}
	return s.Branches(ctx, slug, availability.FromLines(c.Lines()))
}

// TapBranch resolves where tapping a branch pin on the cart's map leads.
// Pins of branches that cannot serve the cart lead nowhere.
func (s *Service) TapBranch(ctx context.Context, slug, branchID, cartID string) (string, error) {
	m, err := s.BranchesForCart(ctx, slug, cartID)
	if err != nil {
		return "", err
	}
	for _, pin := range m.Pins {
		if pin.BranchID != branchID {
			continue
		}
		if target, ok := mappicker.Tap(pin); ok {
			return target, nil
		}
		return "", &domain.RequestError{Status: http.StatusConflict, Message: pin.Popup}
	}
	return "", domain.ErrNotFound
}

// Customer is the contact entered on the booking form.
type Customer struct {
	Name        string `json:"customerName"`
	Phone       string `json:"customerPhone"`
	Description string `json:"customerDescription,omitempty"`
}

// BookingResult reports a recorded order.
type BookingResult struct {
	Success bool `json:"success"`
}

// Book submits the cart as an order at a branch and discards the cart session.
func (s *Service) Book(ctx context.Context, slug, branchID, cartID string, customer Customer) (BookingResult, error) {
	slug = strings.TrimSpace(slug)
	branchID = strings.TrimSpace(branchID)
	order := domain.Order{
		CustomerName:        strings.TrimSpace(customer.Name),
		CustomerPhone:       strings.TrimSpace(customer.Phone),
		CustomerDescription: strings.TrimSpace(customer.Description),
	}
	verr := &domain.ValidationError{Message: "Missing required booking data", Fields: map[string]string{}}
	if slug == "" {
		verr.Fields["store"] = "required"
	}
	if branchID == "" {
		verr.Fields["branchId"] = "required"
	}
	if order.CustomerName == "" {
		verr.Fields["customerName"] = "required"
	}
	if order.CustomerPhone == "" {
		verr.Fields["customerPhone"] = "required"
	}
	if len(verr.Fields) > 0 {
		return BookingResult{}, verr
	}

	c, err := s.carts.Get(ctx, slug, cartID)
	if err != nil {
		return BookingResult{}, err
	}
	order.Products = c.OrderProducts()
	if len(order.Products) == 0 {
		return BookingResult{}, domain.Invalid("cart", "Cart is empty")
	}

	path := "/store/" + url.PathEscape(slug) + "/branches/" + url.PathEscape(branchID) + "/order"
	resp, err := s.api.RequestWithMeta(ctx, path, http.MethodPost, order, nil)
	if err != nil {
		return BookingResult{}, err
	}
	if !resp.OK {
		return BookingResult{}, apiclient.AsError(resp, "Failed to create booking")
	}
	s.logger.Info("booking created",
		zap.String("store", slug),
		zap.String("branch_id", branchID),
		zap.Int("items", c.TotalCount()),
	)
	if err := s.carts.Delete(ctx, slug, cartID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("discard cart after booking", zap.String("cart_id", cartID), zap.Error(err))
	}
	return BookingResult{Success: true}, nil
}
