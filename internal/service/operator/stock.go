package operator

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strings"

	"minishop-gateway/internal/domain"
)

// StockCount reads the recorded stock of one product at a branch.
// A nil result means the backend did not report a number.
func (s *Service) StockCount(ctx context.Context, branchID, productID string) (*float64, error) {
	path, err := stockPath(branchID, productID)
	if err != nil {
		return nil, err
	}
	var body struct {
		StockCount any `json:"stockCount"`
	}
	if err := s.fetch(ctx, path, nil, "Не удалось загрузить остаток", &body); err != nil {
		return nil, err
	}
	if v, ok := body.StockCount.(float64); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return &v, nil
	}
	return nil, nil
}

// Replenish adds quantity units of a product at a branch.
func (s *Service) Replenish(ctx context.Context, branchID, productID string, quantity float64) error {
	path, err := stockPath(branchID, productID)
	if err != nil {
		return err
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return domain.Invalid("quantity", "Quantity must be a number > 0")
	}
	body := map[string]float64{"quantity": quantity}
	if err := s.call(ctx, http.MethodPost, path, body, "Failed to replenish stock", nil); err != nil {
		return err
	}
	s.api.Forget(path, nil)
	return nil
}

// StockLine is one row of a bulk replenishment.
type StockLine struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

// ReplenishMany sends every positive quantity in one request. Rows without a
// product id or with a non-positive quantity are dropped.
func (s *Service) ReplenishMany(ctx context.Context, branchID string, lines []StockLine) ([]StockLine, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return nil, domain.Invalid("branchId", "Please select a branch first.")
	}
	selected := make([]StockLine, 0, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" || math.IsNaN(l.Quantity) || math.IsInf(l.Quantity, 0) || l.Quantity <= 0 {
			continue
		}
		selected = append(selected, StockLine{ProductID: id, Quantity: l.Quantity})
	}
	if len(selected) == 0 {
		return nil, domain.Invalid("products", "Укажите количество больше 0 хотя бы для одного товара")
	}
	body := map[string][]StockLine{"products": selected}
	path := "/operator/stock/branch/" + url.PathEscape(branchID) + "/products"
	if err := s.call(ctx, http.MethodPost, path, body, "Не удалось пополнить товары", nil); err != nil {
		return nil, err
	}
	s.api.Forget("/operator/products", url.Values{"branchId": {branchID}})
	return selected, nil
}

func stockPath(branchID, productID string) (string, error) {
	branchID = strings.TrimSpace(branchID)
	productID = strings.TrimSpace(productID)
	if branchID == "" {
		return "", domain.Invalid("branchId", "Please select a branch first.")
	}
	if productID == "" {
		return "", domain.Invalid("productId", "Missing product id")
	}
	return "/operator/stock/branch/" + url.PathEscape(branchID) + "/product/" + url.PathEscape(productID), nil
}
