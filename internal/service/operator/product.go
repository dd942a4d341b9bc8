package operator

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"minishop-gateway/internal/domain"
)

// ProductInput is the product form. Price is the text the operator typed.
type ProductInput struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"imageUrl"`
}

type productPayload struct {
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	ImageURL  *string `json:"imageUrl"`
	Price     float64 `json:"price"`
}

func (in ProductInput) payload() (productPayload, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return productPayload{}, domain.Invalid("name", "name required")
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return productPayload{}, err
	}
	var image *string
	if u := strings.TrimSpace(in.ImageURL); u != "" {
		image = &u
	}
	return productPayload{Name: name, ImageURL: image, Price: price}, nil
}

// ParsePrice accepts a comma or dot decimal and requires a finite value >= 0.
func ParsePrice(text string) (float64, error) {
	v, ok := domain.ParseDecimal(text)
	if !ok || v < 0 {
		return 0, domain.Invalid("price", "Цена должна быть числом >= 0")
	}
	return v, nil
}

// ListProducts returns the shop's products, optionally with the stock of one branch.
func (s *Service) ListProducts(ctx context.Context, branchID string) ([]domain.Product, error) {
	var params url.Values
	if b := strings.TrimSpace(branchID); b != "" {
		params = url.Values{"branchId": {b}}
	}
	resp, err := s.api.Fetch(ctx, "/operator/products", params)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, decode(resp, "Не удалось загрузить товары", nil)
	}
	return listOf[domain.Product](resp.Decode, "products")
}

// GetProduct finds one product in the list; the backend has no single-product read.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, domain.Invalid("productId", "Missing product id")
	}
	products, err := s.ListProducts(ctx, "")
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	body, err := in.payload()
	if err != nil {
		return domain.Product{}, err
	}
	resp, err := s.api.RequestWithMeta(ctx, "/operator/products", http.MethodPost, body, nil)
	if err != nil {
		return domain.Product{}, err
	}
	if !resp.OK {
		return domain.Product{}, decode(resp, "Не удалось создать товар", nil)
	}
	s.api.Forget("/operator/products", nil)
	return productFromResponse(resp.Decode, body), nil
}

// UpdateProduct replaces a product's name, price and image.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, domain.Invalid("productId", "Missing product id")
	}
	body, err := in.payload()
	if err != nil {
		return domain.Product{}, err
	}
	body.ProductID = id
	resp, err := s.api.RequestWithMeta(ctx, "/operator/products", http.MethodPut, body, nil)
	if err != nil {
		return domain.Product{}, err
	}
	if !resp.OK {
		return domain.Product{}, decode(resp, "Не удалось обновить товар", nil)
	}
	s.api.Forget("/operator/products", nil)
	p := productFromResponse(resp.Decode, body)
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Invalid("productId", "Missing product id")
	}
	body := map[string]string{"productId": id}
	if err := s.call(ctx, http.MethodDelete, "/operator/products", body, "Failed to delete product", nil); err != nil {
		return err
	}
	s.api.Forget("/operator/products", nil)
	return nil
}

func productFromResponse(dec func(any) error, sent productPayload) domain.Product {
	var env struct {
		Product *domain.Product `json:"product"`
	}
	if err := dec(&env); err == nil && env.Product != nil {
		return *env.Product
	}
	var direct domain.Product
	if err := dec(&direct); err == nil && direct.ID != "" {
		return direct
	}
	price := sent.Price
	p := domain.Product{ID: sent.ProductID, Name: sent.Name, Price: &price}
	if sent.ImageURL != nil {
		p.ImageURL = *sent.ImageURL
	}
	return p
}
