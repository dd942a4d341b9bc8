package operator

import (
	"context"
	"net/http"
	"strings"

	"minishop-gateway/internal/domain"
)

// ShopInput is the shop form. A nil Week means the default Mon–Fri week.
type ShopInput struct {
	Name        string               `json:"name"`
	CustomName  string               `json:"customName"`
	TgChannelID string               `json:"tgChannelId"`
	LogoURL     string               `json:"logoUrl"`
	Week        []domain.ScheduleDay `json:"week,omitempty"`
	Lat         *float64             `json:"lat"`
	Lon         *float64             `json:"lon"`
}

type shopPayload struct {
	Name        string          `json:"name"`
	CustomName  string          `json:"customName"`
	TgChannelID string          `json:"tgChannelId"`
	Schedule    domain.Schedule `json:"schedule"`
	LogoURL     string          `json:"logoUrl"`
	Lat         *float64        `json:"lat"`
	Lon         *float64        `json:"lon"`
}

func (in ShopInput) payload() (shopPayload, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shopPayload{}, domain.Invalid("name", "name required")
	}
	schedule, err := scheduleFrom(in.Week)
	if err != nil {
		return shopPayload{}, err
	}
	lat, lon, err := coordinates(in.Lat, in.Lon, false)
	if err != nil {
		return shopPayload{}, err
	}
	return shopPayload{
		Name:        name,
		CustomName:  strings.TrimSpace(in.CustomName),
		TgChannelID: strings.TrimSpace(in.TgChannelID),
		Schedule:    schedule,
		LogoURL:     strings.TrimSpace(in.LogoURL),
		Lat:         lat,
		Lon:         lon,
	}, nil
}

type shopEnvelope struct {
	Shop  *domain.Shop `json:"shop"`
	Store *domain.Shop `json:"store"`
}

func (e shopEnvelope) pick() (domain.Shop, bool) {
	switch {
	case e.Shop != nil:
		return *e.Shop, true
	case e.Store != nil:
		return *e.Store, true
	}
	return domain.Shop{}, false
}

// CreateShop registers the operator's shop.
func (s *Service) CreateShop(ctx context.Context, in ShopInput) (domain.Shop, error) {
	return s.saveShop(ctx, http.MethodPost, in, "Не удалось создать магазин")
}

// UpdateShop replaces the shop profile.
func (s *Service) UpdateShop(ctx context.Context, in ShopInput) (domain.Shop, error) {
	return s.saveShop(ctx, http.MethodPut, in, "Не удалось обновить магазин")
}

func (s *Service) saveShop(ctx context.Context, method string, in ShopInput, fallback string) (domain.Shop, error) {
	body, err := in.payload()
	if err != nil {
		return domain.Shop{}, err
	}
	resp, err := s.api.RequestWithMeta(ctx, "/operator/store", method, body, nil)
	if err != nil {
		return domain.Shop{}, err
	}
	if !resp.OK {
		return domain.Shop{}, s.shopError(resp.Status, decode(resp, fallback, nil))
	}
	s.api.Forget("/operator/store", nil)
	return shopFromResponse(resp.Decode, body), nil
}

// GetShop loads the operator's shop. A 404 means no shop yet.
func (s *Service) GetShop(ctx context.Context) (domain.Shop, error) {
	resp, err := s.api.Fetch(ctx, "/operator/store", nil)
	if err != nil {
		return domain.Shop{}, err
	}
	if !resp.OK {
		return domain.Shop{}, s.shopError(resp.Status, decode(resp, "Не удалось загрузить магазин", nil))
	}
	var env shopEnvelope
	if err := resp.Decode(&env); err == nil {
		if shop, ok := env.pick(); ok {
			return shop, nil
		}
	}
	var shop domain.Shop
	if err := resp.Decode(&shop); err != nil {
		return domain.Shop{}, err
	}
	return shop, nil
}

func (s *Service) shopError(status int, err error) error {
	if status == http.StatusNotFound {
		return domain.ErrShopMissing
	}
	return err
}

// shopFromResponse prefers what the backend echoed, falling back to what was sent.
func shopFromResponse(dec func(any) error, sent shopPayload) domain.Shop {
	var env shopEnvelope
	if err := dec(&env); err == nil {
		if shop, ok := env.pick(); ok {
			return shop
		}
	}
	return domain.Shop{
		Name:        sent.Name,
		CustomName:  sent.CustomName,
		TgChannelID: sent.TgChannelID,
		LogoURL:     sent.LogoURL,
		Schedule:    sent.Schedule,
		Location:    domain.Location{Lat: sent.Lat, Lng: sent.Lon},
	}
}
