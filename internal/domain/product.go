package domain

import "encoding/json"

// Product is the read-only catalog projection served by the upstream backend.
type Product struct {
	ID          string   `json:"id"`
	ProductID   string   `json:"productId,omitempty"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Description string   `json:"description,omitempty"`
}

// UnmarshalJSON accepts the upstream's `_id`/`id` and `imageUrl`/`image_url`/`image` spellings.
func (p *Product) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          FlexID `json:"id"`
		LegacyID    FlexID `json:"_id"`
		ProductID   FlexID `json:"productId"`
		Name        string `json:"name"`
		Price       any    `json:"price"`
		ImageURL    string `json:"imageUrl"`
		ImageURLAlt string `json:"image_url"`
		Image       string `json:"image"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Product{
		ID:          firstNonEmpty(string(raw.ID), string(raw.LegacyID)),
		ProductID:   string(raw.ProductID),
		Name:        raw.Name,
		Price:       numberOrNil(raw.Price),
		ImageURL:    firstNonEmpty(raw.ImageURL, raw.ImageURLAlt, raw.Image),
		Description: raw.Description,
	}
	return nil
}

// Key is the stable cart key: id, then productId, then name.
func (p Product) Key() string {
	return firstNonEmpty(p.ID, p.ProductID, p.Name)
}
