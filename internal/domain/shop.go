package domain

import "encoding/json"

// Shop is the operator's store profile.
type Shop struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug,omitempty"`
	Name        string   `json:"name"`
	CustomName  string   `json:"customName,omitempty"`
	LogoURL     string   `json:"logoUrl,omitempty"`
	TgChannelID string   `json:"tgChannelId,omitempty"`
	Schedule    Schedule `json:"schedule,omitempty"`
	Location    Location `json:"location"`
}

func (s *Shop) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          FlexID    `json:"id"`
		LegacyID    FlexID    `json:"_id"`
		Slug        string    `json:"slug"`
		Name        string    `json:"name"`
		CustomName  string    `json:"customName"`
		LogoURL     string    `json:"logoUrl"`
		TgChannelID FlexID    `json:"tgChannelId"`
		Schedule    Schedule  `json:"schedule"`
		Location    *Location `json:"location"`
		Lat         any       `json:"lat"`
		Lon         any       `json:"lon"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Shop{
		ID:          firstNonEmpty(string(raw.ID), string(raw.LegacyID)),
		Slug:        raw.Slug,
		Name:        raw.Name,
		CustomName:  raw.CustomName,
		LogoURL:     raw.LogoURL,
		TgChannelID: string(raw.TgChannelID),
		Schedule:    raw.Schedule,
	}
	if raw.Location != nil {
		s.Location = *raw.Location
	} else {
		s.Location = Location{Lat: numberOrNil(raw.Lat), Lng: numberOrNil(raw.Lon)}
	}
	return nil
}

// Storefront is what a customer sees for a store slug.
type Storefront struct {
	Shop     Shop      `json:"shop"`
	Products []Product `json:"products"`
}

// BranchStats are the per-branch sales figures on the operator dashboard.
type BranchStats struct {
	SoldProducts FlexNumber `json:"soldProducts"`
	EarnedAmount FlexNumber `json:"earnedAmount"`
	Canceled     FlexNumber `json:"canceled"`
	Pending      FlexNumber `json:"pending"`
}
