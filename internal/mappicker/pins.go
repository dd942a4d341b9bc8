package mappicker

import (
	"net/url"

	"minishop-gateway/internal/availability"
	"minishop-gateway/internal/domain"
)

const (
	// FallbackZoom is used when there is nothing to show.
	FallbackZoom = 12
	// SinglePinZoom is used to center on a lone branch.
	SinglePinZoom = 15
	// FitPadding is the pixel padding around fitted bounds.
	FitPadding = 40

	insufficientPopup = "Недостаточно товаров на складе"
)

// FallbackCenter is the default map center.
var FallbackCenter = Coordinate{Lat: 42.87658553054612, Lng: 74.6036089976348}

// Pin is one branch marker.
type Pin struct {
	BranchID   string     `json:"branchId"`
	Name       string     `json:"name"`
	Position   Coordinate `json:"position"`
	LogoURL    string     `json:"logoUrl,omitempty"`
	Sufficient bool       `json:"sufficient"`
	Popup      string     `json:"popup"`
	Target     string     `json:"target,omitempty"`
}

// Pins places one pin per branch that has both coordinates.
func Pins(store string, branches []domain.Branch, req availability.Requirements) []Pin {
	out := make([]Pin, 0, len(branches))
	for _, v := range availability.Classify(req, branches) {
		b := v.Branch
		if !b.Location.Valid() {
			continue
		}
		pin := Pin{
			BranchID:   b.ID,
			Name:       b.Name,
			Position:   Coordinate{Lat: *b.Location.Lat, Lng: *b.Location.Lng},
			LogoURL:    b.LogoURL,
			Sufficient: v.Sufficient,
			Popup:      insufficientPopup,
		}
		if v.Sufficient {
			pin.Popup = "Филиал: " + b.ID
			pin.Target = BookingPath(store, b.ID)
		}
		out = append(out, pin)
	}
	return out
}

// BookingPath is the storefront path for booking at a branch.
func BookingPath(store, branchID string) string {
	return "/" + url.PathEscape(store) + "/branches/" + url.PathEscape(branchID) + "/booking"
}

// Tap returns where tapping pin navigates. Insufficient pins go nowhere.
func Tap(pin Pin) (string, bool) {
	if !pin.Sufficient || pin.Target == "" {
		return "", false
	}
	return pin.Target, true
}

// Bounds is a south-west/north-east box.
type Bounds struct {
	SouthWest Coordinate `json:"southWest"`
	NorthEast Coordinate `json:"northEast"`
}

// Viewport tells the widget how to frame the pins. Either Bounds or Center is set.
type Viewport struct {
	Bounds  *Bounds     `json:"bounds,omitempty"`
	Padding int         `json:"padding,omitempty"`
	Center  *Coordinate `json:"center,omitempty"`
	Zoom    int         `json:"zoom,omitempty"`
}

// ViewportFor frames pins.
func ViewportFor(pins []Pin) Viewport {
	switch len(pins) {
	case 0:
		c := FallbackCenter
		return Viewport{Center: &c, Zoom: FallbackZoom}
	case 1:
		c := pins[0].Position
		return Viewport{Center: &c, Zoom: SinglePinZoom}
	}
	b := Bounds{SouthWest: pins[0].Position, NorthEast: pins[0].Position}
	for _, p := range pins[1:] {
		b.SouthWest.Lat = min(b.SouthWest.Lat, p.Position.Lat)
		b.SouthWest.Lng = min(b.SouthWest.Lng, p.Position.Lng)
		b.NorthEast.Lat = max(b.NorthEast.Lat, p.Position.Lat)
		b.NorthEast.Lng = max(b.NorthEast.Lng, p.Position.Lng)
	}
	return Viewport{Bounds: &b, Padding: FitPadding}
}
