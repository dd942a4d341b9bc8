// Package mappicker turns map clicks and branch lists into coordinate state,
// pins and viewports. Drawing is left to the map widget in the shell.
package mappicker

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LocateTimeout bounds a geolocation lookup.
const LocateTimeout = 8 * time.Second

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Round returns c with both components rounded to 6 decimal places.
func Round(c Coordinate) Coordinate {
	return Coordinate{Lat: round6(c.Lat), Lng: round6(c.Lng)}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Locator resolves the device position. Implementations should honour ctx.
type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Coordinate, error)

func (f LocatorFunc) Locate(ctx context.Context) (Coordinate, error) { return f(ctx) }

// Picker holds the point an operator selected for a branch or shop.
type Picker struct {
	mu       sync.Mutex
	selected *Coordinate
	logger   *zap.Logger
}

// NewPicker returns a picker, optionally seeded with an existing location.
func NewPicker(initial *Coordinate, logger *zap.Logger) *Picker {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Picker{logger: logger}
	if initial != nil {
		c := Round(*initial)
		p.selected = &c
	}
	return p
}

// Click selects lat/lng.
func (p *Picker) Click(lat, lng float64) Coordinate {
	c := Round(Coordinate{Lat: lat, Lng: lng})
	if !finite(c) {
		return p.current()
	}
	p.mu.Lock()
	p.selected = &c
	p.mu.Unlock()
	return c
}

// Clear removes the selection.
func (p *Picker) Clear() {
	p.mu.Lock()
	p.selected = nil
	p.mu.Unlock()
}

// Selected returns the current selection.
func (p *Picker) Selected() (Coordinate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return Coordinate{}, false
	}
	return *p.selected, true
}

func (p *Picker) current() Coordinate {
	c, _ := p.Selected()
	return c
}

// UseMyLocation selects the device position. Failure and denial leave the
// selection untouched and are only logged.
func (p *Picker) UseMyLocation(ctx context.Context, loc Locator) {
	if loc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, LocateTimeout)
	defer cancel()

	c, err := loc.Locate(ctx)
	if err != nil {
		p.logger.Debug("geolocation unavailable", zap.Error(err))
		return
	}
	if ctx.Err() != nil {
		return
	}
	p.Click(c.Lat, c.Lng)
}

func finite(c Coordinate) bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}
