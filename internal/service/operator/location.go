package operator

import (
	"context"
	"errors"

	"minishop-gateway/internal/mappicker"
)

var errNoDevicePosition = errors.New("device position not reported")

// LocationPick is one round of the branch location picker. Current is the
// selection the form holds; Click and UseMyLocation change it, Clear drops it.
// Device is the position the client's geolocation reported, if any.
type LocationPick struct {
	Current       *mappicker.Coordinate `json:"current,omitempty"`
	Clear         bool                  `json:"clear,omitempty"`
	Click         *mappicker.Coordinate `json:"click,omitempty"`
	UseMyLocation bool                  `json:"useMyLocation,omitempty"`
	Device        *mappicker.Coordinate `json:"device,omitempty"`
}

// PickLocation applies the pick and returns the resulting selection, nil
// when nothing is selected. A failed device lookup keeps the selection.
func (s *Service) PickLocation(ctx context.Context, in LocationPick) *mappicker.Coordinate {
	p := mappicker.NewPicker(in.Current, s.logger)
	if in.Clear {
		p.Clear()
	}
	if in.Click != nil {
		p.Click(in.Click.Lat, in.Click.Lng)
	}
	if in.UseMyLocation {
		p.UseMyLocation(ctx, mappicker.LocatorFunc(func(context.Context) (mappicker.Coordinate, error) {
			if in.Device == nil {
				return mappicker.Coordinate{}, errNoDevicePosition
			}
			return *in.Device, nil
		}))
	}
	c, ok := p.Selected()
	if !ok {
		return nil
	}
	return &c
}
