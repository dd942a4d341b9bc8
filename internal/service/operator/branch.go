package operator

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strings"

	"minishop-gateway/internal/domain"
	"minishop-gateway/internal/mappicker"
)

// BranchInput is the branch form. A nil Week means the default Mon–Fri week.
type BranchInput struct {
	Name        string               `json:"name"`
	TgChannelID string               `json:"tgChannelId"`
	Week        []domain.ScheduleDay `json:"week,omitempty"`
	Lat         *float64             `json:"lat"`
	Lon         *float64             `json:"lon"`
}

type branchPayload struct {
	Name        string          `json:"name"`
	TgChannelID string          `json:"tgChannelId"`
	Schedule    domain.Schedule `json:"schedule"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
}

func (in BranchInput) payload() (branchPayload, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return branchPayload{}, domain.Invalid("name", "name required")
	}
	lat, lon, err := coordinates(in.Lat, in.Lon, true)
	if err != nil {
		return branchPayload{}, err
	}
	schedule, err := scheduleFrom(in.Week)
	if err != nil {
		return branchPayload{}, err
	}
	return branchPayload{
		Name:        name,
		TgChannelID: strings.TrimSpace(in.TgChannelID),
		Schedule:    schedule,
		Lat:         *lat,
		Lon:         *lon,
	}, nil
}

// ListBranches returns the shop's branches. ErrShopMissing means the
// operator must create a shop first.
func (s *Service) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	resp, err := s.api.Fetch(ctx, "/operator/branches", nil)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		return nil, domain.ErrShopMissing
	}
	if !resp.OK {
		return nil, decode(resp, "Не удалось загрузить филиалы", nil)
	}
	return listOf[domain.Branch](resp.Decode, "branches")
}

// GetBranch loads one branch.
func (s *Service) GetBranch(ctx context.Context, id string) (domain.Branch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Branch{}, domain.Invalid("branchId", "branch id required")
	}
	var body struct {
		Branch *domain.Branch `json:"branch"`
	}
	if err := s.fetch(ctx, "/operator/branch/"+url.PathEscape(id), nil, "Не удалось загрузить филиал", &body); err != nil {
		return domain.Branch{}, err
	}
	if body.Branch == nil {
		return domain.Branch{}, domain.ErrNotFound
	}
	return *body.Branch, nil
}

// CreateBranch adds a branch to the shop.
func (s *Service) CreateBranch(ctx context.Context, in BranchInput) (domain.Branch, error) {
	body, err := in.payload()
	if err != nil {
		return domain.Branch{}, err
	}
	var out struct {
		Branch *domain.Branch `json:"branch"`
	}
	if err := s.call(ctx, http.MethodPost, "/operator/branch", body, "Не удалось создать филиал", &out); err != nil {
		return domain.Branch{}, err
	}
	s.api.Forget("/operator/branches", nil)
	return branchFromResponse(out.Branch, "", body), nil
}

// UpdateBranch replaces a branch's settings.
func (s *Service) UpdateBranch(ctx context.Context, id string, in BranchInput) (domain.Branch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Branch{}, domain.Invalid("branchId", "branch id required")
	}
	body, err := in.payload()
	if err != nil {
		return domain.Branch{}, err
	}
	var out struct {
		Branch *domain.Branch `json:"branch"`
	}
	path := "/operator/branch/" + url.PathEscape(id)
	if err := s.call(ctx, http.MethodPut, path, body, "Не удалось сохранить филиал", &out); err != nil {
		return domain.Branch{}, err
	}
	s.api.Forget(path, nil)
	s.api.Forget("/operator/branches", nil)
	return branchFromResponse(out.Branch, id, body), nil
}

// BranchForm is the edit form prefilled from a stored branch.
type BranchForm struct {
	Name        string               `json:"name"`
	TgChannelID string               `json:"tgChannelId"`
	Week        []domain.ScheduleDay `json:"week"`
	Lat         *float64             `json:"lat"`
	Lon         *float64             `json:"lon"`
}

// FormFromBranch prefills the edit form: stored days are enabled, others disabled.
func FormFromBranch(b domain.Branch) BranchForm {
	return BranchForm{
		Name:        b.Name,
		TgChannelID: b.TgChannelID,
		Week:        domain.WeekFromSchedule(b.Schedule),
		Lat:         b.Location.Lat,
		Lon:         b.Location.Lng,
	}
}

func branchFromResponse(got *domain.Branch, id string, sent branchPayload) domain.Branch {
	if got != nil {
		return *got
	}
	lat, lon := sent.Lat, sent.Lon
	return domain.Branch{
		ID:          id,
		Name:        sent.Name,
		TgChannelID: sent.TgChannelID,
		Schedule:    sent.Schedule,
		Location:    domain.Location{Lat: &lat, Lng: &lon},
	}
}

// scheduleFrom turns the weekday form into the enabled-days payload.
func scheduleFrom(week []domain.ScheduleDay) (domain.Schedule, error) {
	if week == nil {
		week = domain.DefaultWeek()
	}
	schedule := domain.EnabledSchedule(week)
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

// coordinates validates a picked location and rounds it the way the map picker does.
func coordinates(lat, lon *float64, required bool) (*float64, *float64, error) {
	if lat == nil || lon == nil {
		if required || lat != nil || lon != nil {
			return nil, nil, domain.Invalid("location", "pick a location on the map")
		}
		return nil, nil, nil
	}
	if math.IsNaN(*lat) || math.IsNaN(*lon) || *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return nil, nil, domain.Invalid("location", "coordinates out of range")
	}
	c := mappicker.Round(mappicker.Coordinate{Lat: *lat, Lng: *lon})
	return &c.Lat, &c.Lng, nil
}

// listOf decodes either a bare array or an object holding the array under key.
func listOf[T any](dec func(any) error, key string) ([]T, error) {
	var direct []T
	if err := dec(&direct); err == nil {
		if direct == nil {
			direct = []T{}
		}
		return direct, nil
	}
	var wrapped map[string]rawList[T]
	if err := dec(&wrapped); err != nil {
		return nil, err
	}
	items := wrapped[key].items
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// rawList tolerates a non-array value under the list key.
type rawList[T any] struct {
	items []T
}

func (r *rawList[T]) UnmarshalJSON(b []byte) error {
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		r.items = nil
		return nil
	}
	r.items = items
	return nil
}
