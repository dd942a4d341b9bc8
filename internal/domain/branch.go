package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Location is a geographic point. Nil coordinates mean the backend sent no usable number.
type Location struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Valid reports whether both coordinates are present.
func (l Location) Valid() bool {
	return l.Lat != nil && l.Lng != nil
}

func (l *Location) UnmarshalJSON(b []byte) error {
	var raw struct {
		Lat any `json:"lat"`
		Lng any `json:"lng"`
		Lon any `json:"lon"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.Lat = numberOrNil(raw.Lat)
	l.Lng = numberOrNil(raw.Lng)
	if l.Lng == nil {
		l.Lng = numberOrNil(raw.Lon)
	}
	return nil
}

// ProductCount is the recorded stock of one product at a branch.
type ProductCount struct {
	ProductID FlexID     `json:"productId"`
	Count     FlexNumber `json:"count"`
}

// Branch is a physical pickup location of a shop.
type Branch struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Location      Location       `json:"location"`
	Schedule      Schedule       `json:"schedule,omitempty"`
	ProductCounts []ProductCount `json:"productCounts,omitempty"`
	LogoURL       string         `json:"logoUrl,omitempty"`
	TgChannelID   string         `json:"tgChannelId,omitempty"`
}

func (br *Branch) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID            FlexID         `json:"id"`
		LegacyID      FlexID         `json:"_id"`
		Name          string         `json:"name"`
		Location      *Location      `json:"location"`
		Schedule      Schedule       `json:"schedule"`
		ProductCounts []ProductCount `json:"productCounts"`
		LogoURL       string         `json:"logoUrl"`
		ShopLogoURL   string         `json:"shopLogoUrl"`
		TgChannelID   FlexID         `json:"tgChannelId"`
		TgChannelAlt  FlexID         `json:"tgChannel_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*br = Branch{
		ID:            firstNonEmpty(string(raw.ID), string(raw.LegacyID)),
		Name:          raw.Name,
		Schedule:      raw.Schedule,
		ProductCounts: raw.ProductCounts,
		LogoURL:       firstNonEmpty(raw.LogoURL, raw.ShopLogoURL),
		TgChannelID:   firstNonEmpty(string(raw.TgChannelID), string(raw.TgChannelAlt)),
	}
	if raw.Location != nil {
		br.Location = *raw.Location
	}
	return nil
}

// ScheduleEntry is one opening window; Day is 1 (Mon) through 7 (Sun).
type ScheduleEntry struct {
	Day   int    `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Schedule is an ordered set of entries, at most one per day.
type Schedule []ScheduleEntry

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks the day domain, day uniqueness and HH:MM times.
func (s Schedule) Validate() error {
	seen := make(map[int]struct{}, len(s))
	for _, e := range s {
		if e.Day < 1 || e.Day > 7 {
			return Invalid("schedule", fmt.Sprintf("day %d out of range 1..7", e.Day))
		}
		if _, dup := seen[e.Day]; dup {
			return Invalid("schedule", fmt.Sprintf("day %d listed twice", e.Day))
		}
		seen[e.Day] = struct{}{}
		if !clockPattern.MatchString(e.Open) || !clockPattern.MatchString(e.Close) {
			return Invalid("schedule", fmt.Sprintf("day %d: times must be HH:MM", e.Day))
		}
	}
	return nil
}

// ScheduleDay is the editable form of a weekday in the admin forms.
type ScheduleDay struct {
	Day     int    `json:"day"`
	Enabled bool   `json:"enabled"`
	Open    string `json:"open"`
	Close   string `json:"close"`
}

// DefaultWeek is the initial form state: Mon–Fri enabled, 09:00–17:00.
func DefaultWeek() []ScheduleDay {
	week := make([]ScheduleDay, 0, 7)
	for day := 1; day <= 7; day++ {
		week = append(week, ScheduleDay{Day: day, Enabled: day <= 5, Open: "09:00", Close: "17:00"})
	}
	return week
}

// WeekFromSchedule prefills the form: days present in s are enabled with their times.
func WeekFromSchedule(s Schedule) []ScheduleDay {
	week := DefaultWeek()
	byDay := make(map[int]ScheduleEntry, len(s))
	for _, e := range s {
		byDay[e.Day] = e
	}
	for i := range week {
		e, ok := byDay[week[i].Day]
		if !ok {
			week[i].Enabled = false
			continue
		}
		week[i].Enabled = true
		week[i].Open = e.Open
		week[i].Close = e.Close
	}
	return week
}

// EnabledSchedule keeps only enabled days, which is what the backend expects.
func EnabledSchedule(week []ScheduleDay) Schedule {
	out := Schedule{}
	for _, d := range week {
		if !d.Enabled {
			continue
		}
		out = append(out, ScheduleEntry{Day: d.Day, Open: d.Open, Close: d.Close})
	}
	return out
}
