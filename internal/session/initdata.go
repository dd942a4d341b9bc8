package session

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"
)

// InitData is the part of the Telegram init-data payload the gateway reads.
// Signature checks belong to the backend.
type InitData struct {
	UserID    int64
	Username  string
	FirstName string
	AuthDate  time.Time
}

// ParseInitData decodes the query-string encoded init-data.
func ParseInitData(raw string) (InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return InitData{}, err
	}
	userRaw := values.Get("user")
	if userRaw == "" {
		return InitData{}, errors.New("init data has no user")
	}
	var user struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return InitData{}, err
	}
	out := InitData{UserID: user.ID, Username: user.Username, FirstName: user.FirstName}
	if ts, err := strconv.ParseInt(values.Get("auth_date"), 10, 64); err == nil {
		out.AuthDate = time.Unix(ts, 0).UTC()
	}
	return out, nil
}
