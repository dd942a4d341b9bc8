package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/domain"
)

type stubRequester struct {
	calls int
	path  string
	body  any
	resp  apiclient.Response
	err   error
}

func (s *stubRequester) RequestWithMeta(_ context.Context, path, _ string, body any, _ http.Header) (apiclient.Response, error) {
	s.calls++
	s.path = path
	s.body = body
	return s.resp, s.err
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "op", "exp": exp.Unix()}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestLoginLogout(t *testing.T) {
	s := New(nil)
	if s.Authenticated() {
		t.Fatal("new session should be logged out")
	}
	s.Login("  opaque-token ")
	if got := s.Token(); got != "opaque-token" {
		t.Fatalf("token = %q", got)
	}
	s.Logout()
	if s.Authenticated() {
		t.Fatal("expected logout to clear token")
	}
}

func TestToken_ExpiredJWTIsHidden(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New(nil)
	s.now = func() time.Time { return now }

	s.Login(signed(t, now.Add(time.Hour)))
	if !s.Authenticated() {
		t.Fatal("expected valid token")
	}
	now = now.Add(2 * time.Hour)
	if s.Authenticated() {
		t.Fatal("expected expired token to be hidden")
	}
}

func TestBootstrap_StoresToken(t *testing.T) {
	req := &stubRequester{resp: apiclient.Response{OK: true, Status: 200, Data: json.RawMessage(`{"token":"abc"}`)}}
	s := New(nil)

	if err := s.Bootstrap(context.Background(), req, "query_id=1&user=%7B%22id%22%3A7%7D"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if s.Token() != "abc" {
		t.Fatalf("token = %q", s.Token())
	}
	if req.path != "/operator/auth" {
		t.Fatalf("path = %q", req.path)
	}
	body, _ := req.body.(map[string]string)
	if body["initDataRaw"] == "" {
		t.Fatalf("init data not forwarded: %#v", req.body)
	}
}

func TestBootstrap_OnlyOnce(t *testing.T) {
	req := &stubRequester{resp: apiclient.Response{OK: false, Status: 500}}
	s := New(nil)

	if err := s.Bootstrap(context.Background(), req, "raw"); err == nil {
		t.Fatal("expected failure")
	}
	if s.Authenticated() {
		t.Fatal("failed bootstrap must leave session logged out")
	}
	if err := s.Bootstrap(context.Background(), req, "raw"); !errors.Is(err, ErrAlreadyAttempted) {
		t.Fatalf("second attempt err = %v", err)
	}
	if req.calls != 1 {
		t.Fatalf("calls = %d, want 1", req.calls)
	}
}

func TestBootstrap_Unauthorized(t *testing.T) {
	req := &stubRequester{resp: apiclient.Response{Status: 401, Data: json.RawMessage(`{"error":"bad init data"}`)}}
	err := New(nil).Bootstrap(context.Background(), req, "raw")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
}

func TestBootstrap_EmptyInitData(t *testing.T) {
	req := &stubRequester{}
	if err := New(nil).Bootstrap(context.Background(), req, "  "); err == nil {
		t.Fatal("expected error")
	}
	if req.calls != 0 {
		t.Fatal("no request expected")
	}
}

func TestBootstrap_MissingToken(t *testing.T) {
	req := &stubRequester{resp: apiclient.Response{OK: true, Status: 200, Data: json.RawMessage(`{"token":""}`)}}
	if err := New(nil).Bootstrap(context.Background(), req, "raw"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseInitData(t *testing.T) {
	raw := url.Values{
		"user":      {`{"id":42,"username":"shopkeeper","first_name":"Ana"}`},
		"auth_date": {"1700000000"},
		"hash":      {"x"},
	}.Encode()
	got, err := ParseInitData(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != 42 || got.Username != "shopkeeper" || got.FirstName != "Ana" {
		t.Fatalf("got %+v", got)
	}
	if got.AuthDate.Unix() != 1700000000 {
		t.Fatalf("auth date %v", got.AuthDate)
	}
	if _, err := ParseInitData("hash=x"); err == nil {
		t.Fatal("expected error without user")
	}
}
