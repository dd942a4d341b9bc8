// Package session holds the operator's backend session token.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/domain"
)

// ErrAlreadyAttempted is returned when Bootstrap is called a second time.
var ErrAlreadyAttempted = errors.New("session bootstrap already attempted")

// Session is a single-writer, many-reader token holder. Every request reads
// the token at call time.
type Session struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	logger    *zap.Logger
	now       func() time.Time

	bootOnce sync.Once
}

// New returns an unauthenticated session.
func New(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{logger: logger, now: time.Now}
}

// FromToken returns a session already logged in with token.
func FromToken(token string, logger *zap.Logger) *Session {
	s := New(logger)
	s.Login(token)
	return s
}

// Token returns the current token, or "" when logged out or expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return ""
	}
	if !s.expiresAt.IsZero() && s.now().After(s.expiresAt) {
		return ""
	}
	return s.token
}

// Authenticated reports whether a usable token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Login stores token. A JWT carrying an exp claim expires locally at that time.
func (s *Session) Login(token string) {
	token = strings.TrimSpace(token)
	var expiresAt time.Time
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expiresAt = exp.Time
		}
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()
}

// Logout clears the token.
func (s *Session) Logout() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
	if had {
		s.logger.Info("session logged out")
	}
}

// Requester is the subset of the API client Bootstrap needs.
type Requester interface {
	RequestWithMeta(ctx context.Context, path, method string, body any, headers http.Header) (apiclient.Response, error)
}

type authResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// Bootstrap exchanges Telegram init-data for a session token. It is attempted
// at most once per session; a failure leaves the session logged out.
func (s *Session) Bootstrap(ctx context.Context, client Requester, initData string) error {
	err := ErrAlreadyAttempted
	s.bootOnce.Do(func() {
		err = s.bootstrap(ctx, client, initData)
	})
	return err
}

func (s *Session) bootstrap(ctx context.Context, client Requester, initData string) error {
	if strings.TrimSpace(initData) == "" {
		return domain.Invalid("initDataRaw", "init data required")
	}
	if user, err := ParseInitData(initData); err == nil {
		s.logger.Info("exchanging init data", zap.Int64("telegram_user_id", user.UserID), zap.String("username", user.Username))
	}

	resp, err := client.RequestWithMeta(ctx, "/operator/auth", http.MethodPost, map[string]string{"initDataRaw": initData}, nil)
	if err != nil {
		s.logger.Warn("init data exchange failed", zap.Error(err))
		return err
	}
	if !resp.OK {
		return apiclient.AsError(resp, "authentication failed")
	}
	var out authResponse
	if err := resp.Decode(&out); err != nil || out.Token == "" || out.Error != "" {
		return &domain.RequestError{Status: http.StatusBadGateway, Message: "authentication response carried no token"}
	}
	s.Login(out.Token)
	return nil
}
