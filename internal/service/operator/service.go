// Package operator implements the merchant admin: shop, branches, products,
// stock, stats, image upload and Telegram channel linking.
//
// Every method validates its input locally and returns a *domain.ValidationError
// without calling the backend when the input is unusable.
package operator

import (
	"context"
	"net/url"

	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/session"
)

type Service struct {
	api            *apiclient.Client
	logger         *zap.Logger
	botUsername    string
	storefrontBase string
}

type Option func(*Service)

// WithBotUsername sets the Telegram bot used in channel connect links.
func WithBotUsername(name string) Option {
	return func(s *Service) { s.botUsername = name }
}

// WithStorefrontBase sets the public base URL customers open a store at.
func WithStorefrontBase(base string) Option {
	return func(s *Service) { s.storefrontBase = base }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(api *apiclient.Client, opts ...Option) *Service {
	s := &Service{api: api, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// For returns a service whose upstream calls carry sess's token.
func (s *Service) For(sess apiclient.Auth) *Service {
	cp := *s
	cp.api = s.api.WithAuth(sess)
	return &cp
}

// Authenticate exchanges Telegram init-data for a backend token.
func (s *Service) Authenticate(ctx context.Context, initData string) (*session.Session, error) {
	sess := session.New(s.logger)
	if err := sess.Bootstrap(ctx, s.api.WithAuth(sess), initData); err != nil {
		return nil, err
	}
	return sess, nil
}

// call sends a request and turns a non-2xx response into an error.
func (s *Service) call(ctx context.Context, method, path string, body any, fallback string, out any) error {
	resp, err := s.api.RequestWithMeta(ctx, path, method, body, nil)
	if err != nil {
		return err
	}
	return decode(resp, fallback, out)
}

// fetch is call for de-duplicated GETs.
func (s *Service) fetch(ctx context.Context, path string, params url.Values, fallback string, out any) error {
	resp, err := s.api.Fetch(ctx, path, params)
	if err != nil {
		return err
	}
	return decode(resp, fallback, out)
}

func decode(resp apiclient.Response, fallback string, out any) error {
	if !resp.OK {
		return apiclient.AsError(resp, fallback)
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}
