package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/config"
	"minishop-gateway/internal/db"
	"minishop-gateway/internal/httpserver"
	"minishop-gateway/internal/migrate"
	cartrepo "minishop-gateway/internal/repository/cart"
	cartsvc "minishop-gateway/internal/service/cart"
	operatorsvc "minishop-gateway/internal/service/operator"
	storefrontsvc "minishop-gateway/internal/service/storefront"
)

// purgeInterval is how often expired carts are swept from stores without native expiry.
const purgeInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openCartStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open cart store", zap.String("backend", cfg.CartStore), zap.Error(err))
	}
	defer store.close()

	if purger, ok := store.repo.(cartrepo.Purger); ok {
		go purgeLoop(ctx, purger, logger)
	}

	upstream := apiclient.New(cfg.UpstreamBaseURL, nil, apiclient.WithLogger(logger.Named("upstream")))
	carts := cartsvc.New(store.repo, logger.Named("cart"))
	srv, err := httpserver.New(cfg.HTTPAddr, logger, store.pool, httpserver.Deps{
		Carts:      carts,
		Storefront: storefrontsvc.New(upstream, carts, logger.Named("storefront")),
		Operator: operatorsvc.New(upstream,
			operatorsvc.WithBotUsername(cfg.TelegramBotUsername),
			operatorsvc.WithStorefrontBase(cfg.StorefrontBaseURL),
			operatorsvc.WithLogger(logger.Named("operator")),
		),
		CORSOrigins:       cfg.CORSOrigins,
		BookingRatePerMin: cfg.BookingRatePerMin,
		Production:        cfg.Production(),
		Ready:             store.ready,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

type cartStore struct {
	repo  cartrepo.Repository
	pool  *pgxpool.Pool
	ready []httpserver.Pinger
	close func()
}

func openCartStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (cartStore, error) {
	switch cfg.CartStore {
	case config.CartStorePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return cartStore{}, err
		}
		if err := migrate.Apply(ctx, pool, logger.Named("migrate")); err != nil {
			pool.Close()
			return cartStore{}, err
		}
		return cartStore{repo: cartrepo.NewPostgres(pool, cfg.CartTTL), pool: pool, close: pool.Close}, nil

	case config.CartStoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return cartStore{}, err
		}
		ping := httpserver.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
		return cartStore{
			repo:  cartrepo.NewRedis(client, cfg.CartTTL),
			ready: []httpserver.Pinger{ping},
			close: func() { _ = client.Close() },
		}, nil
	}

	logger.Warn("cart sessions kept in memory; they are lost on restart")
	return cartStore{repo: cartrepo.NewMemory(cfg.CartTTL), close: func() {}}, nil
}

func purgeLoop(ctx context.Context, purger cartrepo.Purger, logger *zap.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purger.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired carts", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired carts", zap.Int64("count", n))
			}
		}
	}
}
