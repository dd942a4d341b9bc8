package main

import (
	"context"
	"flag"

	"go.uber.org/zap"
	"minishop-gateway/internal/config"
	"minishop-gateway/internal/db"
	"minishop-gateway/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "revert the latest migration instead of applying all")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down {
		if err := migrate.Rollback(ctx, pool, logger); err != nil {
			logger.Fatal("rollback migration", zap.Error(err))
		}
		logger.Info("migration reverted")
		return
	}
	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	logger.Info("migrations applied")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
