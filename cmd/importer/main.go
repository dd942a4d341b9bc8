package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/config"
	"minishop-gateway/internal/importer"
	"minishop-gateway/internal/session"
	operatorsvc "minishop-gateway/internal/service/operator"
)

func main() {
	var (
		filePath string
		token    string
		initData string
		branchID string
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV (name,price[,imageUrl][,quantity])")
	flag.StringVar(&token, "token", os.Getenv("OPERATOR_TOKEN"), "Operator session token")
	flag.StringVar(&initData, "init-data", "", "Telegram init-data to exchange for a token when -token is empty")
	flag.StringVar(&branchID, "branch", "", "Branch to stock imported products at using the quantity column")
	flag.Parse()

	if filePath == "" || (token == "" && initData == "") {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	api := apiclient.New(cfg.UpstreamBaseURL, nil, apiclient.WithLogger(logger))
	op := operatorsvc.New(api, operatorsvc.WithLogger(logger))

	sess := session.FromToken(token, logger)
	if token == "" {
		sess, err = op.Authenticate(ctx, initData)
		if err != nil {
			logger.Fatal("authenticate", zap.Error(err))
		}
	}
	op = op.For(sess)

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	opts := []importer.Option{importer.WithLogger(logger)}
	if branchID != "" {
		opts = append(opts, importer.WithBranchStock(branchID, op))
	}
	imp := importer.NewCSVImporter(f, op, opts...)

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err), zap.Int("created", res.Created))
	}

	fmt.Printf("Imported %d products (%d stocked, %d blank rows) in %s\n",
		res.Created, res.Stocked, res.Skipped, time.Since(start).Truncate(time.Millisecond))
}
