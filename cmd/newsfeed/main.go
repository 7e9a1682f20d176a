package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/newsfeed/internal/app"
	"github.com/samvad-hq/newsfeed/internal/config"
	"github.com/samvad-hq/newsfeed/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "newsfeed start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("newsfeed starting", "config", map[string]any{
		"api_base_url":     cfg.APIBaseURL,
		"sections":         cfg.Sections,
		"order_by":         cfg.SortOrder.String(),
		"page_size":        cfg.PageSize,
		"refresh_interval": cfg.RefreshInterval.String(),
		"storage_type":     cfg.StorageType,
		"enrich_articles":  cfg.EnrichArticles,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader, err := app.NewReader(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize reader", "error", err.Error())
		return err
	}

	if err := reader.Run(ctx); err != nil {
		return fmt.Errorf("reader run: %w", err)
	}

	return nil
}
