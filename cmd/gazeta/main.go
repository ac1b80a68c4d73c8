package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gazeta/internal/domain/config"
	"gazeta/internal/logging"
	"gazeta/internal/metrics"
	"gazeta/internal/store"
)

const usage = `usage: gazeta [command]

commands:
  serve                 run the site and the admin (default)
  import <export.json>  load an exported articles/issues document into the store
  sitemap               write sitemap.xml and robots.txt into the public dir
`

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.LoadOrDefault("./site.yaml")
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	log, err := logging.New(cfg.Env.LogLevel, cfg.Env.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, log)
	case "import":
		if len(args) != 1 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		err = runImport(cfg, log, args[0])
	case "sitemap":
		err = runSitemap(ctx, cfg, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error(cmd+" failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func openStore(cfg config.Config, log *zap.Logger, m *metrics.Metrics) (*store.Store, error) {
	st, err := store.Open(store.OpenOptions{Path: cfg.Build.StorePath, Logger: log, Metrics: m})
	if err != nil {
		return nil, err
	}
	log.Info("store opened", zap.String("path", cfg.Build.StorePath))
	return st, nil
}
