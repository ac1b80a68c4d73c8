package main

import (
	"context"

	"go.uber.org/zap"

	"gazeta/internal/build"
	"gazeta/internal/domain/config"
)

func runSitemap(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	st, err := openStore(cfg, log, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := (&build.Builder{Cfg: cfg, Store: st, Log: log}).Run(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		log.Info("sitemap up to date", zap.String("fingerprint", res.Fingerprint))
		return nil
	}
	log.Info("sitemap written", zap.Int("urls", res.URLs), zap.String("dir", cfg.Build.PublicDir))
	return nil
}
