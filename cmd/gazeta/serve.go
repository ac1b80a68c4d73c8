package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gazeta/internal/articles"
	"gazeta/internal/auth"
	"gazeta/internal/backup"
	"gazeta/internal/build"
	"gazeta/internal/domain/config"
	"gazeta/internal/issue"
	"gazeta/internal/media"
	"gazeta/internal/metrics"
	"gazeta/internal/notify"
	"gazeta/internal/serve"
)

// issuePrefix is where issue PDFs live in the bucket.
const issuePrefix = "issues"

func runServe(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	m := metrics.New()

	st, err := openStore(cfg, log, m)
	if err != nil {
		return err
	}
	defer st.Close()

	secret := cfg.Env.JWTSecret
	if secret == "" {
		if !cfg.Env.Dev {
			return errors.New("GAZETA_JWT_SECRET is required outside dev mode")
		}
		secret = uuid.NewString()
		log.Warn("no JWT secret configured, sessions end on restart")
	}
	authSvc := auth.NewService(auth.NewRepo(st), auth.TokenService{
		Secret:   []byte(secret),
		Issuer:   cfg.Site.Title,
		Duration: cfg.Env.JWTTTL,
	}, log, m)
	if cfg.Env.AdminEmail != "" {
		if err := authSvc.EnsureUser(cfg.Env.AdminEmail, cfg.Env.AdminPassword); err != nil {
			return err
		}
	}

	var (
		objects *media.Client
		pdfs    issue.Source = issue.DirSource{Dir: filepath.Join(cfg.Build.PublicDir, "revista")}
	)
	if cfg.Env.S3Enabled() {
		objects, err = media.NewClient(ctx, media.Config{
			URL:    cfg.Env.S3URL,
			Region: cfg.Env.S3Region,
			Key:    cfg.Env.S3Key,
			Secret: cfg.Env.S3Secret,
			Bucket: cfg.Env.S3Bucket,
		})
		if err != nil {
			return err
		}
		pdfs = issue.ObjectSource{Objects: objects, Prefix: issuePrefix}
		log.Info("issue PDFs served from bucket", zap.String("bucket", objects.Bucket()))
	}

	srv, err := serve.New(serve.Options{
		Config:   cfg,
		Store:    st,
		Auth:     authSvc,
		Articles: articles.NewService(st, log),
		PDFs:     pdfs,
		Toasts:   notify.NewRegistry(notify.WithMetrics(m)),
		Metrics:  m,
		Log:      log,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	sched := cron.New()
	sitemap := &build.Builder{Cfg: cfg, Store: st, Log: log.Named("sitemap")}
	if _, err := sched.AddFunc(cfg.Env.SitemapSchedule, func() {
		if _, err := sitemap.Run(ctx); err != nil {
			log.Error("sitemap build failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	if objects != nil {
		job := backup.NewJob(st, objects, cfg.Env.KeepBackups, log, m)
		if _, err := sched.AddFunc(cfg.Env.BackupSchedule, func() {
			if _, err := job.Run(ctx); err != nil {
				log.Error("backup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	} else {
		log.Info("S3 not configured, backups disabled")
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	return srv.ListenAndServe(ctx, cfg.Env.HTTPAddr)
}
