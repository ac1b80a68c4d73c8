package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gazeta/internal/app"
	"gazeta/internal/articles"
	"gazeta/internal/auth"
	"gazeta/internal/domain/config"
	"gazeta/internal/feed"
	"gazeta/internal/issue"
	"gazeta/internal/logging"
	"gazeta/internal/metrics"
	"gazeta/internal/notify"
	"gazeta/internal/pages"
	"gazeta/internal/render"
	"gazeta/internal/store"
)

const reloadDebounce = 200 * time.Millisecond

type Options struct {
	Config   config.Config
	Store    *store.Store
	Auth     *auth.Service
	Articles *articles.Service
	// PDFs opens issue files stored by name. Nil means every local PDF is missing.
	PDFs    issue.Source
	Toasts  *notify.Registry
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

type Server struct {
	cfg          config.Config
	log          *zap.Logger
	store        *store.Store
	auth         *auth.Service
	articles     *articles.Service
	pdfs         issue.Source
	toasts       *notify.Registry
	metrics      *metrics.Metrics
	pipeline     *feed.Pipeline
	routeBuilder app.RouteBuilder
	views        *feed.ViewCounter
	guard        *articles.Guard
	md           *render.MarkdownRenderer
	engine       *gin.Engine

	mu     sync.RWMutex
	tpl    render.Renderer
	static map[string]staticPage

	snapMu sync.RWMutex
	snaps  map[store.Collection]store.Snapshot

	sseMu     sync.Mutex
	sseConns  map[chan string]struct{}
	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

// staticPage is a markdown page rendered once per reload.
type staticPage struct {
	page pages.Page
	res  render.MarkdownResult
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Auth == nil || opts.Articles == nil {
		return nil, errors.New("serve: store, auth and articles are required")
	}
	log := logging.OrNop(opts.Log).Named("serve")
	toasts := opts.Toasts
	if toasts == nil {
		toasts = notify.NewRegistry(notify.WithMetrics(opts.Metrics))
	}

	s := &Server{
		cfg:      opts.Config,
		log:      log,
		store:    opts.Store,
		auth:     opts.Auth,
		articles: opts.Articles,
		pdfs:     opts.PDFs,
		toasts:   toasts,
		metrics:  opts.Metrics,
		pipeline: feed.NewPipeline(log),
		views:    feed.NewViewCounter(opts.Store, log, opts.Metrics),
		guard:    articles.NewGuard(),
		md:       render.NewMarkdownRenderer(),
		static:   make(map[string]staticPage),
		snaps:    make(map[store.Collection]store.Snapshot),
		sseConns: make(map[chan string]struct{}),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	for _, c := range []store.Collection{store.Articles, store.Issues} {
		if err := s.refresh(c); err != nil {
			return nil, fmt.Errorf("serve: initial %s snapshot: %w", c, err)
		}
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

// Start follows the store and, in dev mode, the theme and pages on disk.
// Everything it starts stops with ctx.
func (s *Server) Start(ctx context.Context) error {
	for _, c := range []store.Collection{store.Articles, store.Issues} {
		if err := s.follow(ctx, c); err != nil {
			return err
		}
	}
	if s.cfg.Env.Dev {
		return s.startWatch(ctx)
	}
	return nil
}

func (s *Server) Close() error {
	s.views.Wait()
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// reload parses the theme templates and renders the markdown pages.
func (s *Server) reload() error {
	tpl, err := render.NewTemplateRenderer(s.cfg.Build.ThemeDir, s.cfg.Site.Theme)
	if err != nil {
		return fmt.Errorf("serve: load theme %s: %w", s.cfg.Site.Theme, err)
	}

	set, warns, err := pages.Load(s.cfg.Build.PagesDir)
	if err != nil {
		return fmt.Errorf("serve: load pages: %w", err)
	}
	for _, w := range warns {
		s.log.Warn("page skipped or patched", zap.String("path", w.Path), zap.String("msg", w.Msg))
	}

	static := make(map[string]staticPage, set.Len())
	for _, p := range set.All() {
		res, err := s.md.Render(p.Body)
		if err != nil {
			return fmt.Errorf("serve: render page %s: %w", p.Path, err)
		}
		static[p.Slug] = staticPage{page: p, res: res}
	}

	s.mu.Lock()
	s.tpl = tpl
	s.static = static
	s.mu.Unlock()

	s.log.Info("theme and pages loaded", zap.Int("pages", len(static)))
	s.broadcastSSE("reload")
	return nil
}

func (s *Server) renderer() render.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tpl
}

func (s *Server) staticPage(slug string) (staticPage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.static[slug]
	return p, ok
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		roots := []string{
			filepath.Join(s.cfg.Build.ThemeDir, s.cfg.Site.Theme),
			s.cfg.Build.PagesDir,
		}
		for _, root := range roots {
			if _, statErr := os.Stat(root); statErr != nil {
				continue
			}
			if e := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					return w.Add(path)
				}
				return nil
			}); e != nil {
				err = e
				return
			}
		}
		go s.watchLoop(ctx)
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	s.log.Info("watching theme and pages for changes")
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = s.watcher.Add(ev.Name)
					}
				}
				debounce.Reset(reloadDebounce)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", zap.Error(err))
		case <-debounce.C:
			if err := s.reload(); err != nil {
				s.log.Error("reload failed", zap.Error(err))
			}
		}
	}
}

func (s *Server) handleDevEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := make(chan string, 8)
	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		s.sseMu.Unlock()
	}()

	writeEvent(c, "", "hello")
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case msg := <-ch:
			writeEvent(c, "", msg)
		}
	}
}

func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}

// writeEvent writes one server-sent event and flushes it.
func writeEvent(c *gin.Context, event, data string) {
	var b strings.Builder
	if event != "" {
		b.WriteString("event: " + event + "\n")
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	_, _ = c.Writer.WriteString(b.String())
	c.Writer.Flush()
}
