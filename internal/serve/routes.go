package serve

import (
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gazeta/internal/auth"
	"gazeta/internal/domain/site"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.accessLog())

	staticDir := filepath.Join(s.cfg.Build.ThemeDir, s.cfg.Site.Theme, "static")
	r.Static("/css", filepath.Join(staticDir, "css"))
	r.Static("/js", filepath.Join(staticDir, "js"))
	r.Static("/images", filepath.Join(staticDir, "images"))

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	if s.cfg.Env.Dev {
		r.GET("/dev/events", s.handleDevEvents)
	}

	r.GET(site.PathHome, s.handleHome)
	r.GET(site.PathTeam, s.handleStaticSlug("echipa"))
	r.GET(site.PathContact, s.handleStaticSlug("contact"))
	r.GET(site.PathListing, s.handleListing)
	r.GET("/articol/:slug", s.handleArticle)
	r.GET(site.PathIssues, s.handleIssues)
	r.GET("/revista/:id", s.handleIssue)
	r.GET("/revista/:id/pdf", s.handleIssuePDF)
	r.POST("/revista/:id/viewer", s.handleViewerState)
	r.GET("/sitemap.xml", s.handleSitemap)
	r.GET("/robots.txt", s.handleRobots)
	r.GET("/ws/feed", s.handleFeedSocket)

	r.GET(auth.LoginPath, auth.LoadSession(s.auth), s.handleLoginForm)
	r.POST("/admin/login", s.handleLogin)

	admin := r.Group("/admin", auth.RequireSession(s.auth))
	admin.POST("/logout", s.handleLogout)
	admin.GET("/dashboard", s.handleDashboard)
	admin.GET("/new-article", s.handleNewArticle)
	admin.POST("/new-article", s.handleCreateArticle)
	admin.GET("/edit-article/:id", s.handleEditArticle)
	admin.POST("/edit-article/:id", s.handleUpdateArticle)
	admin.POST("/articles/:id/delete", s.handleDeleteArticle)
	admin.POST("/tags", s.handleTagStep)
	admin.GET("/toasts", s.handleToastStream)
	admin.POST("/toasts/dismiss", s.handleDismissAll)
	admin.POST("/toasts/:id/dismiss", s.handleDismiss)

	r.NoRoute(s.handleNotFound)
	return r
}

// accessLog writes one line per request at debug level, and at info for
// server errors.
func (s *Server) accessLog() gin.HandlerFunc {
	log := s.log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("took", time.Since(start)),
		}
		if status >= 500 {
			log.Info("request", fields...)
			return
		}
		log.Debug("request", fields...)
	}
}
