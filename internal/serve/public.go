package serve

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gazeta/internal/build"
	"gazeta/internal/domain/content"
	domainerr "gazeta/internal/domain/errors"
	"gazeta/internal/domain/site"
	"gazeta/internal/feed"
	"gazeta/internal/issue"
	"gazeta/internal/render"
	"gazeta/internal/store"
)

func (s *Server) handleHome(c *gin.Context) {
	published := feed.Published(s.snapshot(store.Articles).Map())
	issues := s.pipeline.Issues(s.snapshot(store.Issues).Map(), feed.Query{Page: 1, PerPage: s.cfg.Feed.HomeSize})

	s.html(c, http.StatusOK, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderHome(ctx, render.HomePage{
			Base:   s.base(c, s.cfg.Site.Title, ""),
			Latest: feed.Latest(published, s.cfg.Feed.HomeSize, ""),
			Issues: issues.Items,
		})
	})
}

// handleStaticSlug serves one of the markdown pages.
func (s *Server) handleStaticSlug(slug string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := s.staticPage(slug)
		if !ok {
			s.notFound(c)
			return
		}
		toc := make([]render.Heading, 0, len(p.res.Headings))
		for _, h := range p.res.Headings {
			if h.Level >= 2 && h.Level <= 3 {
				toc = append(toc, h)
			}
		}
		desc := p.page.Description
		if desc == "" {
			desc = p.res.Lead
		}
		s.html(c, http.StatusOK, func(ctx context.Context, r render.Renderer) ([]byte, error) {
			return r.RenderStatic(ctx, render.StaticPage{
				Base: s.base(c, p.page.Title, desc),
				Page: p.page,
				HTML: p.res.HTML,
				TOC:  toc,
			})
		})
	}
}

func (s *Server) handleListing(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	w := s.pipeline.Articles(s.snapshot(store.Articles).Map(), feed.Query{
		Status:      content.StatusPublished,
		RequireSlug: true,
		Search:      q,
		Page:        queryInt(c, "page", 1),
		PerPage:     s.cfg.Feed.ListSize,
	})
	s.html(c, http.StatusOK, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderListing(ctx, render.ListingPage{
			Base:   s.base(c, "Texte", ""),
			Query:  q,
			Window: w,
		})
	})
}

func (s *Server) handleArticle(c *gin.Context) {
	published := feed.Published(s.snapshot(store.Articles).Map())
	a, ok := feed.FindBySlug(published, c.Param("slug"))
	if !ok {
		s.notFound(c)
		return
	}
	s.views.Increment(a.ID)

	s.html(c, http.StatusOK, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderArticle(ctx, render.ArticlePage{
			Base:    s.base(c, a.Title, a.Summary),
			Article: a,
			Related: feed.Latest(published, s.cfg.Feed.RelatedSize, a.ID),
		})
	})
}

func (s *Server) handleIssues(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	w := s.pipeline.Issues(s.snapshot(store.Issues).Map(), feed.Query{
		Search:  q,
		Page:    queryInt(c, "page", 1),
		PerPage: s.cfg.Feed.IssueSize,
	})
	s.html(c, http.StatusOK, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderIssues(ctx, render.IssuesPage{
			Base:   s.base(c, "Reviste", ""),
			Query:  q,
			Window: w,
		})
	})
}

// findIssue looks an issue up by id among the current issues.
func (s *Server) findIssue(id string) (content.Issue, bool) {
	if !issue.ValidID(id) {
		return content.Issue{}, false
	}
	for _, is := range feed.NormalizeIssues(s.snapshot(store.Issues).Map()) {
		if is.ID == id {
			return is, true
		}
	}
	return content.Issue{}, false
}

func (s *Server) handleIssue(c *gin.Context) {
	is, ok := s.findIssue(c.Param("id"))
	if !ok {
		s.notFound(c)
		return
	}
	pdfURL := site.IssuePDFPath(is.ID)
	if issue.IsExternal(is.PDF) {
		pdfURL = is.PDF
	}
	s.html(c, http.StatusOK, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderIssue(ctx, render.IssuePage{
			Base:   s.base(c, is.Title, is.Description),
			Issue:  is,
			PDFURL: pdfURL,
			State:  issue.NewViewer(0, false).State(),
		})
	})
}

func (s *Server) handleIssuePDF(c *gin.Context) {
	is, ok := s.findIssue(c.Param("id"))
	if !ok || is.PDF == "" {
		s.notFound(c)
		return
	}
	if issue.IsExternal(is.PDF) {
		c.Redirect(http.StatusFound, is.PDF)
		return
	}
	if s.pdfs == nil {
		s.notFound(c)
		return
	}
	rc, size, err := s.pdfs.Open(c.Request.Context(), is.PDF)
	if err != nil {
		if !errors.Is(err, domainerr.ErrNotFound) {
			s.log.Warn("issue pdf unavailable", zap.String("issue", is.ID), zap.Error(err))
		}
		s.notFound(c)
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Content-Disposition": `inline; filename="` + pdfName(is) + `"`,
		"Cache-Control":       "public, max-age=3600",
	}
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, "application/pdf", rc, headers)
}

// viewerRequest is what the issue page script posts on every interaction.
type viewerRequest struct {
	Pages  int     `json:"pages"`
	Mobile bool    `json:"mobile"`
	Spread int     `json:"spread"`
	Zoom   float64 `json:"zoom"`
	Action string  `json:"action"`
}

// handleViewerState applies one viewer action and returns the new state.
// An empty action just normalizes the posted state.
func (s *Server) handleViewerState(c *gin.Context) {
	if _, ok := s.findIssue(c.Param("id")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
		return
	}
	var req viewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viewer state"})
		return
	}
	if req.Pages < 0 || req.Pages > issue.MaxPages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pages out of range"})
		return
	}
	if req.Zoom == 0 {
		req.Zoom = 1
	}
	v := issue.Restore(req.Pages, req.Mobile, req.Spread, req.Zoom)
	if req.Action != "" && !v.Apply(req.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	c.JSON(http.StatusOK, v.State())
}

func (s *Server) handleSitemap(c *gin.Context) {
	published := feed.Published(s.snapshot(store.Articles).Map())
	body, err := build.Sitemap(build.BaseURL(s.cfg), s.routeBuilder.BuildSitemapRoutes(published))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

func (s *Server) handleRobots(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", build.Robots(build.BaseURL(s.cfg)))
}

func (s *Server) handleNotFound(c *gin.Context) {
	s.notFound(c)
}

// pdfName is the download name of an issue PDF.
func pdfName(is content.Issue) string {
	name := content.Slugify(is.Title)
	if name == "" {
		name = content.Slugify(is.ID)
	}
	if name == "" {
		name = "revista"
	}
	return name + ".pdf"
}
