package serve

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gazeta/internal/auth"
	domainerr "gazeta/internal/domain/errors"
	"gazeta/internal/notify"
	"gazeta/internal/render"
)

const htmlContentType = "text/html; charset=utf-8"

// base fills the fields shared by every page.
func (s *Server) base(c *gin.Context, title, description string) render.Base {
	b := render.Base{
		Site:        s.cfg.Site,
		Title:       title,
		Description: description,
		Path:        c.Request.URL.Path,
		Dev:         s.cfg.Env.Dev,
	}
	if b.Description == "" {
		b.Description = s.cfg.Site.Description
	}
	if sess, ok := auth.GetSession(c); ok {
		b.Admin = sess.Email
	}
	return b
}

// html renders a page with fn and writes it with status. A render failure
// becomes the error page.
func (s *Server) html(c *gin.Context, status int, fn func(ctx context.Context, r render.Renderer) ([]byte, error)) {
	body, err := fn(c.Request.Context(), s.renderer())
	if err != nil {
		s.log.Error("render failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		s.renderError(c, http.StatusInternalServerError, "Pagina nu a putut fi afișată.")
		return
	}
	c.Data(status, htmlContentType, body)
}

func (s *Server) renderError(c *gin.Context, status int, msg string) {
	page := render.ErrorPage{Base: s.base(c, "Eroare", ""), Message: msg}
	body, err := s.renderer().RenderError(c.Request.Context(), page)
	if err != nil {
		c.String(status, msg)
		return
	}
	c.Data(status, htmlContentType, body)
}

func (s *Server) notFound(c *gin.Context) {
	s.html(c, http.StatusNotFound, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderNotFound(ctx, render.NotFoundPage{
			Base:        s.base(c, "Pagina nu a fost găsită", ""),
			RequestPath: c.Request.URL.Path,
		})
	})
}

// fail maps a domain error to a response.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainerr.ErrNotFound):
		s.notFound(c)
	case errors.Is(err, domainerr.ErrUnauthorized):
		c.String(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domainerr.ErrInvalid):
		s.renderError(c, http.StatusBadRequest, "Cerere invalidă.")
	default:
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		s.renderError(c, http.StatusInternalServerError, "A apărut o eroare. Încearcă din nou.")
	}
}

// queue returns the toast queue of the signed-in session, or nil.
func (s *Server) queue(c *gin.Context) *notify.Queue {
	sess, ok := auth.GetSession(c)
	if !ok {
		return nil
	}
	return s.toasts.For(sess.ID)
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// wantsJSON reports whether the client asked for a JSON reply.
func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON ||
		c.ContentType() == gin.MIMEJSON
}
