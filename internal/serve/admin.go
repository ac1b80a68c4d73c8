package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gazeta/internal/articles"
	"gazeta/internal/auth"
	"gazeta/internal/domain/content"
	domainerr "gazeta/internal/domain/errors"
	"gazeta/internal/feed"
	"gazeta/internal/notify"
	"gazeta/internal/render"
	"gazeta/internal/store"
	"gazeta/internal/tags"
)

func dashboardURL(status content.Status) string {
	return auth.DashboardPath + "?tab=" + string(status)
}

func (s *Server) handleLoginForm(c *gin.Context) {
	if _, ok := auth.GetSession(c); ok {
		c.Redirect(http.StatusSeeOther, auth.DashboardPath)
		return
	}
	var toasts []notify.Toast
	if c.Query("out") == "1" {
		toasts = append(toasts, inlineToast("Deconectat cu succes", "", notify.VariantSuccess))
	}
	s.renderLogin(c, http.StatusOK, "", "", toasts)
}

func (s *Server) renderLogin(c *gin.Context, status int, email, msg string, toasts []notify.Toast) {
	s.html(c, status, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderLogin(ctx, render.LoginPage{
			Base:   s.base(c, "Autentificare", ""),
			Email:  email,
			Error:  msg,
			Toasts: toasts,
		})
	})
}

// inlineToast is a toast rendered with the page for visitors without a
// session queue.
func inlineToast(title, desc string, v notify.Variant) notify.Toast {
	return notify.Toast{Title: title, Description: desc, Variant: v, CreatedAt: time.Now()}
}

func (s *Server) handleLogin(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	sess, token, err := s.auth.SignIn(email, password)
	if err != nil {
		if errors.Is(err, domainerr.ErrUnauthorized) {
			msg := "Email sau parolă incorecte."
			s.renderLogin(c, http.StatusUnauthorized, email, msg,
				[]notify.Toast{inlineToast("Autentificare eșuată", msg, notify.VariantDestructive)})
			return
		}
		s.log.Error("sign-in failed", zap.Error(err))
		msg := "Autentificarea nu a putut fi finalizată. Încearcă din nou."
		s.renderLogin(c, http.StatusInternalServerError, email, msg,
			[]notify.Toast{inlineToast("Eroare", msg, notify.VariantDestructive)})
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	auth.SetCookie(c, token, maxAge, s.secureCookies())
	s.toasts.For(sess.ID).Post("Autentificare reușită", "Bun venit în panoul de administrare.", notify.VariantSuccess)
	c.Redirect(http.StatusSeeOther, auth.DashboardPath)
}

func (s *Server) secureCookies() bool {
	return strings.HasPrefix(s.cfg.Site.SiteURL, "https://")
}

func (s *Server) handleLogout(c *gin.Context) {
	if sess, ok := auth.GetSession(c); ok {
		if err := s.auth.SignOut(sess); err != nil {
			s.log.Error("sign-out failed", zap.String("email", sess.Email), zap.Error(err))
		}
		s.toasts.Drop(sess.ID)
	}
	auth.ClearCookie(c, s.secureCookies())
	c.Redirect(http.StatusSeeOther, auth.LoginPath+"?out=1")
}

func (s *Server) handleDashboard(c *gin.Context) {
	status, ok := content.ParseStatus(c.Query("tab"))
	if !ok {
		status = content.StatusPublished
	}
	q := strings.TrimSpace(c.Query("q"))
	raw := s.snapshot(store.Articles).Map()
	all := feed.NormalizeArticles(raw)

	tabs := []render.DashboardTab{
		{Status: content.StatusPublished, Label: "Publicate"},
		{Status: content.StatusDraft, Label: "Ciorne"},
	}
	for i := range tabs {
		tabs[i].Count = len(feed.FilterStatus(all, tabs[i].Status, false))
		tabs[i].Active = tabs[i].Status == status
	}

	w := s.pipeline.Articles(raw, feed.Query{
		Status:  status,
		Search:  q,
		Page:    queryInt(c, "page", 1),
		PerPage: s.cfg.Feed.AdminSize,
	})
	s.html(c, http.StatusOK, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderDashboard(ctx, render.DashboardPage{
			Base:   s.base(c, "Panou de administrare", ""),
			Tabs:   tabs,
			Status: status,
			Query:  q,
			Window: w,
			Toasts: s.queue(c).Snapshot(),
		})
	})
}

func (s *Server) renderEditor(c *gin.Context, status int, id string, f articles.Form, errs map[string]string) {
	title := "Articol nou"
	if id != "" {
		title = "Editează articolul"
	}
	s.html(c, status, func(ctx context.Context, r render.Renderer) ([]byte, error) {
		return r.RenderEditor(ctx, render.EditorPage{
			Base:   s.base(c, title, ""),
			ID:     id,
			Form:   f,
			Errors: errs,
			Toasts: s.queue(c).Snapshot(),
		})
	})
}

func (s *Server) handleNewArticle(c *gin.Context) {
	s.renderEditor(c, http.StatusOK, "", articles.Form{Status: string(content.StatusDraft)}, nil)
}

func (s *Server) handleEditArticle(c *gin.Context) {
	id := c.Param("id")
	a, err := s.articles.Load(id)
	if err != nil {
		s.adminFailure(c, err, "Articolul nu a putut fi încărcat.")
		return
	}
	s.renderEditor(c, http.StatusOK, id, articles.FormFromArticle(a), nil)
}

func (s *Server) handleCreateArticle(c *gin.Context) {
	s.saveArticle(c, "")
}

func (s *Server) handleUpdateArticle(c *gin.Context) {
	s.saveArticle(c, c.Param("id"))
}

// saveArticle runs the create (empty id) or update flow of the editor form.
func (s *Server) saveArticle(c *gin.Context, id string) {
	q := s.queue(c)

	var f articles.Form
	if err := c.ShouldBind(&f); err != nil {
		q.Post("Eroare", "Formularul nu a putut fi citit.", notify.VariantDestructive)
		s.renderEditor(c, http.StatusBadRequest, id, f, nil)
		return
	}
	f.Normalize()

	release, ok := s.acquire(c)
	if !ok {
		s.renderEditor(c, http.StatusConflict, id, f, nil)
		return
	}
	defer release()

	var (
		a   content.Article
		err error
	)
	if id == "" {
		a, err = s.articles.Create(f)
	} else {
		a, err = s.articles.Update(id, f)
	}

	var ve domainerr.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		q.Post("Verifică formularul", ve.Summary(), notify.VariantDestructive)
		s.renderEditor(c, http.StatusUnprocessableEntity, id, f, ve.Messages())
		return
	case errors.Is(err, domainerr.ErrNotFound):
		s.adminFailure(c, err, "")
		return
	default:
		s.log.Error("save article failed", zap.String("id", id), zap.Error(err))
		q.Post("Eroare", "Articolul nu a putut fi salvat. Încearcă din nou.", notify.VariantDestructive)
		s.renderEditor(c, http.StatusInternalServerError, id, f, nil)
		return
	}

	if err := s.refresh(store.Articles); err != nil {
		s.log.Warn("refresh after write failed", zap.Error(err))
	}
	switch {
	case id != "":
		q.Post("Articolul a fost actualizat!", a.Title, notify.VariantSuccess)
	case a.Status == content.StatusPublished:
		q.Post("Articolul a fost publicat.", a.Title, notify.VariantSuccess)
	default:
		q.Post("Articolul a fost salvat ca ciornă.", a.Title, notify.VariantSuccess)
	}
	c.Redirect(http.StatusSeeOther, dashboardURL(a.Status))
}

func (s *Server) handleDeleteArticle(c *gin.Context) {
	q := s.queue(c)
	id := c.Param("id")

	release, ok := s.acquire(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, auth.DashboardPath)
		return
	}
	defer release()

	a, err := s.articles.Load(id)
	if err == nil {
		err = s.articles.Delete(id)
	}
	if err != nil {
		s.adminFailure(c, err, "Articolul nu a putut fi șters.")
		return
	}
	if err := s.refresh(store.Articles); err != nil {
		s.log.Warn("refresh after write failed", zap.Error(err))
	}
	q.Post(fmt.Sprintf("Articol %q a fost șters", a.Title), "", notify.VariantSuccess)
	c.Redirect(http.StatusSeeOther, dashboardURL(a.Status))
}

// acquire takes the session's write slot. A second write while one is in
// flight is refused with a toast.
func (s *Server) acquire(c *gin.Context) (func(), bool) {
	sess, _ := auth.GetSession(c)
	release, ok := s.guard.Acquire(sess.ID)
	if !ok {
		s.queue(c).Post("Operațiune în curs", "Așteaptă finalizarea operațiunii anterioare.", notify.VariantDefault)
		return nil, false
	}
	return release, true
}

// adminFailure reports a failed admin action with a toast and goes back to
// the dashboard. A missing article gets its own message.
func (s *Server) adminFailure(c *gin.Context, err error, msg string) {
	q := s.queue(c)
	if errors.Is(err, domainerr.ErrNotFound) {
		q.Post("Articolul nu a fost găsit", "", notify.VariantDestructive)
	} else {
		s.log.Error("admin action failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		q.Post("Eroare", msg, notify.VariantDestructive)
	}
	c.Redirect(http.StatusSeeOther, auth.DashboardPath)
}

// tagStep is one input event of the tag widget. Remove, when set, removes
// that tag instead of applying Key.
type tagStep struct {
	Key    string   `json:"key" form:"key"`
	Buffer string   `json:"buffer" form:"buffer"`
	Tags   []string `json:"tags" form:"tags"`
	Remove *string  `json:"remove" form:"remove"`
}

type tagState struct {
	Tags     []string `json:"tags"`
	Buffer   string   `json:"buffer"`
	Consumed bool     `json:"consumed"`
	Text     string   `json:"text"`
}

func (s *Server) handleTagStep(c *gin.Context) {
	var req tagStep
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag step"})
		return
	}
	ed := tags.New(req.Tags)
	ed.SetBuffer(req.Buffer)

	var consumed bool
	if req.Remove != nil {
		consumed = ed.Remove(*req.Remove)
	} else {
		consumed = ed.Press(tags.Key(req.Key))
	}
	c.JSON(http.StatusOK, tagState{
		Tags:     ed.Tags(),
		Buffer:   ed.Buffer(),
		Consumed: consumed,
		Text:     ed.Text(),
	})
}
