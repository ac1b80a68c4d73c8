package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gazeta/internal/domain/site"
)

// Template file names of a theme. Shared blocks live in partials.tmpl.
const (
	tplHome      = "home.tmpl"
	tplStatic    = "page.tmpl"
	tplListing   = "listing.tmpl"
	tplArticle   = "article.tmpl"
	tplIssues    = "issues.tmpl"
	tplIssue     = "issue.tmpl"
	tplNotFound  = "404.tmpl"
	tplError     = "error.tmpl"
	tplLogin     = "login.tmpl"
	tplDashboard = "dashboard.tmpl"
	tplEditor    = "editor.tmpl"
	tplPartials  = "partials.tmpl"
)

type TemplateRenderer struct {
	tpl *template.Template
}

// NewTemplateRenderer parses themeDir/themeName/templates/*.tmpl.
func NewTemplateRenderer(themeDir, themeName string) (*TemplateRenderer, error) {
	dir := filepath.Join(themeDir, themeName, "templates")
	if err := CheckThemeTemplates(dir); err != nil {
		return nil, err
	}
	tpl, err := template.New("").Funcs(templateFuncs()).ParseGlob(filepath.Join(dir, "*.tmpl"))
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{tpl: tpl}, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"nowYear":    func() int { return time.Now().Year() },
		"articleURL": site.ArticlePath,
		"issueURL":   site.IssuePath,
		"issuePDF":   site.IssuePDFPath,
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"upper":      strings.ToUpper,
		"join":       strings.Join,
		"pageLink":   pageLink,
		"excerpt":    excerpt,
		"safeHTML":   func(s string) template.HTML { return template.HTML(s) },
	}
}

// pageLink builds a pager URL keeping the search query and any query
// parameters already on path.
func pageLink(path, q string, page int) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	v := u.Query()
	v.Del("q")
	v.Del("page")
	if q = strings.TrimSpace(q); q != "" {
		v.Set("q", q)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = v.Encode()
	return u.String()
}

// excerpt strips markup and cuts s to at most n runes on a word boundary.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(tagPattern.ReplaceAllString(s, " ")), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := string([]rune(s)[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func (r *TemplateRenderer) RenderHome(ctx context.Context, page HomePage) ([]byte, error) {
	return r.exec(tplHome, page)
}

func (r *TemplateRenderer) RenderStatic(ctx context.Context, page StaticPage) ([]byte, error) {
	return r.exec(tplStatic, page)
}

func (r *TemplateRenderer) RenderListing(ctx context.Context, page ListingPage) ([]byte, error) {
	return r.exec(tplListing, page)
}

func (r *TemplateRenderer) RenderArticle(ctx context.Context, page ArticlePage) ([]byte, error) {
	return r.exec(tplArticle, page)
}

func (r *TemplateRenderer) RenderIssues(ctx context.Context, page IssuesPage) ([]byte, error) {
	return r.exec(tplIssues, page)
}

func (r *TemplateRenderer) RenderIssue(ctx context.Context, page IssuePage) ([]byte, error) {
	return r.exec(tplIssue, page)
}

func (r *TemplateRenderer) RenderNotFound(ctx context.Context, page NotFoundPage) ([]byte, error) {
	return r.exec(tplNotFound, page)
}

func (r *TemplateRenderer) RenderError(ctx context.Context, page ErrorPage) ([]byte, error) {
	return r.exec(tplError, page)
}

func (r *TemplateRenderer) RenderLogin(ctx context.Context, page LoginPage) ([]byte, error) {
	return r.exec(tplLogin, page)
}

func (r *TemplateRenderer) RenderDashboard(ctx context.Context, page DashboardPage) ([]byte, error) {
	return r.exec(tplDashboard, page)
}

func (r *TemplateRenderer) RenderEditor(ctx context.Context, page EditorPage) ([]byte, error) {
	return r.exec(tplEditor, page)
}

func (r *TemplateRenderer) exec(name string, data any) ([]byte, error) {
	t := r.tpl.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// CheckThemeTemplates reports the first template file missing from dir.
func CheckThemeTemplates(dir string) error {
	required := []string{
		tplPartials,
		tplHome,
		tplStatic,
		tplListing,
		tplArticle,
		tplIssues,
		tplIssue,
		tplNotFound,
		tplError,
		tplLogin,
		tplDashboard,
		tplEditor,
	}
	for _, name := range required {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("missing template: %s", name)
		}
	}
	return nil
}
