package app

import (
	"gazeta/internal/domain/content"
	"gazeta/internal/domain/site"
)

const (
	staticChangeFreq  = "weekly"
	staticPriority    = 0.8
	articleChangeFreq = "monthly"
	articlePriority   = 0.6
)

// RouteBuilder lists the public routes that belong in the sitemap.
type RouteBuilder struct{}

func (rb RouteBuilder) BuildStaticRoutes() []site.Route {
	static := []struct {
		kind site.RouteKind
		path string
	}{
		{site.RouteHome, site.PathHome},
		{site.RouteTeam, site.PathTeam},
		{site.RouteListing, site.PathListing},
		{site.RouteIssues, site.PathIssues},
		{site.RouteContact, site.PathContact},
	}
	routes := make([]site.Route, 0, len(static))
	for _, s := range static {
		routes = append(routes, site.Route{
			Kind:       s.kind,
			Path:       s.path,
			ChangeFreq: staticChangeFreq,
			Priority:   staticPriority,
		})
	}
	return routes
}

// BuildArticleRoutes maps listed articles to /articol/<slug>. Articles
// without a slug or not published are skipped; an unreadable date leaves
// LastMod empty.
func (rb RouteBuilder) BuildArticleRoutes(articles []content.Article) []site.Route {
	var routes []site.Route
	seen := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		if !a.Listed() {
			continue
		}
		if _, dup := seen[a.Slug]; dup {
			continue
		}
		seen[a.Slug] = struct{}{}

		r := site.Route{
			Kind:       site.RouteArticle,
			Slug:       a.Slug,
			Key:        a.ID,
			Path:       site.ArticlePath(a.Slug),
			ChangeFreq: articleChangeFreq,
			Priority:   articlePriority,
		}
		if t, ok := content.ParseDateOK(a.Date); ok {
			r.LastMod = t.Format("2006-01-02")
		}
		routes = append(routes, r)
	}
	return routes
}

// BuildSitemapRoutes is the static routes followed by the article routes.
func (rb RouteBuilder) BuildSitemapRoutes(articles []content.Article) []site.Route {
	return append(rb.BuildStaticRoutes(), rb.BuildArticleRoutes(articles)...)
}
