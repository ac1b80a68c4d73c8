package site

import (
	"fmt"
	"strings"
)

type RouteKind string

const (
	RouteHome     RouteKind = "home"
	RouteTeam     RouteKind = "team"
	RouteListing  RouteKind = "listing"
	RouteArticle  RouteKind = "article"
	RouteIssues   RouteKind = "issues"
	RouteIssue    RouteKind = "issue"
	RouteContact  RouteKind = "contact"
	RouteSitemap  RouteKind = "sitemap"
	RouteRobots   RouteKind = "robots"
	RouteNotFound RouteKind = "404"
)

// Route is one addressable public page.
type Route struct {
	Kind       RouteKind
	Slug       string
	Key        string
	Page       int
	Path       string
	ChangeFreq string
	Priority   float64
	LastMod    string
}

// Public paths of the reader site.
const (
	PathHome    = "/"
	PathTeam    = "/echipa"
	PathListing = "/publicatii"
	PathIssues  = "/reviste"
	PathContact = "/contact"
)

func ArticlePath(slug string) string { return "/articol/" + slug }

func IssuePath(key string) string { return "/revista/" + key }

func IssuePDFPath(key string) string { return "/revista/" + key + "/pdf" }

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Slug != "" {
		parts = append(parts, "slug="+r.Slug)
	}
	if r.Key != "" {
		parts = append(parts, "key="+r.Key)
	}
	if r.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", r.Page))
	}
	if r.Path != "" {
		parts = append(parts, "path="+r.Path)
	}
	return strings.Join(parts, " ")
}
