package render

import (
	"html/template"

	"gazeta/internal/articles"
	"gazeta/internal/domain/config"
	"gazeta/internal/domain/content"
	"gazeta/internal/domain/site"
	"gazeta/internal/feed"
	"gazeta/internal/issue"
	"gazeta/internal/notify"
	"gazeta/internal/pages"
)

type Heading struct {
	Level int
	ID    string
	Text  string
}

type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// Base is embedded in every page model.
type Base struct {
	Site        config.SiteConfig
	Title       string
	Description string
	// Path is the request path, used to highlight the navigation.
	Path string
	// Dev adds the live reload script.
	Dev bool
	// Admin is the signed-in editor's email, empty for readers.
	Admin string
}

var navItems = []NavItem{
	{Label: "Acasă", Path: site.PathHome},
	{Label: "Echipă", Path: site.PathTeam},
	{Label: "Texte", Path: site.PathListing},
	{Label: "Reviste", Path: site.PathIssues},
	{Label: "Contact", Path: site.PathContact},
}

func (b Base) Nav() []NavItem {
	out := make([]NavItem, len(navItems))
	copy(out, navItems)
	for i := range out {
		out[i].Active = out[i].Path == b.Path
	}
	return out
}

// PageTitle is the document title: page title, then the site title.
func (b Base) PageTitle() string {
	if b.Title == "" || b.Title == b.Site.Title {
		return b.Site.Title
	}
	return b.Title + " | " + b.Site.Title
}

// Pager is what the "pager" partial renders. Window is a feed.Window of
// any item type.
type Pager struct {
	Path   string
	Query  string
	Window any
}

type HomePage struct {
	Base
	Latest []content.Article
	Issues []content.Issue
}

type StaticPage struct {
	Base
	Page pages.Page
	HTML template.HTML
	TOC  []Heading
}

type ListingPage struct {
	Base
	Query  string
	Window feed.Window[content.Article]
}

func (p ListingPage) Pager() Pager {
	return Pager{Path: site.PathListing, Query: p.Query, Window: p.Window}
}

type ArticlePage struct {
	Base
	Article content.Article
	Related []content.Article
}

type IssuesPage struct {
	Base
	Query  string
	Window feed.Window[content.Issue]
}

func (p IssuesPage) Pager() Pager {
	return Pager{Path: site.PathIssues, Query: p.Query, Window: p.Window}
}

type IssuePage struct {
	Base
	Issue  content.Issue
	PDFURL string
	State  issue.State
}

type NotFoundPage struct {
	Base
	RequestPath string
}

type ErrorPage struct {
	Base
	Message string
}

type LoginPage struct {
	Base
	Email  string
	Error  string
	Toasts []notify.Toast
}

// DashboardTab is one status tab of the admin article list.
type DashboardTab struct {
	Status content.Status
	Label  string
	Count  int
	Active bool
}

type DashboardPage struct {
	Base
	Tabs   []DashboardTab
	Status content.Status
	Query  string
	Window feed.Window[content.Article]
	Toasts []notify.Toast
}

func (p DashboardPage) Pager() Pager {
	return Pager{Path: "/admin/dashboard?tab=" + string(p.Status), Query: p.Query, Window: p.Window}
}

type EditorPage struct {
	Base
	// ID is empty while creating.
	ID     string
	Form   articles.Form
	Errors map[string]string
	Toasts []notify.Toast
}

func (p EditorPage) Editing() bool { return p.ID != "" }
