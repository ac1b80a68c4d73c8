package app

import (
	"testing"

	"gazeta/internal/domain/content"
	"gazeta/internal/domain/site"
)

func TestBuildStaticRoutes(t *testing.T) {
	routes := RouteBuilder{}.BuildStaticRoutes()
	want := []string{"/", "/echipa", "/publicatii", "/reviste", "/contact"}
	if len(routes) != len(want) {
		t.Fatalf("got %d routes", len(routes))
	}
	for i, r := range routes {
		if r.Path != want[i] || r.ChangeFreq != "weekly" || r.Priority != 0.8 {
			t.Errorf("route %d = %+v", i, r)
		}
	}
}

func TestBuildArticleRoutes(t *testing.T) {
	arts := []content.Article{
		{ID: "1", Slug: "unu", Status: content.StatusPublished, Date: "17 oct 2025"},
		{ID: "2", Slug: "doi", Status: content.StatusDraft, Date: "1 ian 2025"},
		{ID: "3", Status: content.StatusPublished},
		{ID: "4", Slug: "unu", Status: content.StatusPublished},
		{ID: "5", Slug: "cinci", Status: content.StatusPublished, Date: "altceva"},
	}
	routes := RouteBuilder{}.BuildArticleRoutes(arts)
	if len(routes) != 2 {
		t.Fatalf("routes = %+v", routes)
	}
	if routes[0].Path != site.ArticlePath("unu") || routes[0].LastMod != "2025-10-17" || routes[0].Kind != site.RouteArticle {
		t.Fatalf("first = %+v", routes[0])
	}
	if routes[1].Slug != "cinci" || routes[1].LastMod != "" {
		t.Fatalf("second = %+v", routes[1])
	}
	if all := (RouteBuilder{}).BuildSitemapRoutes(arts); len(all) != 7 {
		t.Fatalf("sitemap routes = %d", len(all))
	}
}
