package feed

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"gazeta/internal/domain/content"
	"gazeta/internal/logging"
)

// Dated is anything carrying a Romanian publication date text.
type Dated interface {
	DateText() string
}

// Query selects one page of a feed.
type Query struct {
	Status      content.Status
	RequireSlug bool
	Search      string
	Page        int
	PerPage     int
}

// NormalizeArticles turns a raw key to fields mapping into articles ordered by key.
func NormalizeArticles(raw map[string]map[string]any) []content.Article {
	keys := sortedKeys(raw)
	out := make([]content.Article, 0, len(keys))
	for _, k := range keys {
		out = append(out, content.ArticleFromFields(k, raw[k]))
	}
	return out
}

func NormalizeIssues(raw map[string]map[string]any) []content.Issue {
	keys := sortedKeys(raw)
	out := make([]content.Issue, 0, len(keys))
	for _, k := range keys {
		out = append(out, content.IssueFromFields(k, raw[k]))
	}
	return out
}

func sortedKeys(raw map[string]map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilterStatus keeps the articles whose status equals status. With
// requireSlug, articles without a slug are dropped as well.
func FilterStatus(items []content.Article, status content.Status, requireSlug bool) []content.Article {
	out := make([]content.Article, 0, len(items))
	for _, a := range items {
		if a.Status != status {
			continue
		}
		if requireSlug && a.Slug == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// SearchArticles keeps the articles whose title, author, summary or any tag
// contains q, ignoring case. An empty query keeps everything.
func SearchArticles(items []content.Article, q string) []content.Article {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return items
	}
	out := make([]content.Article, 0, len(items))
	for _, a := range items {
		if matchArticle(a, q) {
			out = append(out, a)
		}
	}
	return out
}

func matchArticle(a content.Article, q string) bool {
	if contains(a.Title, q) || contains(a.Author, q) || contains(a.Summary, q) {
		return true
	}
	for _, t := range a.Tags {
		if contains(t, q) {
			return true
		}
	}
	return false
}

// SearchIssues matches on the title or the date text.
func SearchIssues(items []content.Issue, q string) []content.Issue {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return items
	}
	out := make([]content.Issue, 0, len(items))
	for _, is := range items {
		if contains(is.Title, q) || contains(is.Date, q) {
			out = append(out, is)
		}
	}
	return out
}

func contains(field, lowerQuery string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowerQuery)
}

// SortByDate returns a copy of items, newest first. Equal dates keep their order.
func SortByDate[T Dated](items []T) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return content.ParseDate(out[i].DateText()).After(content.ParseDate(out[j].DateText()))
	})
	return out
}

// RunArticles is the whole article pipeline: normalize, status filter,
// search, sort and paginate.
func RunArticles(raw map[string]map[string]any, q Query) Window[content.Article] {
	items := NormalizeArticles(raw)
	items = FilterStatus(items, q.Status, q.RequireSlug)
	items = SearchArticles(items, q.Search)
	return Paginate(SortByDate(items), q.Page, q.PerPage)
}

// RunIssues is the issue pipeline. Issues carry no status.
func RunIssues(raw map[string]map[string]any, q Query) Window[content.Issue] {
	items := SearchIssues(NormalizeIssues(raw), q.Search)
	return Paginate(SortByDate(items), q.Page, q.PerPage)
}

// Published returns every listed article, newest first.
func Published(raw map[string]map[string]any) []content.Article {
	return SortByDate(FilterStatus(NormalizeArticles(raw), content.StatusPublished, true))
}

// Latest returns up to n articles from a sorted list, skipping excludeID.
func Latest(sorted []content.Article, n int, excludeID string) []content.Article {
	out := make([]content.Article, 0, n)
	for _, a := range sorted {
		if len(out) >= n {
			break
		}
		if a.ID == excludeID {
			continue
		}
		out = append(out, a)
	}
	return out
}

func FindBySlug(items []content.Article, slug string) (content.Article, bool) {
	for _, a := range items {
		if a.Slug == slug {
			return a, true
		}
	}
	return content.Article{}, false
}

// Pipeline runs the feed functions and reports records whose date could not
// be read. It holds no state between runs.
type Pipeline struct {
	log *zap.Logger
}

func NewPipeline(log *zap.Logger) *Pipeline {
	return &Pipeline{log: logging.OrNop(log).Named("feed")}
}

func (p *Pipeline) Articles(raw map[string]map[string]any, q Query) Window[content.Article] {
	w := RunArticles(raw, q)
	for _, a := range w.Items {
		p.checkDate("article", a.ID, a.Date)
	}
	return w
}

func (p *Pipeline) Issues(raw map[string]map[string]any, q Query) Window[content.Issue] {
	w := RunIssues(raw, q)
	for _, is := range w.Items {
		p.checkDate("issue", is.ID, is.Date)
	}
	return w
}

func (p *Pipeline) checkDate(kind, id, date string) {
	if _, ok := content.ParseDateOK(date); !ok {
		p.log.Debug("unparseable date, sorting as oldest",
			zap.String("kind", kind), zap.String("id", id), zap.String("date", date))
	}
}
