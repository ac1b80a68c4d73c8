package content

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(strings.TrimSpace(strings.ToLower(s))) {
	case StatusDraft:
		return StatusDraft, true
	case StatusPublished:
		return StatusPublished, true
	}
	return "", false
}

const defaultCategory = "ARTICOLE"

// Article is one newspaper article after normalization from the store payload.
type Article struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	BodyHTML  string   `json:"body_html"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	Status    Status   `json:"status"`
	Image     string   `json:"image,omitempty"`
	Date      string   `json:"date"`
	Slug      string   `json:"slug"`
	Views     int64    `json:"views"`
	CreatedAt int64    `json:"created_at"`
}

// Listed reports whether the article may appear on the public site.
func (a Article) Listed() bool {
	return a.Status == StatusPublished && a.Slug != ""
}

func (a Article) DateText() string { return a.Date }

func (a Article) PublishedAt() time.Time {
	return ParseDate(a.Date)
}

// Category is the label printed above a card: the first two tags, upper-cased.
func (a Article) Category() string {
	n := len(a.Tags)
	if n > 2 {
		n = 2
	}
	label := strings.ToUpper(strings.Join(a.Tags[:n], " · "))
	if label == "" {
		return defaultCategory
	}
	return label
}

// Fields is the persisted layout of an article, without the key.
func (a Article) Fields() map[string]any {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"title":      a.Title,
		"author":     a.Author,
		"body_html":  a.BodyHTML,
		"summary":    a.Summary,
		"tags":       tags,
		"status":     string(a.Status),
		"image":      a.Image,
		"date":       a.Date,
		"slug":       a.Slug,
		"views":      a.Views,
		"created_at": a.CreatedAt,
	}
}

// ArticleFromFields maps a raw store entry onto an Article. The entry key
// becomes the ID unless the payload carries its own non-empty id.
func ArticleFromFields(key string, f map[string]any) Article {
	a := Article{
		ID:        key,
		Title:     fieldString(f, "title", "titlu"),
		Author:    fieldString(f, "author", "autor"),
		BodyHTML:  fieldString(f, "body_html", "continut"),
		Summary:   fieldString(f, "summary", "rezumat"),
		Tags:      NormalizeTags(fieldStrings(f, "tags")),
		Image:     fieldString(f, "image", "imagine"),
		Date:      fieldString(f, "date", "data"),
		Slug:      fieldString(f, "slug"),
		Views:     fieldInt(f, "views"),
		CreatedAt: fieldInt(f, "created_at", "timestamp"),
	}
	if id := fieldString(f, "id"); id != "" {
		a.ID = id
	}
	a.Status = Status(strings.TrimSpace(fieldString(f, "status")))
	return a
}

// NormalizeTags trims every tag, drops empties and keeps the first
// occurrence of each value. Case is preserved.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
