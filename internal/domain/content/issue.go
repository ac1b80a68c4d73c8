package content

import "strings"

// Issue is one printed magazine issue. Issues are read-only for the site.
type Issue struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	PDF         string `json:"pdf"`
	Date        string `json:"date"`
	Tag         string `json:"tag,omitempty"`
	Description string `json:"description,omitempty"`
}

func (i Issue) DateText() string { return i.Date }

func (i Issue) Category() string {
	if i.Date == "" {
		return "REVISTĂ"
	}
	return "REVISTĂ " + strings.ToUpper(i.Date)
}

func IssueFromFields(key string, f map[string]any) Issue {
	is := Issue{
		ID:          key,
		Title:       fieldString(f, "title", "titlu"),
		Cover:       fieldString(f, "cover", "copertaUrl", "coperta"),
		PDF:         fieldString(f, "pdf", "pdfUrl"),
		Date:        fieldString(f, "date", "data"),
		Tag:         fieldString(f, "tag"),
		Description: fieldString(f, "description", "descriere"),
	}
	if id := fieldString(f, "id"); id != "" {
		is.ID = id
	}
	return is
}
