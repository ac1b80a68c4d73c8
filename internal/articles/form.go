package articles

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"gazeta/internal/domain/content"
	domainerr "gazeta/internal/domain/errors"
	"gazeta/internal/tags"
)

// Form is what the article editor submits.
type Form struct {
	Title    string   `form:"title" json:"title"`
	Author   string   `form:"author" json:"author"`
	BodyHTML string   `form:"body_html" json:"body_html"`
	Summary  string   `form:"summary" json:"summary"`
	Image    string   `form:"image" json:"image"`
	Slug     string   `form:"slug" json:"slug"`
	Status   string   `form:"status" json:"status"`
	Tags     []string `form:"tags" json:"tags"`
	TagsText string   `form:"tags_text" json:"-"`
}

// FormFromArticle fills the editor from a stored article.
func FormFromArticle(a content.Article) Form {
	return Form{
		Title:    a.Title,
		Author:   a.Author,
		BodyHTML: a.BodyHTML,
		Summary:  a.Summary,
		Image:    a.Image,
		Slug:     a.Slug,
		Status:   string(a.Status),
		Tags:     append([]string(nil), a.Tags...),
	}
}

// Normalize trims the text fields and folds the free-text tag field into Tags
// with the tag editor's rules.
func (f *Form) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.Summary = strings.TrimSpace(f.Summary)
	f.Image = strings.TrimSpace(f.Image)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "" {
		f.Status = string(content.StatusDraft)
	}

	ed := tags.New(f.Tags)
	for _, t := range strings.Split(f.TagsText, ",") {
		ed.Add(t)
	}
	f.Tags = ed.Tags()
	f.TagsText = ""
}

var emptyParagraphRe = regexp.MustCompile(`(?i)<p>\s*<br\s*/?>\s*</p>`)

// IsBlankHTML reports whether an editor body holds nothing but empty paragraphs.
func IsBlankHTML(s string) bool {
	return strings.TrimSpace(emptyParagraphRe.ReplaceAllString(s, "")) == ""
}

// SlugFor is the slug an article with this form would get.
func (f Form) SlugFor() string {
	if f.Slug != "" {
		return content.Slugify(f.Slug)
	}
	return content.Slugify(f.Title)
}

// Validate checks a normalized form.
func (f Form) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Title,
			validation.Required.Error("titlul este obligatoriu"),
			validation.RuneLength(0, 200).Error("titlul poate avea cel mult 200 de caractere"),
		),
		validation.Field(&f.Author,
			validation.Required.Error("autorul este obligatoriu"),
			validation.RuneLength(0, 100).Error("autorul poate avea cel mult 100 de caractere"),
		),
		validation.Field(&f.BodyHTML, validation.By(func(value any) error {
			if IsBlankHTML(value.(string)) {
				return validation.NewError("articles.body_required", "conținutul este obligatoriu")
			}
			return nil
		})),
		validation.Field(&f.Summary,
			validation.RuneLength(0, 500).Error("rezumatul poate avea cel mult 500 de caractere"),
		),
		validation.Field(&f.Image, validation.By(func(value any) error {
			s := value.(string)
			if s == "" || isHTTPURL(s) {
				return nil
			}
			return validation.NewError("articles.image_url", "imaginea trebuie să fie un URL valid")
		})),
		validation.Field(&f.Status,
			validation.In(string(content.StatusDraft), string(content.StatusPublished)).
				Error("statusul trebuie să fie draft sau published"),
		),
	)

	var ve domainerr.ValidationError
	var errs validation.Errors
	switch {
	case err == nil:
	case asErrors(err, &errs):
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ve.Add(k, errs[k].Error())
		}
	default:
		return err
	}
	if f.Title != "" && f.SlugFor() == "" {
		ve.Add("slug", "titlul trebuie să conțină cel puțin o literă sau cifră")
	}
	if ve.HasAny() {
		return ve
	}
	return nil
}

func asErrors(err error, out *validation.Errors) bool {
	errs, ok := err.(validation.Errors)
	if ok {
		*out = errs
	}
	return ok
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
