package articles

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"gazeta/internal/domain/content"
	"gazeta/internal/logging"
	"gazeta/internal/store"
)

// Service runs the editor's write flows against the record store.
type Service struct {
	store *store.Store
	now   func() time.Time
	log   *zap.Logger
}

func NewService(s *store.Store, log *zap.Logger) *Service {
	return &Service{store: s, now: time.Now, log: logging.OrNop(log).Named("articles")}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Load(key string) (content.Article, error) {
	f, err := s.store.Get(store.Articles, key)
	if err != nil {
		return content.Article{}, err
	}
	return content.ArticleFromFields(key, f), nil
}

// Create validates the form and stores a new article dated today.
func (s *Service) Create(f Form) (content.Article, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return content.Article{}, err
	}
	now := s.now()
	a := content.Article{
		Title:     f.Title,
		Author:    f.Author,
		BodyHTML:  f.BodyHTML,
		Summary:   f.Summary,
		Tags:      f.Tags,
		Status:    content.Status(f.Status),
		Image:     f.Image,
		Date:      content.FormatDate(now),
		Slug:      f.SlugFor(),
		Views:     0,
		CreatedAt: now.UnixMilli(),
	}
	key, err := s.store.Push(store.Articles, a.Fields())
	if err != nil {
		s.log.Error("create article", zap.String("title", a.Title), zap.Error(err))
		return content.Article{}, fmt.Errorf("create article: %w", err)
	}
	a.ID = key
	s.log.Info("article created", zap.String("key", key), zap.String("slug", a.Slug), zap.String("status", string(a.Status)))
	return a, nil
}

// Update merges the form into an existing article. The publication date and
// the view count are left alone.
func (s *Service) Update(key string, f Form) (content.Article, error) {
	cur, err := s.Load(key)
	if err != nil {
		return content.Article{}, err
	}
	f.Normalize()
	if err := f.Validate(); err != nil {
		return content.Article{}, err
	}

	slug := cur.Slug
	switch {
	case f.Slug != "":
		slug = content.Slugify(f.Slug)
	case f.Title != cur.Title || slug == "":
		slug = content.Slugify(f.Title)
	}

	tagList := f.Tags
	if tagList == nil {
		tagList = []string{}
	}
	partial := store.Fields{
		"title":      f.Title,
		"author":     f.Author,
		"body_html":  f.BodyHTML,
		"summary":    f.Summary,
		"tags":       tagList,
		"status":     f.Status,
		"image":      f.Image,
		"slug":       slug,
		"created_at": s.now().UnixMilli(),
	}
	if err := s.store.Update(store.Articles, key, partial); err != nil {
		s.log.Error("update article", zap.String("key", key), zap.Error(err))
		return content.Article{}, fmt.Errorf("update article: %w", err)
	}
	s.log.Info("article updated", zap.String("key", key), zap.String("slug", slug))
	return s.Load(key)
}

// Delete removes an article. A missing key yields store.ErrNotFound.
func (s *Service) Delete(key string) error {
	if _, err := s.store.Get(store.Articles, key); err != nil {
		return err
	}
	if err := s.store.Delete(store.Articles, key); err != nil {
		s.log.Error("delete article", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("delete article: %w", err)
	}
	s.log.Info("article deleted", zap.String("key", key))
	return nil
}
