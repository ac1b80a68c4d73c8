package pages

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
)

type Warning struct {
	Path string
	Msg  string
}

// Page is one static markdown page such as the team or contact page.
type Page struct {
	Slug        string
	Title       string
	Description string
	Front       FrontMatter
	Body        []byte
	Path        string
	Hash        string
}

// Set is an immutable collection of pages keyed by slug.
type Set struct {
	bySlug map[string]Page
}

func (s *Set) Get(slug string) (Page, bool) {
	if s == nil {
		return Page{}, false
	}
	p, ok := s.bySlug[slug]
	return p, ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bySlug)
}

// All returns the pages ordered by front matter order, then slug.
func (s *Set) All() []Page {
	if s == nil {
		return nil
	}
	out := make([]Page, 0, len(s.bySlug))
	for _, p := range s.bySlug {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Front.Order != out[j].Front.Order {
			return out[i].Front.Order < out[j].Front.Order
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type result struct {
	page  Page
	warns []Warning
	skip  bool
	err   error
}

// Load parses every markdown file under dir with a small worker pool.
// Unparseable or hidden files are skipped with a warning; the first read
// error aborts the load.
func Load(dir string) (*Set, []Warning, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(files) {
		workers = len(files)
	}
	jobs := make(chan SourceFile)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sf := range jobs {
				results <- parseFile(sf)
			}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var (
		out   []Page
		warns []Warning
		first error
	)
	for r := range results {
		if r.err != nil {
			if first == nil {
				first = r.err
			}
			continue
		}
		warns = append(warns, r.warns...)
		if !r.skip {
			out = append(out, r.page)
		}
	}
	if first != nil {
		return nil, nil, first
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	set := &Set{bySlug: make(map[string]Page, len(out))}
	for _, p := range out {
		if _, ok := set.bySlug[p.Slug]; ok {
			warns = append(warns, Warning{Path: p.Path, Msg: "duplicate slug, skipped: " + p.Slug})
			continue
		}
		set.bySlug[p.Slug] = p
	}
	sort.Slice(warns, func(i, j int) bool { return warns[i].Path < warns[j].Path })
	return set, warns, nil
}

func parseFile(sf SourceFile) result {
	raw, err := os.ReadFile(sf.Path)
	if err != nil {
		return result{err: err}
	}

	fm, body, fmErr := ParseFrontMatter(raw)
	if fmErr != nil && !errors.Is(fmErr, errNoFrontMatter) {
		return result{
			skip:  true,
			warns: []Warning{{Path: sf.Path, Msg: "failed to parse front matter: " + fmErr.Error()}},
		}
	}
	if fm.Hidden {
		return result{skip: true}
	}

	slug := ResolveSlug(fm, sf.Path)
	if slug == "" {
		return result{skip: true, warns: []Warning{{Path: sf.Path, Msg: "empty slug"}}}
	}

	var warns []Warning
	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = slug
		warns = append(warns, Warning{Path: sf.Path, Msg: "title is empty, using slug"})
	}
	return result{
		page: Page{
			Slug:        slug,
			Title:       title,
			Description: strings.TrimSpace(fm.Description),
			Front:       fm,
			Body:        body,
			Path:        sf.Path,
			Hash:        HashBytes(raw),
		},
		warns: warns,
	}
}
