package feed

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"gazeta/internal/domain/content"
	"gazeta/internal/store"
)

func raw(records ...map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(records))
	for i, r := range records {
		out[fmt.Sprintf("k%02d", i)] = r
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	snap := raw(
		map[string]any{"title": "draft", "date": "1 ian 2024", "status": "draft", "slug": "draft"},
		map[string]any{"title": "martie", "date": "15 mar 2024", "status": "published", "slug": "martie"},
		map[string]any{"title": "iunie", "date": "2 iun 2023", "status": "published", "slug": "iunie"},
	)
	w := RunArticles(snap, Query{Status: content.StatusPublished, Page: 1, PerPage: 10})
	if w.TotalPages != 1 || len(w.Items) != 2 {
		t.Fatalf("window = %+v", w)
	}
	if w.Items[0].Date != "15 mar 2024" || w.Items[1].Date != "2 iun 2023" {
		t.Fatalf("order = %q, %q", w.Items[0].Date, w.Items[1].Date)
	}
	if w.First != 1 || w.Last != 2 || w.Total != 2 {
		t.Fatalf("range = %d-%d of %d", w.First, w.Last, w.Total)
	}
}

func TestFilterStatusKeepsExactlyMatching(t *testing.T) {
	items := NormalizeArticles(raw(
		map[string]any{"status": "draft", "slug": "a"},
		map[string]any{"status": "published", "slug": "b"},
		map[string]any{"status": "published"},
		map[string]any{"status": "draft"},
	))
	for _, status := range []content.Status{content.StatusDraft, content.StatusPublished} {
		got := FilterStatus(items, status, false)
		want := 0
		for _, a := range items {
			if a.Status == status {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("%s: got %d, want %d", status, len(got), want)
		}
		for _, a := range got {
			if a.Status != status {
				t.Fatalf("%s filter leaked %+v", status, a)
			}
		}
	}
	if got := FilterStatus(items, content.StatusPublished, true); len(got) != 1 || got[0].Slug != "b" {
		t.Fatalf("requireSlug filter = %+v", got)
	}
}

func TestSearchArticles(t *testing.T) {
	items := NormalizeArticles(raw(
		map[string]any{"title": "Toamna în parc", "author": "Ana"},
		map[string]any{"title": "Olimpiada", "author": "Ion", "tags": []any{"Matematică"}},
		map[string]any{"title": "Interviu", "summary": "Despre TOAMNA"},
		map[string]any{"title": "Fără potrivire"},
	))

	if got := SearchArticles(items, ""); !reflect.DeepEqual(got, items) {
		t.Fatalf("empty query changed the list")
	}
	if got := SearchArticles(items, "   "); !reflect.DeepEqual(got, items) {
		t.Fatalf("blank query changed the list")
	}

	cases := []struct {
		q    string
		want []string
	}{
		{"toamna", []string{"Toamna în parc", "Interviu"}},
		{"ANA", []string{"Toamna în parc"}},
		{"matematică", []string{"Olimpiada"}},
		{"Olimpiada", []string{"Olimpiada"}},
		{"zzz", nil},
	}
	for _, tc := range cases {
		got := SearchArticles(items, tc.q)
		var titles []string
		for _, a := range got {
			titles = append(titles, a.Title)
		}
		if !reflect.DeepEqual(titles, tc.want) {
			t.Errorf("search %q = %v, want %v", tc.q, titles, tc.want)
		}
	}
}

func TestSearchIssues(t *testing.T) {
	items := NormalizeIssues(raw(
		map[string]any{"title": "Numărul 1", "date": "1 mai 2024"},
		map[string]any{"title": "Numărul 2", "date": "1 iun 2024"},
	))
	if got := SearchIssues(items, "MAI"); len(got) != 1 || got[0].Title != "Numărul 1" {
		t.Fatalf("date search = %+v", got)
	}
	if got := SearchIssues(items, "numărul"); len(got) != 2 {
		t.Fatalf("title search = %+v", got)
	}
}

func TestSortByDateNonIncreasingAndStable(t *testing.T) {
	items := NormalizeArticles(raw(
		map[string]any{"title": "a", "date": "nonsense"},
		map[string]any{"title": "b", "date": "3 feb 2024"},
		map[string]any{"title": "c", "date": "3 feb 2024"},
		map[string]any{"title": "d", "date": "31 dec 2023"},
		map[string]any{"title": "e"},
		map[string]any{"title": "f", "date": "1 mar 2024"},
	))
	sorted := SortByDate(items)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].PublishedAt().After(sorted[i-1].PublishedAt()) {
			t.Fatalf("not non-increasing at %d: %q after %q", i, sorted[i].Date, sorted[i-1].Date)
		}
	}
	var titles []string
	for _, a := range sorted {
		titles = append(titles, a.Title)
	}
	want := []string{"f", "b", "c", "d", "a", "e"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("order = %v, want %v", titles, want)
	}
	if items[0].Title != "a" {
		t.Fatalf("SortByDate mutated its input")
	}
}

func TestPaginateCoversEverything(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 25, 100} {
		for _, per := range []int{1, 3, 10} {
			items := make([]int, n)
			for i := range items {
				items[i] = i
			}
			first := Paginate(items, 1, per)
			wantPages := (n + per - 1) / per
			if first.TotalPages != wantPages {
				t.Fatalf("n=%d per=%d: totalPages %d, want %d", n, per, first.TotalPages, wantPages)
			}
			var all []int
			for p := 1; p <= first.TotalPages; p++ {
				all = append(all, Paginate(items, p, per).Items...)
			}
			if len(all) != n {
				t.Fatalf("n=%d per=%d: concatenation has %d items", n, per, len(all))
			}
			for i, v := range all {
				if v != i {
					t.Fatalf("n=%d per=%d: gap or duplicate at %d", n, per, i)
				}
			}
		}
	}
}

func TestPaginateEdges(t *testing.T) {
	items := []string{"a", "b", "c"}
	w := Paginate(items, 0, 2)
	if w.CurrentPage != 1 || len(w.Items) != 2 {
		t.Fatalf("page 0 = %+v", w)
	}
	w = Paginate(items, 5, 2)
	if len(w.Items) != 0 || w.First != 0 || w.Last != 0 || w.TotalPages != 2 {
		t.Fatalf("page past end = %+v", w)
	}
	w = Paginate(items, math.MaxInt, 2)
	if len(w.Items) != 0 || w.CurrentPage != math.MaxInt || w.HasNext() {
		t.Fatalf("huge page = %+v", w)
	}
	if got := Paginate([]string{}, 1, 2); got.TotalPages != 0 || len(got.Items) != 0 {
		t.Fatalf("empty feed = %+v", got)
	}
	w = Paginate(items, 2, 2)
	if w.First != 3 || w.Last != 3 || w.HasNext() || !w.HasPrev() {
		t.Fatalf("last page = %+v", w)
	}
}

func TestVisiblePages(t *testing.T) {
	cases := []struct {
		cur, total int
		want       []int
	}{
		{1, 0, []int{}},
		{1, 1, []int{1}},
		{3, 5, []int{1, 2, 3, 4, 5}},
		{1, 9, []int{1, 2, 3, 4, 5}},
		{2, 9, []int{1, 2, 3, 4, 5}},
		{5, 9, []int{3, 4, 5, 6, 7}},
		{8, 9, []int{5, 6, 7, 8, 9}},
		{9, 9, []int{5, 6, 7, 8, 9}},
		{20, 9, []int{5, 6, 7, 8, 9}},
		{math.MaxInt, 9, []int{5, 6, 7, 8, 9}},
		{-3, 9, []int{1, 2, 3, 4, 5}},
	}
	for _, tc := range cases {
		if got := VisiblePages(tc.cur, tc.total); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("VisiblePages(%d, %d) = %v, want %v", tc.cur, tc.total, got, tc.want)
		}
	}
	for total := 6; total < 30; total++ {
		for cur := 1; cur <= total; cur++ {
			got := VisiblePages(cur, total)
			if len(got) != 5 {
				t.Fatalf("(%d,%d) len %d", cur, total, len(got))
			}
			for _, p := range got {
				if p < 1 || p > total {
					t.Fatalf("(%d,%d) out of range: %v", cur, total, got)
				}
			}
		}
	}
}

func TestLatestAndFindBySlug(t *testing.T) {
	sorted := Published(raw(
		map[string]any{"title": "1", "slug": "s1", "status": "published", "date": "1 ian 2024"},
		map[string]any{"title": "2", "slug": "s2", "status": "published", "date": "2 ian 2024"},
		map[string]any{"title": "3", "slug": "s3", "status": "published", "date": "3 ian 2024"},
		map[string]any{"title": "4", "slug": "s4", "status": "published", "date": "4 ian 2024"},
		map[string]any{"title": "d", "slug": "sd", "status": "draft", "date": "5 ian 2024"},
	))
	a, ok := FindBySlug(sorted, "s3")
	if !ok || a.Title != "3" {
		t.Fatalf("FindBySlug = %+v %v", a, ok)
	}
	if _, ok := FindBySlug(sorted, "sd"); ok {
		t.Fatalf("draft found among published")
	}
	others := Latest(sorted, 3, a.ID)
	var titles []string
	for _, o := range others {
		titles = append(titles, o.Title)
	}
	if !reflect.DeepEqual(titles, []string{"4", "2", "1"}) {
		t.Fatalf("Latest = %v", titles)
	}
}

func TestViewCounter(t *testing.T) {
	s, err := store.Open(store.OpenOptions{Path: filepath.Join(t.TempDir(), "views.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Set(store.Articles, "a", store.Fields{"title": "A"}); err != nil {
		t.Fatal(err)
	}

	vc := NewViewCounter(s, nil, nil)
	for i := 0; i < 10; i++ {
		vc.Increment("a")
	}
	vc.Wait()

	n, err := vc.IncrementSync("a")
	if err != nil || n != 11 {
		t.Fatalf("IncrementSync = %d, %v", n, err)
	}

	if _, err := vc.IncrementSync("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing article: %v", err)
	}
	vc.Increment("missing")
	vc.Wait()
}
