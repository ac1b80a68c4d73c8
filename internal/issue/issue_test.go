package issue

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	domainerr "gazeta/internal/domain/errors"
)

func TestSpreads(t *testing.T) {
	cases := []struct {
		pages  int
		mobile bool
		want   [][]int
	}{
		{0, false, nil},
		{1, false, [][]int{{1}}},
		{2, false, [][]int{{1}, {2}}},
		{5, false, [][]int{{1}, {2, 3}, {4, 5}}},
		{6, false, [][]int{{1}, {2, 3}, {4, 5}, {6}}},
		{3, true, [][]int{{1}, {2}, {3}}},
	}
	for _, tc := range cases {
		if got := Spreads(tc.pages, tc.mobile); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Spreads(%d, %v) = %v, want %v", tc.pages, tc.mobile, got, tc.want)
		}
	}
}

func TestViewerMatchesSpreads(t *testing.T) {
	for _, mobile := range []bool{false, true} {
		for pages := 0; pages <= 12; pages++ {
			want := Spreads(pages, mobile)
			v := NewViewer(pages, mobile)
			if v.SpreadCount() != len(want) {
				t.Fatalf("(%d, %v) count %d, want %d", pages, mobile, v.SpreadCount(), len(want))
			}
			for i, s := range want {
				v.Goto(i)
				if !reflect.DeepEqual(v.Current(), s) {
					t.Fatalf("(%d, %v) spread %d = %v, want %v", pages, mobile, i, v.Current(), s)
				}
			}
		}
	}
}

func TestRestoreCapsPages(t *testing.T) {
	v := Restore(math.MaxInt, false, math.MaxInt, 1)
	if !v.Apply("next") {
		t.Fatal("next rejected")
	}
	st := v.State()
	if st.Pages != MaxPages || st.Spreads != MaxPages/2+1 || st.HasNext {
		t.Fatalf("state = %+v", st)
	}
	if !reflect.DeepEqual(st.Current, []int{MaxPages}) {
		t.Fatalf("last spread = %v", st.Current)
	}
}

func TestNavigationClamps(t *testing.T) {
	v := NewViewer(6, false)
	v.Prev()
	if v.Spread() != 0 || v.HasPrev() {
		t.Fatalf("prev from start moved to %d", v.Spread())
	}
	for i := 0; i < 10; i++ {
		v.Next()
	}
	if v.Spread() != 3 || v.HasNext() {
		t.Fatalf("next past end = %d", v.Spread())
	}
	if !reflect.DeepEqual(v.Current(), []int{6}) {
		t.Fatalf("current = %v", v.Current())
	}
}

func TestZoomBoundsAndWidth(t *testing.T) {
	v := NewViewer(5, false)
	if v.PageWidth() != 700 {
		t.Fatalf("cover width = %d", v.PageWidth())
	}
	v.Next()
	if v.PageWidth() != 400 {
		t.Fatalf("pair width = %d", v.PageWidth())
	}
	for i := 0; i < 20; i++ {
		v.ZoomIn()
	}
	if v.Zoom() != 3.0 || v.CanZoomIn() {
		t.Fatalf("zoom max = %v", v.Zoom())
	}
	if v.PageWidth() != 1200 {
		t.Fatalf("zoomed pair width = %d", v.PageWidth())
	}
	for i := 0; i < 20; i++ {
		v.ZoomOut()
	}
	if v.Zoom() != 0.5 || v.CanZoomOut() {
		t.Fatalf("zoom min = %v", v.Zoom())
	}

	m := NewViewer(3, true)
	m.ZoomIn()
	if m.Zoom() != 1.2 || m.PageWidth() != 360 {
		t.Fatalf("mobile zoom %v width %d", m.Zoom(), m.PageWidth())
	}
}

func TestRestoreAndApply(t *testing.T) {
	v := Restore(9, false, 99, 7)
	if v.Spread() != 4 || v.Zoom() != 3.0 {
		t.Fatalf("restore clamps: spread %d zoom %v", v.Spread(), v.Zoom())
	}
	if !v.Apply("prev") || v.Spread() != 3 {
		t.Fatalf("apply prev: %d", v.Spread())
	}
	if v.Apply("rotate") {
		t.Fatalf("unknown action accepted")
	}
	st := v.State()
	if st.Spreads != 5 || !reflect.DeepEqual(st.Current, []int{6, 7}) || !st.HasNext || !st.HasPrev {
		t.Fatalf("state = %+v", st)
	}
	if empty := NewViewer(0, false).State(); empty.Current == nil || empty.Width != 700 {
		t.Fatalf("empty state = %+v", empty)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "nr1.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := DirSource{Dir: dir}
	rc, size, err := src.Open(context.Background(), "nr1.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if size != 8 || string(b) != "%PDF-1.4" {
		t.Fatalf("read %d %q", size, b)
	}
	for _, name := range []string{"missing.pdf", "../secret.pdf", "", "a/../../x.pdf"} {
		if _, _, err := src.Open(context.Background(), name); !errors.Is(err, domainerr.ErrNotFound) {
			t.Errorf("Open(%q) = %v, want not found", name, err)
		}
	}
}

type fakeObjects map[string]string

func (f fakeObjects) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	v, ok := f[key]
	if !ok {
		return nil, 0, domainerr.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(v)), int64(len(v)), nil
}

func TestObjectSourcePrefix(t *testing.T) {
	src := ObjectSource{Objects: fakeObjects{"issues/nr2.pdf": "pdf"}, Prefix: "issues"}
	if _, n, err := src.Open(context.Background(), "/nr2.pdf"); err != nil || n != 3 {
		t.Fatalf("Open = %d, %v", n, err)
	}
}

func TestValidIDAndExternal(t *testing.T) {
	if ValidID("nr1.PDF") || ValidID(" ") || !ValidID("0192f3a1") {
		t.Fatalf("ValidID misclassifies")
	}
	if !IsExternal("https://cdn.example.com/a.pdf") || IsExternal("a.pdf") {
		t.Fatalf("IsExternal misclassifies")
	}
}
