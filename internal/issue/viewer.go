package issue

import "math"

// Zoom is kept in percent so repeated steps never drift.
const (
	zoomStart = 100
	zoomStep  = 20
	zoomMin   = 50
	zoomMax   = 300
)

const (
	desktopSingleWidth = 700
	desktopPairWidth   = 400
	mobileSingleWidth  = 300
	mobilePairWidth    = 280
)

// MaxPages is the largest page count a viewer accepts.
const MaxPages = 2000

// Spreads groups page numbers (1-based) the way they are shown side by side.
// On mobile every page stands alone; on desktop the cover stands alone and
// the rest come in pairs, the last one possibly single.
func Spreads(pages int, mobile bool) [][]int {
	n := spreadCount(pages, mobile)
	if n == 0 {
		return nil
	}
	out := make([][]int, 0, n)
	for i := range n {
		out = append(out, spreadAt(pages, mobile, i))
	}
	return out
}

func spreadCount(pages int, mobile bool) int {
	switch {
	case pages <= 0:
		return 0
	case mobile:
		return pages
	default:
		return 1 + pages/2
	}
}

// spreadAt returns spread i, which must be in range.
func spreadAt(pages int, mobile bool, i int) []int {
	if mobile {
		return []int{i + 1}
	}
	if i == 0 {
		return []int{1}
	}
	p := 2 * i
	if p+1 <= pages {
		return []int{p, p + 1}
	}
	return []int{p}
}

// Viewer is the navigation and zoom state of the issue reader.
type Viewer struct {
	Pages   int
	Mobile  bool
	spread  int
	zoomPct int
}

func NewViewer(pages int, mobile bool) *Viewer {
	return &Viewer{Pages: pages, Mobile: mobile, zoomPct: zoomStart}
}

// Restore rebuilds a viewer at a given spread index and zoom, clamping both.
// The page count is capped at MaxPages.
func Restore(pages int, mobile bool, spread int, zoom float64) *Viewer {
	v := NewViewer(min(pages, MaxPages), mobile)
	v.zoomPct = clamp(int(math.Round(zoom*100)), zoomMin, zoomMax)
	v.Goto(spread)
	return v
}

// Spread is the index of the current spread.
func (v *Viewer) Spread() int { return v.spread }

func (v *Viewer) SpreadCount() int { return spreadCount(v.Pages, v.Mobile) }

// Current lists the page numbers on screen.
func (v *Viewer) Current() []int {
	if v.SpreadCount() == 0 {
		return nil
	}
	return spreadAt(v.Pages, v.Mobile, v.spread)
}

func (v *Viewer) Goto(i int) {
	n := v.SpreadCount()
	if n == 0 {
		v.spread = 0
		return
	}
	v.spread = clamp(i, 0, n-1)
}

func (v *Viewer) Next() { v.Goto(v.spread + 1) }

func (v *Viewer) Prev() { v.Goto(v.spread - 1) }

func (v *Viewer) HasNext() bool { return v.spread < v.SpreadCount()-1 }

func (v *Viewer) HasPrev() bool { return v.spread > 0 }

func (v *Viewer) ZoomIn() { v.zoomPct = clamp(v.zoomPct+zoomStep, zoomMin, zoomMax) }

func (v *Viewer) ZoomOut() { v.zoomPct = clamp(v.zoomPct-zoomStep, zoomMin, zoomMax) }

func (v *Viewer) Zoom() float64 { return float64(v.zoomPct) / 100 }

func (v *Viewer) CanZoomIn() bool { return v.zoomPct < zoomMax }

func (v *Viewer) CanZoomOut() bool { return v.zoomPct > zoomMin }

// PageWidth is the rendered width in pixels of each page on screen.
func (v *Viewer) PageWidth() int {
	pair := len(v.Current()) == 2
	var base int
	switch {
	case v.Mobile && pair:
		base = mobilePairWidth
	case v.Mobile:
		base = mobileSingleWidth
	case pair:
		base = desktopPairWidth
	default:
		base = desktopSingleWidth
	}
	return base * v.zoomPct / 100
}

// State is the viewer as sent to the page script.
type State struct {
	Pages      int     `json:"pages"`
	Spread     int     `json:"spread"`
	Spreads    int     `json:"spreads"`
	Current    []int   `json:"current"`
	Zoom       float64 `json:"zoom"`
	Width      int     `json:"width"`
	HasPrev    bool    `json:"has_prev"`
	HasNext    bool    `json:"has_next"`
	CanZoomIn  bool    `json:"can_zoom_in"`
	CanZoomOut bool    `json:"can_zoom_out"`
}

func (v *Viewer) State() State {
	cur := v.Current()
	if cur == nil {
		cur = []int{}
	}
	return State{
		Pages:      v.Pages,
		Spread:     v.spread,
		Spreads:    v.SpreadCount(),
		Current:    cur,
		Zoom:       v.Zoom(),
		Width:      v.PageWidth(),
		HasPrev:    v.HasPrev(),
		HasNext:    v.HasNext(),
		CanZoomIn:  v.CanZoomIn(),
		CanZoomOut: v.CanZoomOut(),
	}
}

// Apply runs a named viewer action: next, prev, zoom-in or zoom-out.
func (v *Viewer) Apply(action string) bool {
	switch action {
	case "next":
		v.Next()
	case "prev":
		v.Prev()
	case "zoom-in":
		v.ZoomIn()
	case "zoom-out":
		v.ZoomOut()
	default:
		return false
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
