package feed

const windowWidth = 5

// Window is one page of a feed plus what a pager needs to render it.
type Window[T any] struct {
	Items        []T
	CurrentPage  int
	TotalPages   int
	Total        int
	PerPage      int
	VisiblePages []int
	// First and Last are the 1-based positions of Items in the whole feed,
	// both zero for an empty page.
	First int
	Last  int
}

func (w Window[T]) HasPrev() bool { return w.CurrentPage > 1 }

func (w Window[T]) HasNext() bool { return w.CurrentPage < w.TotalPages }

func (w Window[T]) PrevPage() int { return w.CurrentPage - 1 }

func (w Window[T]) NextPage() int { return w.CurrentPage + 1 }

func (w Window[T]) Empty() bool { return len(w.Items) == 0 }

// Paginate slices items into page (1-based) of perPage items. A page past
// the end is empty; a page below 1 is treated as 1.
func Paginate[T any](items []T, page, perPage int) Window[T] {
	if perPage <= 0 {
		perPage = 10
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := (total + perPage - 1) / perPage

	w := Window[T]{
		Items:        []T{},
		CurrentPage:  page,
		TotalPages:   totalPages,
		Total:        total,
		PerPage:      perPage,
		VisiblePages: VisiblePages(page, totalPages),
	}
	if page > totalPages {
		return w
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	w.Items = items[start:end]
	w.First = start + 1
	w.Last = end
	return w
}

// VisiblePages lists the page numbers a pager shows: all of them up to five
// pages, otherwise five consecutive pages around current inside [1, total].
func VisiblePages(current, total int) []int {
	if total <= 0 {
		return []int{}
	}
	if total <= windowWidth {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	current = min(max(current, 1), total)
	start := current - windowWidth/2
	if start < 1 {
		start = 1
	}
	if start+windowWidth-1 > total {
		start = total - windowWidth + 1
	}
	out := make([]int, windowWidth)
	for i := range out {
		out[i] = start + i
	}
	return out
}
