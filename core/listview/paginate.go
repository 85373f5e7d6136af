package listview

const (
	DefaultPageSize = 10
	windowSize      = 5
)

// State tells a list screen which message to show.
type State string

const (
	StateNoData    State = "empty"      // the source collection itself is empty
	StateNoMatches State = "no_matches" // the source has items but none match the search
	StateResults   State = "results"
)

// PageWindow is one page of results plus what navigation controls need.
type PageWindow[T any] struct {
	Items       []T   `json:"items"`
	TotalItems  int   `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	PageNumbers []int `json:"page_numbers"`
	State       State `json:"state"`
}

// HasPrev reports whether a previous page exists.
func (w PageWindow[T]) HasPrev() bool { return w.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (w PageWindow[T]) HasNext() bool { return w.CurrentPage < w.TotalPages }

// Offset is the index, in the arranged collection, of the first item on the page.
func (w PageWindow[T]) Offset() int { return (w.CurrentPage - 1) * w.PageSize }

// TotalPages returns max(1, ceil(n / pageSize)).
func TotalPages(n, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// ClampPage moves page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate slices items into the page at currentPage (clamped into range).
// An empty collection yields a single empty page.
func Paginate[T any](items []T, pageSize, currentPage int) PageWindow[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(items), pageSize)
	page := ClampPage(currentPage, total)

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	pageItems := make([]T, 0, end-start)
	pageItems = append(pageItems, items[start:end]...)

	state := StateResults
	if len(items) == 0 {
		state = StateNoData
	}
	return PageWindow[T]{
		Items:       pageItems,
		TotalItems:  len(items),
		TotalPages:  total,
		CurrentPage: page,
		PageSize:    pageSize,
		PageNumbers: PageNumbers(total, page),
		State:       state,
	}
}

// PageNumbers returns the page links to render: every page when there are at most 5,
// otherwise 5 consecutive pages centred on current and kept inside [1, totalPages].
func PageNumbers(totalPages, current int) []int {
	if totalPages < 1 {
		totalPages = 1
	}
	current = ClampPage(current, totalPages)

	start, end := 1, totalPages
	if totalPages > windowSize {
		start = current - windowSize/2
		if start < 1 {
			start = 1
		}
		end = start + windowSize - 1
		if end > totalPages {
			end = totalPages
			start = end - windowSize + 1
		}
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Apply runs filter -> sort -> paginate over source in one go.
func Apply[T any](source []T, fields Fields[T], q QueryState, pageSize int) PageWindow[T] {
	arranged := Sort(Filter(source, q.SearchText, fields.Text...), q.SortKey, fields)
	return window(len(source), arranged, pageSize, q.Page)
}

func window[T any](sourceLen int, arranged []T, pageSize, page int) PageWindow[T] {
	w := Paginate(arranged, pageSize, page)
	if len(arranged) == 0 && sourceLen > 0 {
		w.State = StateNoMatches
	}
	return w
}
