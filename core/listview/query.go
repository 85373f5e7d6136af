package listview

import "strings"

// SortKey selects the comparator used by Sort.
type SortKey string

const (
	SortNewest      SortKey = "newest"   // chronological, newest first
	SortOldest      SortKey = "oldest"   // chronological, oldest first
	SortTitle       SortKey = "title"    // locale-aware lexicographic on the title field
	SortNumeric     SortKey = "numeric"  // numeric field, ascending
	SortNumericDesc SortKey = "-numeric" // numeric field, descending
)

// SortKeys lists every supported key, in the order a UI cycles through them.
var SortKeys = []SortKey{SortNewest, SortOldest, SortTitle, SortNumeric, SortNumericDesc}

// ParseSortKey maps user input to a SortKey, falling back to def for unknown values.
func ParseSortKey(s string, def SortKey) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range SortKeys {
		if k == key {
			return key
		}
	}
	return def
}

// Next returns the key following k in SortKeys, wrapping around.
func (k SortKey) Next() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortKeys[0]
}

// QueryState holds the user-controlled parameters of a list view.
// Transitions are pure: they return a new QueryState.
type QueryState struct {
	SearchText string  `json:"search"`
	SortKey    SortKey `json:"sort"`
	Page       int     `json:"page"`
}

// NewQueryState returns the initial state: no search, sorted by key, first page.
func NewQueryState(key SortKey) QueryState {
	return QueryState{SortKey: key, Page: 1}
}

// WithSearchText changes the search text and goes back to the first page.
func (q QueryState) WithSearchText(s string) QueryState {
	q.SearchText = s
	q.Page = 1
	return q
}

// WithSortKey changes the sort key and goes back to the first page.
func (q QueryState) WithSortKey(k SortKey) QueryState {
	q.SortKey = k
	q.Page = 1
	return q
}

// WithPage moves to page n; values below 1 become 1. The upper bound is applied by Paginate.
func (q QueryState) WithPage(n int) QueryState {
	if n < 1 {
		n = 1
	}
	q.Page = n
	return q
}
