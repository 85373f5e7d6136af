package listview

import "time"

// Fields tells the pipeline how to read a T. It is resolved once, when a list is
// configured, instead of inspecting each item.
type Fields[T any] struct {
	// Text are the fields searched by Filter.
	Text []func(T) string
	// Title is compared by SortTitle.
	Title func(T) string
	// Date is compared by SortNewest and SortOldest.
	Date func(T) time.Time
	// Number is compared by SortNumeric and SortNumericDesc. Optional.
	Number func(T) float64
}

// Supports reports whether key can be applied with these accessors.
func (f Fields[T]) Supports(key SortKey) bool {
	switch key {
	case SortNewest, SortOldest:
		return f.Date != nil
	case SortTitle:
		return f.Title != nil
	case SortNumeric, SortNumericDesc:
		return f.Number != nil
	default:
		return false
	}
}
