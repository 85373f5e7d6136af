package listview

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation is the language used to compare titles.
var Collation = language.Vietnamese

// Sort returns a new slice holding items ordered by key. Equal items keep their
// relative order. Keys the accessors cannot serve leave the order untouched.
func Sort[T any](items []T, key SortKey, fields Fields[T]) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	less := comparator(key, fields)
	if less == nil {
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

func comparator[T any](key SortKey, fields Fields[T]) func(a, b T) bool {
	if !fields.Supports(key) {
		return nil
	}

	switch key {
	case SortNewest:
		return func(a, b T) bool { return fields.Date(a).After(fields.Date(b)) }
	case SortOldest:
		return func(a, b T) bool { return fields.Date(a).Before(fields.Date(b)) }
	case SortTitle:
		// collate.Collator keeps internal buffers: one per Sort call
		coll := collate.New(Collation)
		return func(a, b T) bool { return coll.CompareString(fields.Title(a), fields.Title(b)) < 0 }
	case SortNumeric:
		return func(a, b T) bool { return fields.Number(a) < fields.Number(b) }
	case SortNumericDesc:
		return func(a, b T) bool { return fields.Number(a) > fields.Number(b) }
	}
	return nil
}
