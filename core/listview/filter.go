package listview

import (
	"strings"

	"github.com/samber/lo"
)

// Filter returns the items for which any of fields contains query, ignoring case.
// A blank query keeps every item. Order is preserved and items are never modified.
func Filter[T any](items []T, query string, fields ...func(T) string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append(make([]T, 0, len(items)), items...)
	}
	return lo.Filter(items, func(item T, _ int) bool {
		return matches(item, query, fields)
	})
}

func matches[T any](item T, query string, fields []func(T) string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field(item)), query) {
			return true
		}
	}
	return false
}
