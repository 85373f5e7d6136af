// Package listview turns a fetched collection into the page shown by a list screen.
//
// The pipeline runs filter -> sort -> paginate over caller-owned items:
//
//	Filter   case-insensitive substring match over the configured text fields
//	Sort     newest | oldest | title (Vietnamese collation) | numeric | -numeric, stable
//	Paginate fixed-size pages, clamped current page, 5-wide page-number window
//
// Pipeline keeps the QueryState and the last good collection for one list screen;
// Debouncer delays search text until typing settles. Nothing here blocks or errors:
// malformed input is clamped and fetch failures go to a Notifier.
package listview
