package listview

import (
	"context"
	"fmt"
)

// Config configures a Pipeline.
type Config[T any] struct {
	Fields   Fields[T]
	PageSize int     // DefaultPageSize when < 1
	SortKey  SortKey // initial sort key; SortNewest when empty
	Notifier Notifier
	// FetchError formats the notification sent when a fetch fails.
	FetchError func(err error) string
}

// Pipeline is the state of one list screen: the last good collection, the QueryState and the
// PageWindow derived from both. It is not safe for concurrent use; drive it from the goroutine
// that owns the screen (e.g. a UI update loop).
type Pipeline[T any] struct {
	fields     Fields[T]
	pageSize   int
	notifier   Notifier
	fetchError func(err error) string

	query    QueryState
	source   []T
	loaded   bool
	arranged []T // filtered + sorted
	view     PageWindow[T]
	seq      uint64 // latest issued fetch
}

func New[T any](conf Config[T]) *Pipeline[T] {
	if conf.PageSize < 1 {
		conf.PageSize = DefaultPageSize
	}
	if conf.SortKey == "" {
		conf.SortKey = SortNewest
	}
	if conf.Notifier == nil {
		conf.Notifier = nopNotifier{}
	}
	if conf.FetchError == nil {
		conf.FetchError = func(err error) string { return fmt.Sprintf("could not load data: %v", err) }
	}

	p := &Pipeline[T]{
		fields:     conf.Fields,
		pageSize:   conf.PageSize,
		notifier:   conf.Notifier,
		fetchError: conf.FetchError,
		query:      NewQueryState(conf.SortKey),
	}
	p.arrange()
	return p
}

func (p *Pipeline[T]) Query() QueryState   { return p.query }
func (p *Pipeline[T]) View() PageWindow[T] { return p.view }
func (p *Pipeline[T]) Source() []T         { return p.source }

// Loaded reports whether a fetch has ever succeeded (or a source was set).
func (p *Pipeline[T]) Loaded() bool { return p.loaded }

// SetSource replaces the collection, keeping the current query and page (clamped).
func (p *Pipeline[T]) SetSource(items []T) {
	p.source = append(make([]T, 0, len(items)), items...)
	p.loaded = true
	p.arrange()
}

// SetSearchText applies a (debounced) search and goes back to the first page.
func (p *Pipeline[T]) SetSearchText(s string) {
	p.query = p.query.WithSearchText(s)
	p.arrange()
}

// SetSortKey changes the ordering and goes back to the first page.
func (p *Pipeline[T]) SetSortKey(k SortKey) {
	p.query = p.query.WithSortKey(k)
	p.arrange()
}

// SetPage moves to page n, clamped into range. Only pagination reruns.
func (p *Pipeline[T]) SetPage(n int) {
	p.query = p.query.WithPage(n)
	p.paginate()
}

func (p *Pipeline[T]) NextPage() { p.SetPage(p.view.CurrentPage + 1) }
func (p *Pipeline[T]) PrevPage() { p.SetPage(p.view.CurrentPage - 1) }

// Begin starts a fetch and returns its sequence number.
func (p *Pipeline[T]) Begin() uint64 {
	p.seq++
	return p.seq
}

// Resolve applies the outcome of fetch seq. Outcomes of superseded fetches are ignored and
// Resolve returns false. A failed fetch notifies the error and keeps the previous collection.
func (p *Pipeline[T]) Resolve(seq uint64, items []T, err error) bool {
	if seq != p.seq {
		return false
	}
	if err != nil {
		p.notifier.Notify(NoticeError, p.fetchError(err))
		return true
	}
	p.SetSource(items)
	return true
}

// Load fetches synchronously and resolves the result.
func (p *Pipeline[T]) Load(ctx context.Context, fetch FetchFunc[T]) error {
	seq := p.Begin()
	items, err := fetch(ctx)
	p.Resolve(seq, items, err)
	return err
}

func (p *Pipeline[T]) arrange() {
	p.arranged = Sort(Filter(p.source, p.query.SearchText, p.fields.Text...), p.query.SortKey, p.fields)
	p.paginate()
}

func (p *Pipeline[T]) paginate() {
	p.view = window(len(p.source), p.arranged, p.pageSize, p.query.Page)
	p.query.Page = p.view.CurrentPage
}
