package browse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/listview"
)

// SearchDelay is the quiet period before a typed search is applied.
const SearchDelay = 500 * time.Millisecond

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle  = lipgloss.NewStyle().Faint(true)
	rowStyle     = lipgloss.NewStyle().PaddingLeft(2)
	pageStyle    = lipgloss.NewStyle().Padding(0, 1)
	curPageStyle = pageStyle.Copy().Reverse(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	noticeStyles = map[listview.NoticeKind]lipgloss.Style{
		listview.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		listview.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		listview.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

type (
	fetchedMsg[E any] struct {
		seq   uint64
		items []E
		err   error
	}

	// searchMsg carries a debounced search text. gen is the input generation it was typed in;
	// later edits or an explicit search make it stale.
	searchMsg struct {
		gen  uint64
		text string
	}

	notice struct {
		kind    listview.NoticeKind
		message string
	}
)

// model is the list screen of one catalog kind.
type model[E catalog.Entity[E]] struct {
	kind   catalog.Kind[E]
	fetch  listview.FetchFunc[E]
	pipe   *listview.Pipeline[E]
	search textinput.Model

	debouncer *listview.Debouncer[searchMsg]
	searches  chan searchMsg
	searchGen uint64

	loading bool
	status  notice
}

func newModel[E catalog.Entity[E]](kind catalog.Kind[E], fetch listview.FetchFunc[E], pageSize int) *model[E] {
	m := &model[E]{
		kind:     kind,
		fetch:    fetch,
		searches: make(chan searchMsg, 1),
	}
	m.pipe = listview.New(listview.Config[E]{
		Fields:   kind.Fields,
		PageSize: pageSize,
		SortKey:  kind.DefaultSort,
		Notifier: listview.NotifierFunc(m.notify),
		FetchError: func(err error) string {
			return fmt.Sprintf("could not load %s: %v", kind.Name, err)
		},
	})
	m.debouncer = listview.NewDebouncer(SearchDelay, func(s searchMsg) {
		// keep only the latest search
		m.drainSearches()
		m.searches <- s
	})

	m.search = textinput.New()
	m.search.Placeholder = "search " + kind.Name
	m.search.Prompt = "/ "
	m.search.CharLimit = 100
	m.search.Focus()
	return m
}

func (m *model[E]) notify(kind listview.NoticeKind, message string) {
	m.status = notice{kind: kind, message: message}
}

func (m *model[E]) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load(), m.waitForSearch())
}

// load starts a fetch; only the latest one is applied.
func (m *model[E]) load() tea.Cmd {
	seq := m.pipe.Begin()
	m.loading = true
	fetch := m.fetch
	return func() tea.Msg {
		items, err := fetch(context.Background())
		return fetchedMsg[E]{seq: seq, items: items, err: err}
	}
}

func (m *model[E]) waitForSearch() tea.Cmd {
	return func() tea.Msg {
		return <-m.searches
	}
}

func (m *model[E]) drainSearches() {
	select {
	case <-m.searches:
	default:
	}
}

func (m *model[E]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg[E]:
		if !m.pipe.Resolve(msg.seq, msg.items, msg.err) {
			return m, nil
		}
		m.loading = false
		if msg.err == nil {
			m.notify(listview.NoticeSuccess, fmt.Sprintf("loaded %d %s", len(msg.items), m.kind.Name))
		}
		return m, nil

	case searchMsg:
		if msg.gen == m.searchGen {
			m.pipe.SetSearchText(msg.text)
		}
		return m, m.waitForSearch()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.debouncer.Stop()
			return m, tea.Quit
		case "enter":
			m.searchGen++
			m.debouncer.Stop()
			m.drainSearches()
			m.pipe.SetSearchText(m.search.Value())
			return m, nil
		case "tab":
			m.pipe.SetSortKey(m.nextSortKey())
			return m, nil
		case "right", "pgdown":
			m.pipe.NextPage()
			return m, nil
		case "left", "pgup":
			m.pipe.PrevPage()
			return m, nil
		case "ctrl+r":
			m.notify(listview.NoticeInfo, "reloading...")
			return m, m.load()
		}
	}

	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != prev {
		m.searchGen++
		m.debouncer.Set(searchMsg{gen: m.searchGen, text: v})
	}
	return m, cmd
}

// nextSortKey cycles through the sort keys the kind supports.
func (m *model[E]) nextSortKey() listview.SortKey {
	key := m.pipe.Query().SortKey
	for range listview.SortKeys {
		key = key.Next()
		if m.kind.Fields.Supports(key) {
			return key
		}
	}
	return m.pipe.Query().SortKey
}

func (m *model[E]) View() string {
	var b strings.Builder
	view := m.pipe.View()
	query := m.pipe.Query()

	b.WriteString(titleStyle.Render(cases.Title(language.English).String(strings.ReplaceAll(m.kind.Name, "_", " "))))
	b.WriteString(headerStyle.Render(fmt.Sprintf("  sort: %s  ·  %d of %d", query.SortKey, view.TotalItems, len(m.pipe.Source()))))
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch {
	case m.loading && !m.pipe.Loaded():
		b.WriteString(rowStyle.Render("loading..."))
		b.WriteString("\n")
	case view.State == listview.StateNoData:
		b.WriteString(rowStyle.Render(fmt.Sprintf("No %s yet.", m.kind.Name)))
		b.WriteString("\n")
	case view.State == listview.StateNoMatches:
		b.WriteString(rowStyle.Render(fmt.Sprintf("No %s match %q.", m.kind.Name, query.SearchText)))
		b.WriteString("\n")
	default:
		for i, e := range view.Items {
			b.WriteString(rowStyle.Render(m.row(view.Offset()+i+1, e)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(pagesView(view))
	b.WriteString("\n")
	if m.status.message != "" {
		b.WriteString(noticeStyles[m.status.kind].Render(m.status.message))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("type to search · enter: search now · tab: sort · ←/→: page · ctrl+r: reload · esc: quit"))
	return b.String()
}

func (m *model[E]) row(n int, e E) string {
	title := e.Metadata().ID
	if m.kind.Fields.Title != nil {
		title = m.kind.Fields.Title(e)
	}
	cols := []string{strconv.Itoa(n) + ".", title}
	if m.kind.Fields.Number != nil {
		cols = append(cols, strconv.FormatFloat(m.kind.Fields.Number(e), 'f', -1, 64))
	}
	if m.kind.Fields.Date != nil {
		cols = append(cols, m.kind.Fields.Date(e).Format("2006-01-02"))
	}
	return strings.Join(cols, "  ")
}

func pagesView[E any](view listview.PageWindow[E]) string {
	parts := make([]string, 0, len(view.PageNumbers)+2)
	if view.HasPrev() {
		parts = append(parts, pageStyle.Render("‹"))
	}
	for _, p := range view.PageNumbers {
		if p == view.CurrentPage {
			parts = append(parts, curPageStyle.Render(strconv.Itoa(p)))
		} else {
			parts = append(parts, pageStyle.Render(strconv.Itoa(p)))
		}
	}
	if view.HasNext() {
		parts = append(parts, pageStyle.Render("›"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
