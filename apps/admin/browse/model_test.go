package browse

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/listview"
)

var now = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newMajor(id, name string, quota int, age time.Duration) catalog.Major {
	return catalog.Major{
		Meta:  catalog.Meta{ID: id, CreatedAt: now.Add(-age), UpdatedAt: now.Add(-age)},
		Name:  name,
		Quota: quota,
	}
}

var (
	cs         = newMajor("cs", "Khoa học máy tính", 300, 3*time.Hour)
	accounting = newMajor("acc", "Kế toán", 150, 2*time.Hour)
	finance    = newMajor("fin", "Tài chính", 200, time.Hour)
)

// fakeSource serves its responses in order, repeating the last one.
type fakeSource struct {
	calls     int
	responses []fakeResponse
}

type fakeResponse struct {
	items []catalog.Major
	err   error
}

func (s *fakeSource) fetch(context.Context) ([]catalog.Major, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i].items, s.responses[i].err
}

func runCmd[E catalog.Entity[E]](m *model[E], cmd tea.Cmd) {
	m.Update(cmd())
}

func ids(items []catalog.Major) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.ID)
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T) *model[catalog.Major] {
	t.Helper()
	src := &fakeSource{responses: []fakeResponse{{items: []catalog.Major{cs, accounting, finance}}}}
	m := newModel(catalog.MajorKind, src.fetch, 2)
	runCmd(m, m.load())
	require.True(t, m.pipe.Loaded())
	return m
}

func TestModel_Load(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{{items: []catalog.Major{cs, accounting, finance}}}}
	m := newModel(catalog.MajorKind, src.fetch, 2)

	cmd := m.load()
	assert.Contains(t, m.View(), "loading...")

	runCmd(m, cmd)
	assert.False(t, m.loading)
	assert.Equal(t, []string{"fin", "acc"}, ids(m.pipe.View().Items))
	assert.Equal(t, notice{kind: listview.NoticeSuccess, message: "loaded 3 majors"}, m.status)

	view := m.View()
	assert.Contains(t, view, "Tài chính")
	assert.Contains(t, view, "Kế toán")
	assert.NotContains(t, view, "Khoa học máy tính")
	assert.Contains(t, view, "loaded 3 majors")
}

func TestModel_StaleFetchIgnored(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{items: []catalog.Major{cs}},
		{items: []catalog.Major{cs, accounting, finance}},
	}}
	m := newModel(catalog.MajorKind, src.fetch, 10)

	first, second := m.load(), m.load()
	firstMsg := first()
	runCmd(m, second)
	m.Update(firstMsg)

	assert.Len(t, m.pipe.Source(), 3)
}

func TestModel_FetchErrorKeepsData(t *testing.T) {
	src := &fakeSource{responses: []fakeResponse{
		{items: []catalog.Major{cs, accounting}},
		{err: errors.New("boom")},
	}}
	m := newModel(catalog.MajorKind, src.fetch, 10)
	runCmd(m, m.load())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.Equal(t, notice{kind: listview.NoticeInfo, message: "reloading..."}, m.status)

	runCmd(m, cmd)
	assert.Equal(t, notice{kind: listview.NoticeError, message: "could not load majors: boom"}, m.status)
	assert.Equal(t, []string{"acc", "cs"}, ids(m.pipe.View().Items))
}

func TestModel_Pages(t *testing.T) {
	m := loadedModel(t)

	m.Update(key("right"))
	assert.Equal(t, 2, m.pipe.View().CurrentPage)
	assert.Equal(t, []string{"cs"}, ids(m.pipe.View().Items))
	assert.Contains(t, m.View(), "Khoa học máy tính")

	m.Update(key("right"))
	assert.Equal(t, 2, m.pipe.View().CurrentPage)

	m.Update(key("left"))
	m.Update(key("left"))
	assert.Equal(t, 1, m.pipe.View().CurrentPage)
}

func TestModel_SortCycle(t *testing.T) {
	m := loadedModel(t)
	m.Update(key("right"))

	tests := []struct {
		key     listview.SortKey
		wantIDs []string
	}{
		{key: listview.SortOldest, wantIDs: []string{"cs", "acc"}},
		{key: listview.SortTitle, wantIDs: []string{"acc", "cs"}},
		{key: listview.SortNumeric, wantIDs: []string{"acc", "fin"}},
		{key: listview.SortNumericDesc, wantIDs: []string{"cs", "fin"}},
		{key: listview.SortNewest, wantIDs: []string{"fin", "acc"}},
	}
	for _, tt := range tests {
		m.Update(key("tab"))
		assert.Equal(t, tt.key, m.pipe.Query().SortKey)
		assert.Equal(t, 1, m.pipe.View().CurrentPage, tt.key)
		assert.Equal(t, tt.wantIDs, ids(m.pipe.View().Items), tt.key)
	}
}

func TestModel_SortCycleSkipsUnsupportedKeys(t *testing.T) {
	m := newModel(catalog.NewsKind, func(context.Context) ([]catalog.News, error) { return nil, nil }, 10)

	var seen []listview.SortKey
	for i := 0; i < 3; i++ {
		m.Update(key("tab"))
		seen = append(seen, m.pipe.Query().SortKey)
	}
	assert.Equal(t, []listview.SortKey{listview.SortOldest, listview.SortTitle, listview.SortNewest}, seen)
}

func TestModel_Search(t *testing.T) {
	m := loadedModel(t)
	search := func(s string) { m.Update(searchMsg{gen: m.searchGen, text: s}) }

	search("kế")
	assert.Equal(t, []string{"acc"}, ids(m.pipe.View().Items))

	search("zzz")
	assert.Equal(t, listview.StateNoMatches, m.pipe.View().State)
	assert.Contains(t, m.View(), `No majors match "zzz".`)

	search("")
	assert.Len(t, m.pipe.View().Items, 2)
}

func TestModel_SearchIsDebounced(t *testing.T) {
	m := loadedModel(t)

	for _, r := range []string{"t", "à", "i"} {
		m.Update(key(r))
	}
	// nothing applied while typing
	assert.Equal(t, "", m.pipe.Query().SearchText)

	select {
	case s := <-m.searches:
		assert.Equal(t, "tài", s.text)
		m.Update(s)
	case <-time.After(5 * SearchDelay):
		t.Fatal("debounced search never fired")
	}
	assert.Equal(t, []string{"fin"}, ids(m.pipe.View().Items))
}

func TestModel_EnterSearchesNow(t *testing.T) {
	m := loadedModel(t)

	m.Update(key("k"))
	m.Update(key("ế"))
	m.Update(key("enter"))

	assert.Equal(t, "kế", m.pipe.Query().SearchText)
	assert.Equal(t, []string{"acc"}, ids(m.pipe.View().Items))
	assert.False(t, m.debouncer.Pending())
}

func TestModel_EnterDropsDebouncedSearch(t *testing.T) {
	m := loadedModel(t)

	m.Update(key("t"))
	m.Update(key("à"))
	m.debouncer.Flush()
	// a debounced search already picked up by waitForSearch
	queued := <-m.searches

	m.Update(key("i"))
	m.debouncer.Flush()
	require.Len(t, m.searches, 1)

	m.Update(key("x"))
	m.Update(key("enter"))
	assert.Empty(t, m.searches, "pending search dropped")
	assert.Equal(t, "tàix", m.pipe.Query().SearchText)

	m.Update(queued)
	assert.Equal(t, "tàix", m.pipe.Query().SearchText, "older search ignored")
	assert.Equal(t, listview.StateNoMatches, m.pipe.View().State)
}

func TestModel_Quit(t *testing.T) {
	m := loadedModel(t)

	_, cmd := m.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNewModel(t *testing.T) {
	c := NewClient("http://localhost")

	_, err := NewModel("admission-methods", c, 10)
	assert.NoError(t, err)

	_, err = NewModel(" Majors ", c, 10)
	assert.NoError(t, err)

	_, err = NewModel("students", c, 10)
	assert.Equal(t, ErrUnknownEntity, err)
}
