package listview

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
	done   chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 10)} }

func (r *recorder) emit(v string) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_emitsLatestOnce(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(50*time.Millisecond, rec.emit)

	d.Set("a")
	d.Set("ab")
	d.Set("abc")
	assert.True(t, d.Pending())

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		require.FailNow(t, "debouncer never emitted")
	}
	// wait past another quiet period to make sure nothing else fires
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []string{"abc"}, rec.got())
	assert.False(t, d.Pending())
}

func TestDebouncer_restartsQuietPeriod(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(200*time.Millisecond, rec.emit)

	d.Set("h")
	time.Sleep(50 * time.Millisecond)
	d.Set("hu")
	time.Sleep(50 * time.Millisecond)
	d.Set("hust")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.got(), "no emission while input keeps changing")

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		require.FailNow(t, "debouncer never emitted")
	}
	assert.Equal(t, []string{"hust"}, rec.got())
}

func TestDebouncer_Flush(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(time.Hour, rec.emit)

	d.Flush() // nothing pending
	assert.Empty(t, rec.got())

	d.Set("fpt")
	d.Flush()
	assert.Equal(t, []string{"fpt"}, rec.got())
	assert.False(t, d.Pending())
}

func TestDebouncer_Stop(t *testing.T) {
	rec := newRecorder()
	d := NewDebouncer(30*time.Millisecond, rec.emit)

	d.Set("x")
	d.Stop()
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, rec.got())
	assert.False(t, d.Pending())
}
