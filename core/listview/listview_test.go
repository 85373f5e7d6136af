package listview

import (
	"fmt"
	"time"
)

type item struct {
	id    int
	title string
	body  string
	date  time.Time
	score float64
}

var itemFields = Fields[item]{
	Text:   []func(item) string{func(i item) string { return i.title }, func(i item) string { return i.body }},
	Title:  func(i item) string { return i.title },
	Date:   func(i item) time.Time { return i.date },
	Number: func(i item) float64 { return i.score },
}

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// makeItems returns n items with ids 1..n, dated one day apart (item 1 oldest).
func makeItems(n int) []item {
	items := make([]item, n)
	for i := range items {
		items[i] = item{
			id:    i + 1,
			title: fmt.Sprintf("Item %02d", i+1),
			date:  epoch.AddDate(0, 0, i),
			score: float64(i + 1),
		}
	}
	return items
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func idRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
