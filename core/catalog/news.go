package catalog

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
)

type News struct {
	Meta
	UniversityID null.String `json:"university_id" db:"university_id"` // null: portal-wide news
	Title        string      `json:"title" db:"title"`
	Content      string      `json:"content" db:"content"`
	Author       string      `json:"author" db:"author"`
	PublishedAt  time.Time   `json:"published_at" db:"published_at"` // UTC
}

func (n News) WithMeta(meta Meta) News { n.Meta = meta; return n }
func (n News) UniversityRef() string    { return n.UniversityID.String }

var NewsKind = Kind[News]{
	Name:     "news",
	Singular: "news",
	Fields: listview.Fields[News]{
		Text: []func(News) string{
			func(n News) string { return n.Title },
			func(n News) string { return n.Content },
		},
		Title: func(n News) string { return n.Title },
		Date:  func(n News) time.Time { return n.PublishedAt },
	},
	DefaultSort: listview.SortNewest,
	References:  true,
}

type NewsInput struct {
	UniversityID string    `json:"university_id"`
	Title        string    `json:"title" validate:"required,notblank,max=255"`
	Content      string    `json:"content" validate:"required,notblank"`
	Author       string    `json:"author" validate:"max=255"`
	PublishedAt  time.Time `json:"published_at"`
}

func (in *NewsInput) Clean() {
	in.UniversityID = core.CleanString(in.UniversityID)
	in.Title = core.CleanString(in.Title)
	in.Content = core.CleanString(in.Content)
	in.Author = core.CleanString(in.Author)
	if in.PublishedAt.IsZero() {
		in.PublishedAt = time.Now()
	}
	in.PublishedAt = in.PublishedAt.UTC()
}

func (in *NewsInput) Apply(n News) News {
	n.UniversityID = null.NewString(in.UniversityID, in.UniversityID != "")
	n.Title = in.Title
	n.Content = in.Content
	n.Author = in.Author
	n.PublishedAt = in.PublishedAt
	return n
}
