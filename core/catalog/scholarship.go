package catalog

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
)

type Scholarship struct {
	Meta
	UniversityID  string    `json:"university_id" db:"university_id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Amount        int64     `json:"amount" db:"amount"` // VND
	AdmissionYear int       `json:"admission_year" db:"admission_year"`
	Deadline      null.Time `json:"deadline" db:"deadline"`
}

func (s Scholarship) WithMeta(meta Meta) Scholarship { s.Meta = meta; return s }
func (s Scholarship) UniversityRef() string           { return s.UniversityID }

var ScholarshipKind = Kind[Scholarship]{
	Name:     "scholarships",
	Singular: "scholarship",
	Fields: listview.Fields[Scholarship]{
		Text: []func(Scholarship) string{
			func(s Scholarship) string { return s.Name },
			func(s Scholarship) string { return s.Description },
		},
		Title:  func(s Scholarship) string { return s.Name },
		Date:   func(s Scholarship) time.Time { return s.CreatedAt },
		Number: func(s Scholarship) float64 { return float64(s.Amount) },
	},
	DefaultSort: listview.SortNewest,
	References:  true,
}

type ScholarshipInput struct {
	UniversityID  string    `json:"university_id" validate:"required"`
	Name          string    `json:"name" validate:"required,notblank,max=255"`
	Description   string    `json:"description"`
	Amount        int64     `json:"amount" validate:"gte=0"`
	AdmissionYear int       `json:"admission_year" validate:"required,admission_year"`
	Deadline      null.Time `json:"deadline"`
}

func (in *ScholarshipInput) Clean() {
	in.UniversityID = core.CleanString(in.UniversityID)
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	if in.Deadline.Valid {
		in.Deadline.Time = in.Deadline.Time.UTC()
	}
}

func (in *ScholarshipInput) Apply(s Scholarship) Scholarship {
	s.UniversityID = in.UniversityID
	s.Name = in.Name
	s.Description = in.Description
	s.Amount = in.Amount
	s.AdmissionYear = in.AdmissionYear
	s.Deadline = in.Deadline
	return s
}
