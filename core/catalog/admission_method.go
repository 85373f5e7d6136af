package catalog

import (
	"time"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
)

type AdmissionMethod struct {
	Meta
	UniversityID  string  `json:"university_id" db:"university_id"`
	Name          string  `json:"name" db:"name"`
	Description   string  `json:"description" db:"description"`
	AdmissionYear int     `json:"admission_year" db:"admission_year"`
	MinScore      float64 `json:"min_score" db:"min_score"`
}

func (a AdmissionMethod) WithMeta(meta Meta) AdmissionMethod { a.Meta = meta; return a }
func (a AdmissionMethod) UniversityRef() string               { return a.UniversityID }

var AdmissionMethodKind = Kind[AdmissionMethod]{
	Name:     "admission_methods",
	Singular: "admission method",
	Fields: listview.Fields[AdmissionMethod]{
		Text: []func(AdmissionMethod) string{
			func(a AdmissionMethod) string { return a.Name },
			func(a AdmissionMethod) string { return a.Description },
		},
		Title:  func(a AdmissionMethod) string { return a.Name },
		Date:   func(a AdmissionMethod) time.Time { return a.CreatedAt },
		Number: func(a AdmissionMethod) float64 { return a.MinScore },
	},
	DefaultSort: listview.SortNewest,
	References:  true,
}

type AdmissionMethodInput struct {
	UniversityID  string  `json:"university_id" validate:"required"`
	Name          string  `json:"name" validate:"required,notblank,max=255"`
	Description   string  `json:"description"`
	AdmissionYear int     `json:"admission_year" validate:"required,admission_year"`
	MinScore      float64 `json:"min_score" validate:"gte=0,lte=40"`
}

func (in *AdmissionMethodInput) Clean() {
	in.UniversityID = core.CleanString(in.UniversityID)
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
}

func (in *AdmissionMethodInput) Apply(a AdmissionMethod) AdmissionMethod {
	a.UniversityID = in.UniversityID
	a.Name = in.Name
	a.Description = in.Description
	a.AdmissionYear = in.AdmissionYear
	a.MinScore = in.MinScore
	return a
}
