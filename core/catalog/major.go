package catalog

import (
	"time"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
)

type Major struct {
	Meta
	UniversityID  string `json:"university_id" db:"university_id"`
	Code          string `json:"code" db:"code"`
	Name          string `json:"name" db:"name"`
	Description   string `json:"description" db:"description"`
	Quota         int    `json:"quota" db:"quota"`
	AdmissionYear int    `json:"admission_year" db:"admission_year"`
}

func (m Major) WithMeta(meta Meta) Major { m.Meta = meta; return m }
func (m Major) UniversityRef() string     { return m.UniversityID }

var MajorKind = Kind[Major]{
	Name:     "majors",
	Singular: "major",
	Fields: listview.Fields[Major]{
		Text: []func(Major) string{
			func(m Major) string { return m.Name },
			func(m Major) string { return m.Code },
			func(m Major) string { return m.Description },
		},
		Title:  func(m Major) string { return m.Name },
		Date:   func(m Major) time.Time { return m.CreatedAt },
		Number: func(m Major) float64 { return float64(m.Quota) },
	},
	DefaultSort: listview.SortNewest,
	References:  true,
}

type MajorInput struct {
	UniversityID  string `json:"university_id" validate:"required"`
	Code          string `json:"code" validate:"required,max=20"`
	Name          string `json:"name" validate:"required,notblank,max=255"`
	Description   string `json:"description"`
	Quota         int    `json:"quota" validate:"gte=0"`
	AdmissionYear int    `json:"admission_year" validate:"required,admission_year"`
}

func (in *MajorInput) Clean() {
	in.UniversityID = core.CleanString(in.UniversityID)
	in.Code = core.CleanString(in.Code)
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
}

func (in *MajorInput) Apply(m Major) Major {
	m.UniversityID = in.UniversityID
	m.Code = in.Code
	m.Name = in.Name
	m.Description = in.Description
	m.Quota = in.Quota
	m.AdmissionYear = in.AdmissionYear
	return m
}
