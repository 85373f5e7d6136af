package catalog

import (
	"time"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
)

// Program kinds
const (
	ProgramStandard      = "standard"
	ProgramHighQuality   = "high_quality"
	ProgramAdvanced      = "advanced"
	ProgramInternational = "international"
)

type Program struct {
	Meta
	UniversityID  string  `json:"university_id" db:"university_id"`
	MajorID       string  `json:"major_id" db:"major_id"`
	Name          string  `json:"name" db:"name"`
	Kind          string  `json:"kind" db:"kind"`
	DurationYears float64 `json:"duration_years" db:"duration_years"`
	TuitionFee    int64   `json:"tuition_fee" db:"tuition_fee"` // VND per year
	AdmissionYear int     `json:"admission_year" db:"admission_year"`
}

func (p Program) WithMeta(meta Meta) Program { p.Meta = meta; return p }
func (p Program) UniversityRef() string       { return p.UniversityID }

var ProgramKind = Kind[Program]{
	Name:     "programs",
	Singular: "program",
	Fields: listview.Fields[Program]{
		Text: []func(Program) string{
			func(p Program) string { return p.Name },
			func(p Program) string { return p.Kind },
		},
		Title:  func(p Program) string { return p.Name },
		Date:   func(p Program) time.Time { return p.CreatedAt },
		Number: func(p Program) float64 { return float64(p.TuitionFee) },
	},
	DefaultSort: listview.SortNewest,
	References:  true,
}

type ProgramInput struct {
	UniversityID  string  `json:"university_id" validate:"required"`
	MajorID       string  `json:"major_id"`
	Name          string  `json:"name" validate:"required,notblank,max=255"`
	Kind          string  `json:"kind" validate:"required,oneof=standard high_quality advanced international"`
	DurationYears float64 `json:"duration_years" validate:"gt=0,lte=10"`
	TuitionFee    int64   `json:"tuition_fee" validate:"gte=0"`
	AdmissionYear int     `json:"admission_year" validate:"required,admission_year"`
}

func (in *ProgramInput) Clean() {
	in.UniversityID = core.CleanString(in.UniversityID)
	in.MajorID = core.CleanString(in.MajorID)
	in.Name = core.CleanString(in.Name)
	in.Kind = core.CleanString(in.Kind, true /* lower */)
	if in.Kind == "" {
		in.Kind = ProgramStandard
	}
}

func (in *ProgramInput) Apply(p Program) Program {
	p.UniversityID = in.UniversityID
	p.MajorID = in.MajorID
	p.Name = in.Name
	p.Kind = in.Kind
	p.DurationYears = in.DurationYears
	p.TuitionFee = in.TuitionFee
	p.AdmissionYear = in.AdmissionYear
	return p
}
