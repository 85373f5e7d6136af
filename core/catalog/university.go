package catalog

import (
	"time"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
)

type University struct {
	Meta
	Code            string `json:"code" db:"code"`
	Name            string `json:"name" db:"name"`
	ShortName       string `json:"short_name" db:"short_name"`
	Address         string `json:"address" db:"address"`
	Website         string `json:"website" db:"website"`
	Description     string `json:"description" db:"description"`
	EstablishedYear int    `json:"established_year" db:"established_year"`
}

func (u University) WithMeta(m Meta) University { u.Meta = m; return u }

// UniversityRef is the university itself: its staff may edit its profile.
func (u University) UniversityRef() string { return u.ID }

var UniversityKind = Kind[University]{
	Name:     "universities",
	Singular: "university",
	Fields: listview.Fields[University]{
		Text: []func(University) string{
			func(u University) string { return u.Name },
			func(u University) string { return u.ShortName },
			func(u University) string { return u.Code },
			func(u University) string { return u.Address },
		},
		Title:  func(u University) string { return u.Name },
		Date:   func(u University) time.Time { return u.CreatedAt },
		Number: func(u University) float64 { return float64(u.EstablishedYear) },
	},
	DefaultSort: listview.SortTitle,
	Code:        func(u University) string { return u.Code },
}

type UniversityInput struct {
	Code            string `json:"code" validate:"required,max=20,alphanum_"`
	Name            string `json:"name" validate:"required,notblank,max=255"`
	ShortName       string `json:"short_name" validate:"max=50"`
	Address         string `json:"address" validate:"max=500"`
	Website         string `json:"website" validate:"omitempty,url"`
	Description     string `json:"description"`
	EstablishedYear int    `json:"established_year" validate:"omitempty,gte=1800"`
}

func (in *UniversityInput) Clean() {
	in.Code = core.CleanString(in.Code, true /* lower */)
	in.Name = core.CleanString(in.Name)
	in.ShortName = core.CleanString(in.ShortName)
	in.Address = core.CleanString(in.Address)
	in.Website = core.CleanString(in.Website)
	in.Description = core.CleanString(in.Description)
}

func (in *UniversityInput) Apply(u University) University {
	u.Code = in.Code
	u.Name = in.Name
	u.ShortName = in.ShortName
	u.Address = in.Address
	u.Website = in.Website
	u.Description = in.Description
	u.EstablishedYear = in.EstablishedYear
	return u
}
