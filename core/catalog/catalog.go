// Package catalog holds the admissions information published by the portal: universities and
// their majors, programs, scholarships, admission methods & news.
//
// Every entity kind shares one generic Service over a generic Repository; what differs per kind
// (table, list fields, input validation) is declared once in its Kind.
package catalog

import (
	"context"
	"time"

	"github.com/trezcool/admissions/core/listview"
)

type (
	// Meta is the bookkeeping shared by every catalog record.
	Meta struct {
		ID        string    `json:"id" db:"id"`
		CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
	}

	// Entity is implemented by every catalog record type.
	Entity[E any] interface {
		Metadata() Meta
		WithMeta(Meta) E
		// UniversityRef is the university owning the record ("" when it has none).
		UniversityRef() string
	}

	// Input is a create/update payload for E. Inputs replace every editable field.
	Input[E any] interface {
		Clean()
		Apply(E) E
	}

	// Kind describes one entity kind.
	Kind[E Entity[E]] struct {
		Name     string // plural, used for tables & routes, e.g. "admission_methods"
		Singular string
		Fields   listview.Fields[E]
		// DefaultSort is used when a list request has no (or an unknown) sort key.
		DefaultSort listview.SortKey
		// References tells whether UniversityRef points to a university that must exist.
		References bool
		// Code, when set, returns a code that must be unique within the kind.
		Code func(E) string
	}

	// Filter narrows the records fed to a list view.
	Filter struct {
		UniversityID string `query:"university_id"`
	}

	Repository[E Entity[E]] interface {
		Query(ctx context.Context, filter Filter) ([]E, error)
		Get(ctx context.Context, id string) (E, error)
		Create(ctx context.Context, e E) (E, error)
		Update(ctx context.Context, e E) (E, error)
		Delete(ctx context.Context, id string) error
	}
)

func (m Meta) Metadata() Meta { return m }

// Match reports whether e passes the filter.
func (f Filter) Match(universityRef string) bool {
	return f.UniversityID == "" || f.UniversityID == universityRef
}

// Kinds lists the names of every entity kind, in menu order.
var Kinds = []string{
	UniversityKind.Name,
	MajorKind.Name,
	ProgramKind.Name,
	ScholarshipKind.Name,
	AdmissionMethodKind.Name,
	NewsKind.Name,
}
