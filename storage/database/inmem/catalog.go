package inmemdb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
)

type catalogRepository[E catalog.Entity[E]] struct {
	db       *table[E]
	code     func(E) string  // unique column, if any
	onDelete func(id string) // called with the write lock held
}

func newCatalogRepository[E catalog.Entity[E]](t *table[E]) catalog.Repository[E] {
	return &catalogRepository[E]{db: t}
}

// NewUniversityRepository keeps university codes unique; deleting a university deletes the
// records it owns and detaches its staff, as the postgres schema does.
func NewUniversityRepository(db *DB) catalog.Repository[catalog.University] {
	return &catalogRepository[catalog.University]{
		db:       db.university,
		code:     catalog.UniversityKind.Code,
		onDelete: db.deleteUniversityRefs,
	}
}

func NewMajorRepository(db *DB) catalog.Repository[catalog.Major] {
	return newCatalogRepository(db.major)
}

func NewProgramRepository(db *DB) catalog.Repository[catalog.Program] {
	return newCatalogRepository(db.program)
}

func NewScholarshipRepository(db *DB) catalog.Repository[catalog.Scholarship] {
	return newCatalogRepository(db.scholarship)
}

func NewAdmissionMethodRepository(db *DB) catalog.Repository[catalog.AdmissionMethod] {
	return newCatalogRepository(db.admissionMethod)
}

func NewNewsRepository(db *DB) catalog.Repository[catalog.News] {
	return newCatalogRepository(db.news)
}

func (repo *catalogRepository[E]) Query(_ context.Context, filter catalog.Filter) ([]E, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return lo.Filter(repo.db.all(), func(e E, _ int) bool {
		return filter.Match(e.UniversityRef())
	}), nil
}

func (repo *catalogRepository[E]) Get(_ context.Context, id string) (E, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.rows[id]; ok {
		return e, nil
	}
	var zero E
	return zero, core.ErrNotFound
}

func (repo *catalogRepository[E]) Create(_ context.Context, e E) (E, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	id := e.Metadata().ID
	if _, ok := repo.db.rows[id]; ok || id == "" {
		var zero E
		return zero, errors.Errorf("invalid primary key %q", id)
	}
	if repo.codeTaken(e) {
		var zero E
		return zero, core.ErrDuplicate
	}
	repo.db.put(id, e)
	return e, nil
}

func (repo *catalogRepository[E]) Update(_ context.Context, e E) (E, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	id := e.Metadata().ID
	if _, ok := repo.db.rows[id]; !ok {
		var zero E
		return zero, core.ErrNotFound
	}
	if repo.codeTaken(e) {
		var zero E
		return zero, core.ErrDuplicate
	}
	repo.db.put(id, e)
	return e, nil
}

func (repo *catalogRepository[E]) Delete(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if !repo.db.remove(id) {
		return core.ErrNotFound
	}
	if repo.onDelete != nil {
		repo.onDelete(id)
	}
	return nil
}

// codeTaken must be called with a lock held.
func (repo *catalogRepository[E]) codeTaken(e E) bool {
	if repo.code == nil {
		return false
	}
	code, id := repo.code(e), e.Metadata().ID
	for rowID, row := range repo.db.rows {
		if rowID != id && repo.code(row) == code {
			return true
		}
	}
	return false
}
