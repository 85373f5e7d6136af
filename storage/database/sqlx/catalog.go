// Package sqlxrepos implements the repositories on postgres with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
)

// tableSpec lists the columns of a catalog table, `id` first.
type tableSpec struct {
	name    string
	owner   string // column holding the owning university
	columns []string
	selectQ string
	insertQ string
	updateQ string
	orderBy string
}

func newTableSpec(name, owner string, columns ...string) tableSpec {
	columns = append([]string{"id"}, append(columns, "created_at", "updated_at")...)

	placeholders := make([]string, len(columns))
	sets := make([]string, 0, len(columns))
	for i, col := range columns {
		placeholders[i] = ":" + col
		if col != "id" && col != "created_at" {
			sets = append(sets, col+" = :"+col)
		}
	}

	return tableSpec{
		name:    name,
		owner:   owner,
		columns: columns,
		selectQ: fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), name),
		insertQ: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, strings.Join(columns, ", "), strings.Join(placeholders, ", ")),
		updateQ: fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", name, strings.Join(sets, ", ")),
		orderBy: " ORDER BY created_at, id",
	}
}

var (
	universityTable = newTableSpec("universities", "id",
		"code", "name", "short_name", "address", "website", "description", "established_year")
	majorTable = newTableSpec("majors", "university_id",
		"university_id", "code", "name", "description", "quota", "admission_year")
	programTable = newTableSpec("programs", "university_id",
		"university_id", "major_id", "name", "kind", "duration_years", "tuition_fee", "admission_year")
	scholarshipTable = newTableSpec("scholarships", "university_id",
		"university_id", "name", "description", "amount", "admission_year", "deadline")
	admissionMethodTable = newTableSpec("admission_methods", "university_id",
		"university_id", "name", "description", "admission_year", "min_score")
	newsTable = newTableSpec("news", "university_id",
		"university_id", "title", "content", "author", "published_at")
)

type catalogRepository[E catalog.Entity[E]] struct {
	db    core.DBExecutor
	table tableSpec
}

func newCatalogRepository[E catalog.Entity[E]](db core.DBExecutor, table tableSpec) catalog.Repository[E] {
	return &catalogRepository[E]{db: db, table: table}
}

func NewUniversityRepository(db core.DBExecutor) catalog.Repository[catalog.University] {
	return newCatalogRepository[catalog.University](db, universityTable)
}

func NewMajorRepository(db core.DBExecutor) catalog.Repository[catalog.Major] {
	return newCatalogRepository[catalog.Major](db, majorTable)
}

func NewProgramRepository(db core.DBExecutor) catalog.Repository[catalog.Program] {
	return newCatalogRepository[catalog.Program](db, programTable)
}

func NewScholarshipRepository(db core.DBExecutor) catalog.Repository[catalog.Scholarship] {
	return newCatalogRepository[catalog.Scholarship](db, scholarshipTable)
}

func NewAdmissionMethodRepository(db core.DBExecutor) catalog.Repository[catalog.AdmissionMethod] {
	return newCatalogRepository[catalog.AdmissionMethod](db, admissionMethodTable)
}

func NewNewsRepository(db core.DBExecutor) catalog.Repository[catalog.News] {
	return newCatalogRepository[catalog.News](db, newsTable)
}

func (repo *catalogRepository[E]) Query(ctx context.Context, filter catalog.Filter) ([]E, error) {
	q := repo.table.selectQ
	var args []interface{}
	if filter.UniversityID != "" {
		q += fmt.Sprintf(" WHERE %s::text = $1", repo.table.owner)
		args = append(args, filter.UniversityID)
	}
	q += repo.table.orderBy

	items := make([]E, 0)
	if err := repo.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, errors.Wrapf(err, "selecting %s", repo.table.name)
	}
	return items, nil
}

func (repo *catalogRepository[E]) Get(ctx context.Context, id string) (E, error) {
	var e E
	err := repo.db.GetContext(ctx, &e, repo.table.selectQ+" WHERE id::text = $1", id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return e, core.ErrNotFound
		}
		return e, errors.Wrapf(err, "selecting from %s", repo.table.name)
	}
	return e, nil
}

func (repo *catalogRepository[E]) Create(ctx context.Context, e E) (E, error) {
	if _, err := repo.db.NamedExecContext(ctx, repo.table.insertQ, e); err != nil {
		var zero E
		if isUniqueViolation(err) {
			err = core.ErrDuplicate
		}
		return zero, errors.Wrapf(err, "inserting into %s", repo.table.name)
	}
	return e, nil
}

func (repo *catalogRepository[E]) Update(ctx context.Context, e E) (E, error) {
	res, err := repo.db.NamedExecContext(ctx, repo.table.updateQ, e)
	if err != nil {
		var zero E
		if isUniqueViolation(err) {
			err = core.ErrDuplicate
		}
		return zero, errors.Wrapf(err, "updating %s", repo.table.name)
	}
	if err := checkAffected(res); err != nil {
		var zero E
		return zero, err
	}
	return e, nil
}

func (repo *catalogRepository[E]) Delete(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id::text = $1", repo.table.name), id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", repo.table.name)
	}
	return checkAffected(res)
}

// uniqueViolationCode is the postgres SQLSTATE of unique_violation.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
