package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
	"github.com/trezcool/admissions/core/user"
)

var errUniversityNotFound = errors.New("university not found")

// Service manages the records of one entity kind.
// Reads are public; writes require an actor allowed to manage the owning university.
type Service[E Entity[E]] struct {
	kind         Kind[E]
	repo         Repository[E]
	universities Repository[University]
	validate     *validator.Validate
}

func NewService[E Entity[E]](
	kind Kind[E],
	repo Repository[E],
	universities Repository[University],
	validate *validator.Validate,
) *Service[E] {
	return &Service[E]{
		kind:         kind,
		repo:         repo,
		universities: universities,
		validate:     validate,
	}
}

func (svc *Service[E]) Kind() Kind[E] { return svc.kind }

// List runs the records matching filter through the list view pipeline.
// Sort keys the kind cannot serve fall back to its default sort.
func (svc *Service[E]) List(
	ctx context.Context,
	filter Filter,
	query listview.QueryState,
	pageSize int,
) (listview.PageWindow[E], error) {
	items, err := svc.repo.Query(ctx, filter)
	if err != nil {
		return listview.PageWindow[E]{}, errors.Wrapf(err, "querying %s", svc.kind.Name)
	}
	if !svc.kind.Fields.Supports(query.SortKey) {
		query.SortKey = svc.kind.DefaultSort
	}
	return listview.Apply(items, svc.kind.Fields, query, pageSize), nil
}

func (svc *Service[E]) Get(ctx context.Context, id string) (E, error) {
	e, err := svc.repo.Get(ctx, id)
	if err != nil {
		return e, errors.Wrapf(err, "getting %s", svc.kind.Singular)
	}
	return e, nil
}

func (svc *Service[E]) Create(ctx context.Context, actor user.User, in Input[E]) (E, error) {
	var zero E

	in.Clean()
	if err := svc.validate.Struct(in); err != nil {
		return zero, err
	}

	e := in.Apply(zero)
	if !actor.CanManage(e.UniversityRef()) {
		return zero, svc.permissionError()
	}
	if err := svc.checkReferences(ctx, e); err != nil {
		return zero, err
	}
	if err := svc.checkCode(ctx, e); err != nil {
		return zero, err
	}

	now := time.Now().UTC()
	e = e.WithMeta(Meta{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now})
	created, err := svc.repo.Create(ctx, e)
	if err != nil {
		if core.IsDuplicate(err) {
			return zero, svc.codeExistsError()
		}
		return zero, errors.Wrapf(err, "creating %s", svc.kind.Singular)
	}
	return created, nil
}

func (svc *Service[E]) Update(ctx context.Context, actor user.User, id string, in Input[E]) (E, error) {
	var zero E

	orig, err := svc.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if !actor.CanManage(orig.UniversityRef()) {
		return zero, svc.permissionError()
	}

	in.Clean()
	if err := svc.validate.Struct(in); err != nil {
		return zero, err
	}

	e := in.Apply(orig)
	// staff cannot hand a record over to another university
	if !actor.CanManage(e.UniversityRef()) {
		return zero, svc.permissionError()
	}
	if err := svc.checkReferences(ctx, e); err != nil {
		return zero, err
	}
	if err := svc.checkCode(ctx, e); err != nil {
		return zero, err
	}

	meta := orig.Metadata()
	meta.UpdatedAt = time.Now().UTC()
	updated, err := svc.repo.Update(ctx, e.WithMeta(meta))
	if err != nil {
		if core.IsDuplicate(err) {
			return zero, svc.codeExistsError()
		}
		return zero, errors.Wrapf(err, "updating %s", svc.kind.Singular)
	}
	return updated, nil
}

func (svc *Service[E]) Delete(ctx context.Context, actor user.User, id string) error {
	orig, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(orig.UniversityRef()) {
		return svc.permissionError()
	}
	return errors.Wrapf(svc.repo.Delete(ctx, id), "deleting %s", svc.kind.Singular)
}

func (svc *Service[E]) checkReferences(ctx context.Context, e E) error {
	ref := e.UniversityRef()
	if !svc.kind.References || ref == "" {
		return nil
	}
	if _, err := svc.universities.Get(ctx, ref); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(errUniversityNotFound, core.FieldError{
				Field: "university_id",
				Error: errUniversityNotFound.Error(),
			})
		}
		return errors.Wrap(err, "getting university")
	}
	return nil
}

// checkCode fails when another record of the kind already uses e's code.
func (svc *Service[E]) checkCode(ctx context.Context, e E) error {
	if svc.kind.Code == nil {
		return nil
	}
	code := svc.kind.Code(e)
	all, err := svc.repo.Query(ctx, Filter{})
	if err != nil {
		return errors.Wrapf(err, "querying %s", svc.kind.Name)
	}
	for _, other := range all {
		if svc.kind.Code(other) == code && other.Metadata().ID != e.Metadata().ID {
			return svc.codeExistsError()
		}
	}
	return nil
}

func (svc *Service[E]) codeExistsError() error {
	msg := fmt.Sprintf("a %s with this code already exists", svc.kind.Singular)
	return core.NewValidationError(core.ErrDuplicate, core.FieldError{Field: "code", Error: msg})
}

func (svc *Service[E]) permissionError() error {
	return core.NewPermissionError(fmt.Sprintf("not allowed to manage this %s", svc.kind.Singular))
}
