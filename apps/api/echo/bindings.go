package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/listview"
	"github.com/trezcool/admissions/core/user"
)

var (
	searchParam   = "search"
	sortParam     = "sort"
	pageParam     = "page"
	pageSizeParam = "page_size"
)

// ListQuery holds the list view parameters of a request.
// Malformed values fall back to their defaults; page & page size are clamped.
type ListQuery struct {
	State    listview.QueryState
	PageSize int
}

func (lq *ListQuery) Bind(ctx echo.Context, conf core.ServerConfig, defSort listview.SortKey) {
	lq.State = listview.NewQueryState(listview.ParseSortKey(ctx.QueryParam(sortParam), defSort)).
		WithSearchText(ctx.QueryParam(searchParam)).
		WithPage(core.AtoiOr(ctx.QueryParam(pageParam), 1))

	lq.PageSize = core.AtoiOr(ctx.QueryParam(pageSizeParam), conf.DefaultPageSize)
	if lq.PageSize < 1 {
		lq.PageSize = conf.DefaultPageSize
	}
	if conf.MaxPageSize > 0 && lq.PageSize > conf.MaxPageSize {
		lq.PageSize = conf.MaxPageSize
	}
}

var errInvalidDateRange = errors.New("created_from must be before created_to")

// bindUserFilter reads a user.QueryFilter from the query string:
// `role` (repeatable), `is_active`, `created_from` & `created_to` (RFC 3339), `university_id`.
func bindUserFilter(ctx echo.Context) (user.QueryFilter, error) {
	var filter user.QueryFilter
	params := ctx.QueryParams()

	filter.Roles = params["role"]
	filter.UniversityID = params.Get("university_id")

	if v := strings.TrimSpace(params.Get("is_active")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return filter, core.NewValidationError(err, core.FieldError{Field: "is_active", Error: "must be a boolean"})
		}
		filter.IsActive = &active
	}

	parseTime := func(name string, dst *time.Time) error {
		v := strings.TrimSpace(params.Get(name))
		if v == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: name, Error: "must be an RFC 3339 date-time"})
		}
		*dst = t.UTC()
		return nil
	}
	if err := parseTime("created_from", &filter.CreatedFrom); err != nil {
		return filter, err
	}
	if err := parseTime("created_to", &filter.CreatedTo); err != nil {
		return filter, err
	}
	if !filter.CreatedFrom.IsZero() && !filter.CreatedTo.IsZero() && filter.CreatedTo.Before(filter.CreatedFrom) {
		return filter, core.NewValidationError(errInvalidDateRange, core.FieldError{
			Field: "created_to",
			Error: errInvalidDateRange.Error(),
		})
	}

	filter.Clean()
	return filter, nil
}
