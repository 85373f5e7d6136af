package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/user"
)

// catalogApi serves one catalog entity kind. I is the kind's input payload type.
type catalogApi[E catalog.Entity[E], I any, PI interface {
	*I
	catalog.Input[E]
}] struct {
	svc     *catalog.Service[E]
	userSvc user.Service
	auth    *jwtAuth
	conf    *core.Config
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	cs := deps.Catalog
	registerCatalogKind[catalog.University, catalog.UniversityInput](g, jwt, auth, deps, cs.Universities)
	registerCatalogKind[catalog.Major, catalog.MajorInput](g, jwt, auth, deps, cs.Majors)
	registerCatalogKind[catalog.Program, catalog.ProgramInput](g, jwt, auth, deps, cs.Programs)
	registerCatalogKind[catalog.Scholarship, catalog.ScholarshipInput](g, jwt, auth, deps, cs.Scholarships)
	registerCatalogKind[catalog.AdmissionMethod, catalog.AdmissionMethodInput](g, jwt, auth, deps, cs.AdmissionMethods)
	registerCatalogKind[catalog.News, catalog.NewsInput](g, jwt, auth, deps, cs.News)
}

func registerCatalogKind[E catalog.Entity[E], I any, PI interface {
	*I
	catalog.Input[E]
}](
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *jwtAuth,
	deps ServerDeps,
	svc *catalog.Service[E],
) {
	api := catalogApi[E, I, PI]{
		svc:     svc,
		userSvc: deps.UserSvc,
		auth:    auth,
		conf:    deps.Conf,
	}
	kind := svc.Kind()
	route := catalogRoute(kind.Name)

	kg := g.Group("/" + route)

	// public endpoints
	kg.GET("", api.list)
	kg.GET("/:id", api.retrieve)

	// authed endpoints: middlewares are set per route, a middleware group on the same
	// prefix would catch the public list route
	staffOrAdmin := staffOrAdminMiddleware(auth)
	kg.POST("", api.create, jwt, staffOrAdmin)
	kg.PUT("/:id", api.update, jwt, staffOrAdmin)
	kg.DELETE("/:id", api.destroy, jwt, staffOrAdmin)

	// per-university lists
	if kind.References {
		g.GET("/universities/:id/"+route, api.listByUniversity)
	}
}

// catalogRoute maps a kind name to its URL segment, e.g. "admission_methods" -> "admission-methods".
func catalogRoute(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// Handlers

func (api *catalogApi[E, I, PI]) list(ctx echo.Context) error {
	filter := catalog.Filter{UniversityID: core.CleanString(ctx.QueryParam("university_id"))}
	return api.respondList(ctx, filter)
}

func (api *catalogApi[E, I, PI]) listByUniversity(ctx echo.Context) error {
	return api.respondList(ctx, catalog.Filter{UniversityID: ctx.Param("id")})
}

func (api *catalogApi[E, I, PI]) respondList(ctx echo.Context, filter catalog.Filter) error {
	var lq ListQuery
	lq.Bind(ctx, api.conf.Server, api.svc.Kind().DefaultSort)

	win, err := api.svc.List(ctx.Request().Context(), filter, lq.State, lq.PageSize)
	if err != nil {
		return errors.Wrapf(err, "listing %s", api.svc.Kind().Name)
	}
	return ctx.JSON(http.StatusOK, win)
}

func (api *catalogApi[E, I, PI]) retrieve(ctx echo.Context) error {
	e, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *catalogApi[E, I, PI]) create(ctx echo.Context) error {
	in := PI(new(I))
	if err := ctx.Bind(in); err != nil {
		return errors.Wrapf(err, "binding to %s input", api.svc.Kind().Singular)
	}

	actor, err := api.auth.contextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.Create(ctx.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *catalogApi[E, I, PI]) update(ctx echo.Context) error {
	in := PI(new(I))
	if err := ctx.Bind(in); err != nil {
		return errors.Wrapf(err, "binding to %s input", api.svc.Kind().Singular)
	}

	actor, err := api.auth.contextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), in)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *catalogApi[E, I, PI]) destroy(ctx echo.Context) error {
	actor, err := api.auth.contextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
