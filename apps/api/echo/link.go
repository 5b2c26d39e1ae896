package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/link"
)

type sidebarLinkApi struct {
	svc      link.Service
	validate *validator.Validate
}

func registerSidebarLinkAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc link.Service, validate *validator.Validate) {
	api := sidebarLinkApi{svc: svc, validate: validate}

	lg := g.Group("/sidebar-links", jwt)

	tg := lg.Group("", teacherMiddleware())
	// registered after the subgroup: echo's Group("") adds catch-all routes
	// that would otherwise overwrite the GET list route on the same path
	lg.GET("", api.query)
	tg.POST("", api.create)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
}

func (api *sidebarLinkApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	links, err := api.svc.QueryVisible(ctx.Request().Context(), claims.Viewer())
	if err != nil {
		return errors.Wrap(err, "querying sidebar links")
	}
	if links == nil {
		links = []link.SidebarLink{}
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *sidebarLinkApi) create(ctx echo.Context) error {
	var data link.SidebarLinkFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SidebarLinkFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *sidebarLinkApi) update(ctx echo.Context) error {
	var data link.SidebarLinkFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SidebarLinkFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *sidebarLinkApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
