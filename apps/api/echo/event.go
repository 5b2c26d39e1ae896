package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/event"
)

type calendarEventApi struct {
	svc      event.Service
	validate *validator.Validate
}

func registerCalendarEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc event.Service, validate *validator.Validate) {
	api := calendarEventApi{svc: svc, validate: validate}

	eg := g.Group("/calendar-events", jwt)

	tg := eg.Group("", teacherMiddleware())
	// registered after the subgroup: echo's Group("") adds catch-all routes
	// that would otherwise overwrite the GET list route on the same path
	eg.GET("", api.query)
	tg.POST("", api.create)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
}

func (api *calendarEventApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	events, err := api.svc.QueryVisible(ctx.Request().Context(), claims.Viewer())
	if err != nil {
		return errors.Wrap(err, "querying calendar events")
	}
	if events == nil {
		events = []event.CalendarEvent{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *calendarEventApi) create(ctx echo.Context) error {
	var data event.CalendarEventFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CalendarEventFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *calendarEventApi) update(ctx echo.Context) error {
	var data event.CalendarEventFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CalendarEventFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *calendarEventApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
