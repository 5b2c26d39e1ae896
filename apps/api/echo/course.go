package echoapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core/course"
	"github.com/raphco/materia/core/user"
)

type courseApi struct {
	svc      course.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc course.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	cg := g.Group("/courses", jwt)

	// mutations are teacher-only, simulation excluded; everything below
	// create additionally requires owning the course
	tg := cg.Group("", teacherMiddleware())

	// read endpoints answer for every authenticated viewer; what they see is
	// shaped by the claims' effective Viewer. Registered after the subgroup:
	// echo's Group("") adds catch-all routes that would otherwise overwrite
	// the GET list route on the same path.
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	tg.POST("", api.create)

	owner := api.ownerMiddleware()
	tg.PUT("/:id", api.update, owner)
	tg.DELETE("/:id", api.destroy, owner)
	tg.PATCH("/:id/progress", api.setProgress, owner)

	tg.POST("/:id/modules", api.addModule, owner)
	tg.PUT("/:id/modules/:moduleID", api.updateModule, owner)
	tg.DELETE("/:id/modules/:moduleID", api.removeModule, owner)

	tg.POST("/:id/modules/:moduleID/categories", api.addCategory, owner)
	tg.PUT("/:id/modules/:moduleID/categories/:categoryID", api.updateCategory, owner)
	tg.DELETE("/:id/modules/:moduleID/categories/:categoryID", api.removeCategory, owner)

	tg.POST("/:id/categories/:categoryID/materials", api.addMaterial, owner)
	tg.PUT("/:id/categories/:categoryID/materials/:materialID", api.updateMaterial, owner)
	tg.DELETE("/:id/categories/:categoryID/materials/:materialID", api.removeMaterial, owner)
}

// ownerMiddleware restricts a mutation to the teacher who owns the course.
func (api *courseApi) ownerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if c.OwnerID != claims.Subject {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var courses []course.Course
	// teachers can scope the list to their own courses for the dashboard
	if mine, _ := strconv.ParseBool(ctx.QueryParam("mine")); mine && claims.IsTeacher && !claims.Simulating() {
		courses, err = api.svc.QueryByOwner(ctx.Request().Context(), claims.Subject)
	} else {
		courses, err = api.svc.QueryVisible(ctx.Request().Context(), claims.Viewer())
	}
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.svc.GetForViewer(ctx.Request().Context(), ctx.Param("id"), claims.Viewer())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.CourseFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	owner, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.Create(ctx.Request().Context(), owner, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.CourseFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) setProgress(ctx echo.Context) error {
	var data ProgressRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressRequest")
	}

	c, err := api.svc.SetProgress(ctx.Request().Context(), ctx.Param("id"), data.Progress)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

// Modules

func (api *courseApi) addModule(ctx echo.Context) error {
	var data course.ModuleFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModuleFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.AddModule(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) updateModule(ctx echo.Context) error {
	var data course.ModuleFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModuleFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateModule(ctx.Request().Context(), ctx.Param("id"), ctx.Param("moduleID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) removeModule(ctx echo.Context) error {
	c, err := api.svc.RemoveModule(ctx.Request().Context(), ctx.Param("id"), ctx.Param("moduleID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

// Categories

func (api *courseApi) addCategory(ctx echo.Context) error {
	var data course.CategoryFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CategoryFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.AddCategory(ctx.Request().Context(), ctx.Param("id"), ctx.Param("moduleID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) updateCategory(ctx echo.Context) error {
	var data course.CategoryFields
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CategoryFields")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateCategory(ctx.Request().Context(), ctx.Param("id"), ctx.Param("moduleID"), ctx.Param("categoryID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) removeCategory(ctx echo.Context) error {
	c, err := api.svc.RemoveCategory(ctx.Request().Context(), ctx.Param("id"), ctx.Param("moduleID"), ctx.Param("categoryID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

// Materials

func (api *courseApi) addMaterial(ctx echo.Context) error {
	data, err := api.bindMaterialFields(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.AddMaterial(ctx.Request().Context(), ctx.Param("id"), ctx.Param("categoryID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) updateMaterial(ctx echo.Context) error {
	data, err := api.bindMaterialFields(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.UpdateMaterial(ctx.Request().Context(), ctx.Param("id"), ctx.Param("categoryID"), ctx.Param("materialID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) removeMaterial(ctx echo.Context) error {
	c, err := api.svc.RemoveMaterial(ctx.Request().Context(), ctx.Param("id"), ctx.Param("categoryID"), ctx.Param("materialID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

// bindMaterialFields accepts either a JSON body (link materials, or file
// materials keeping their stored blob) or a multipart form whose "file" part
// carries new content.
func (api *courseApi) bindMaterialFields(ctx echo.Context) (course.MaterialFields, error) {
	var data course.MaterialFields

	contentType := ctx.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		data.Title = ctx.FormValue("title")
		data.Kind = ctx.FormValue("kind")
		data.Locator = ctx.FormValue("locator")

		data.AudienceTag = bindFormAudienceTag(ctx)

		if fh, err := ctx.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return data, errors.Wrap(err, "opening uploaded file")
			}
			defer f.Close()
			content, err := io.ReadAll(f)
			if err != nil {
				return data, errors.Wrap(err, "reading uploaded file")
			}
			data.Data = content
			data.FileName = fh.Filename
			data.MediaType = fh.Header.Get(echo.HeaderContentType)
		}
	} else if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to MaterialFields")
	}

	if err := data.Validate(api.validate); err != nil {
		return data, err
	}
	return data, nil
}

// bindFormAudienceTag reads the comma-separated "classrooms" and "years"
// form fields accompanying a multipart upload.
func bindFormAudienceTag(ctx echo.Context) course.AudienceTag {
	var tag course.AudienceTag
	if rooms := ctx.FormValue("classrooms"); rooms != "" {
		for _, room := range strings.Split(rooms, ",") {
			if room = strings.ToUpper(strings.TrimSpace(room)); room != "" {
				tag.Classrooms = append(tag.Classrooms, room)
			}
		}
	}
	if years := ctx.FormValue("years"); years != "" {
		for _, y := range strings.Split(years, ",") {
			if year, err := strconv.Atoi(strings.TrimSpace(y)); err == nil {
				tag.Years = append(tag.Years, year)
			}
		}
	}
	return tag
}

type ProgressRequest struct {
	Progress int `json:"progress"`
}
