package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core/lesson"
)

type lessonApi struct {
	svc      *lesson.Service
	validate *validator.Validate
}

func registerLessonAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := lessonApi{
		svc:      deps.LessonSvc,
		validate: deps.Validate,
	}

	// lesson plan of a group
	g.GET("/groups/:id/lessons", api.plan, jwt, org)
	g.POST("/groups/:id/lessons", api.create, jwt, org)

	lg := g.Group("/lessons", jwt, org)
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update)
	lg.GET("/:id/attendance", api.attendance)
	lg.POST("/:id/attendance", api.markAttendance)
}

func (api *lessonApi) plan(ctx echo.Context) error {
	lessons, err := api.svc.Plan(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying lesson plan")
	}
	if lessons == nil {
		lessons = []lesson.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.Create(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	l, err := api.svc.Get(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	l, err := api.svc.Get(c, contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding lesson")
	}

	var data lesson.UpdateLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if l, err = api.svc.Update(c, l, data); err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) attendance(ctx echo.Context) error {
	as, err := api.svc.Attendance(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if as == nil {
		as = []lesson.Attendance{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *lessonApi) markAttendance(ctx echo.Context) error {
	var data lesson.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.MarkAttendance(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, a)
}
