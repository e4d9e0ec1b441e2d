package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/homework"
)

type homeworkApi struct {
	deps     ServerDeps
	svc      *homework.Service
	validate *validator.Validate
}

func registerHomeworkAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := homeworkApi{
		deps:     deps,
		svc:      deps.HomeworkSvc,
		validate: deps.Validate,
	}

	// homework of a lesson
	g.GET("/lessons/:id/homework", api.query, jwt, org)
	g.POST("/lessons/:id/homework", api.create, jwt, org)

	hg := g.Group("/homework", jwt, org)
	hg.GET("/:id", api.retrieve)
	hg.PUT("/:id", api.update)
	hg.PUT("/:id/attachment", api.setAttachment)
	hg.GET("/:id/submissions", api.querySubmissions)
	hg.POST("/:id/submissions", api.submit)

	sg := g.Group("/submissions", jwt, org)
	sg.GET("/:id", api.retrieveSubmission)
	sg.PUT("/:id/grade", api.grade)
}

func (api *homeworkApi) render(h homework.Homework) (map[string]interface{}, error) {
	return withFileURL(api.deps.Files, h, "attachment_url", h.Attachment)
}

func (api *homeworkApi) renderSubmission(s homework.Submission) (map[string]interface{}, error) {
	return withFileURL(api.deps.Files, s, "submitted_file_url", s.SubmittedFile)
}

func (api *homeworkApi) query(ctx echo.Context) error {
	hws, err := api.svc.Query(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying homework")
	}

	res := make([]map[string]interface{}, 0, len(hws))
	for _, h := range hws {
		obj, err := api.render(h)
		if err != nil {
			return err
		}
		res = append(res, obj)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *homeworkApi) create(ctx echo.Context) error {
	var data homework.NewHomework
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHomework")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	h, err := api.svc.Create(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating homework")
	}
	res, err := api.render(h)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *homeworkApi) retrieve(ctx echo.Context) error {
	h, err := api.svc.Get(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding homework")
	}
	res, err := api.render(h)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *homeworkApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	h, err := api.svc.Get(c, contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding homework")
	}

	var data homework.UpdateHomework
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHomework")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if h, err = api.svc.Update(c, h, data); err != nil {
		return errors.Wrap(err, "updating homework")
	}
	res, err := api.render(h)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *homeworkApi) setAttachment(ctx echo.Context) error {
	var h homework.Homework
	err := replaceFile(ctx, api.deps, core.FileHomeworkAttachment, func(key string) (old string, err error) {
		h, old, err = api.svc.SetAttachment(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), key)
		return old, err
	})
	if err != nil {
		return errors.Wrap(err, "setting homework attachment")
	}
	res, err := api.render(h)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// Submissions

func (api *homeworkApi) querySubmissions(ctx echo.Context) error {
	subs, err := api.svc.QuerySubmissions(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}

	res := make([]map[string]interface{}, 0, len(subs))
	for _, s := range subs {
		obj, err := api.renderSubmission(s)
		if err != nil {
			return err
		}
		res = append(res, obj)
	}
	return ctx.JSON(http.StatusOK, res)
}

// submit accepts JSON, or a multipart form carrying the work as `file`.
func (api *homeworkApi) submit(ctx echo.Context) error {
	var data homework.SubmitWork
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		data.StudentID = ctx.FormValue("student_id")
		data.Text = ctx.FormValue("submitted_text")
	} else if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitWork")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	key, err := saveUpload(ctx, api.deps.Files, core.FileSubmission)
	if err != nil {
		return err
	}
	data.File = key

	s, err := api.svc.Submit(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data)
	if err != nil {
		if key != "" {
			removeFile(ctx, api.deps, key)
		}
		return errors.Wrap(err, "submitting homework")
	}
	res, err := api.renderSubmission(s)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *homeworkApi) retrieveSubmission(ctx echo.Context) error {
	s, err := api.svc.GetSubmission(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission")
	}
	res, err := api.renderSubmission(s)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *homeworkApi) grade(ctx echo.Context) error {
	var data homework.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Grade(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	res, err := api.renderSubmission(s)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
