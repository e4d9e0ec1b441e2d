package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/staff"
)

type staffApi struct {
	deps     ServerDeps
	svc      *staff.Service
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := staffApi{
		deps:     deps,
		svc:      deps.StaffSvc,
		validate: deps.Validate,
	}

	spg := g.Group("/specialties", jwt, org, adminMiddleware())
	spg.GET("", api.querySpecialties)
	spg.POST("", api.createSpecialty)
	spg.GET("/:id", api.retrieveSpecialty)
	spg.PUT("/:id", api.updateSpecialty)
	spg.DELETE("/:id", api.destroySpecialty)

	sg := g.Group("/staff", jwt, org, adminMiddleware())
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.PUT("/:id/avatar", api.setAvatar)
}

// Specialties

func (api *staffApi) querySpecialties(ctx echo.Context) error {
	sps, err := api.svc.QuerySpecialties(ctx.Request().Context(), contextOrgID(ctx))
	if err != nil {
		return errors.Wrap(err, "querying specialties")
	}
	if sps == nil {
		sps = []staff.Specialty{}
	}
	return ctx.JSON(http.StatusOK, sps)
}

func (api *staffApi) createSpecialty(ctx echo.Context) error {
	var data staff.NewSpecialty
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSpecialty")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sp, err := api.svc.CreateSpecialty(ctx.Request().Context(), contextOrgID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating specialty")
	}
	return ctx.JSON(http.StatusCreated, sp)
}

func (api *staffApi) retrieveSpecialty(ctx echo.Context) error {
	sp, err := api.svc.GetSpecialty(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding specialty")
	}
	return ctx.JSON(http.StatusOK, sp)
}

func (api *staffApi) updateSpecialty(ctx echo.Context) error {
	c := ctx.Request().Context()
	sp, err := api.svc.GetSpecialty(c, contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding specialty")
	}

	var data staff.UpdateSpecialty
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSpecialty")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if sp, err = api.svc.UpdateSpecialty(c, sp, data); err != nil {
		return errors.Wrap(err, "updating specialty")
	}
	return ctx.JSON(http.StatusOK, sp)
}

func (api *staffApi) destroySpecialty(ctx echo.Context) error {
	if err := api.svc.DeleteSpecialty(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting specialty")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Staff members

func (api *staffApi) render(m staff.Member) (map[string]interface{}, error) {
	return withFileURL(api.deps.Files, m, "avatar_url", m.Avatar)
}

func (api *staffApi) query(ctx echo.Context) error {
	filter := new(staff.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []interface{}{})
	}
	filter.Clean()
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, staffOrderings); err != nil {
		return err
	}

	members, err := api.svc.QueryMembers(ctx.Request().Context(), contextOrgID(ctx), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying staff members")
	}

	res := make([]map[string]interface{}, 0, len(members))
	for _, m := range members {
		obj, err := api.render(m)
		if err != nil {
			return err
		}
		res = append(res, obj)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.CreateMember(ctx.Request().Context(), contextOrgID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating staff member")
	}
	res, err := api.render(m)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	m, err := api.svc.GetMember(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding staff member")
	}
	res, err := api.render(m)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *staffApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	m, err := api.svc.GetMember(c, contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding staff member")
	}

	var data staff.UpdateMember
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if m, err = api.svc.UpdateMember(c, m, data); err != nil {
		return errors.Wrap(err, "updating staff member")
	}
	res, err := api.render(m)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *staffApi) destroy(ctx echo.Context) error {
	if err := api.svc.Deactivate(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deactivating staff member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) setAvatar(ctx echo.Context) error {
	var m staff.Member
	err := replaceFile(ctx, api.deps, core.FileAvatar, func(key string) (old string, err error) {
		m, old, err = api.svc.SetAvatar(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), key)
		return old, err
	})
	if err != nil {
		return errors.Wrap(err, "setting staff avatar")
	}
	res, err := api.render(m)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
