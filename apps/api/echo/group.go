package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core/group"
)

type groupApi struct {
	svc      *group.Service
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := groupApi{
		svc:      deps.GroupSvc,
		validate: deps.Validate,
	}

	gg := g.Group("/groups", jwt, org)
	gg.GET("", api.query)
	gg.POST("", api.create, adminMiddleware())
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update, adminMiddleware())
	gg.DELETE("/:id", api.destroy, adminMiddleware())

	gg.GET("/:id/members", api.queryMembers)
	gg.POST("/:id/members", api.addMember, adminMiddleware())
	gg.DELETE("/:id/members/:student_id", api.removeMember, adminMiddleware())

	gg.GET("/:id/schedule", api.schedule)
	gg.POST("/:id/schedule", api.addSlot, adminMiddleware())
	gg.DELETE("/:id/schedule/:slot_id", api.removeSlot, adminMiddleware())
}

func (api *groupApi) query(ctx echo.Context) error {
	filter := new(group.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []group.Group{})
	}
	filter.Clean()
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, groupOrderings); err != nil {
		return err
	}

	groups, err := api.svc.Query(ctx.Request().Context(), contextOrgID(ctx), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grp, err := api.svc.Create(ctx.Request().Context(), contextOrgID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	grp, err := api.svc.Get(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	grp, err := api.svc.Get(c, contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding group")
	}

	var data group.UpdateGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if grp, err = api.svc.Update(c, grp, data); err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	if err := api.svc.Deactivate(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deactivating group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Members

func (api *groupApi) queryMembers(ctx echo.Context) error {
	ms, err := api.svc.Memberships(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying memberships")
	}
	if ms == nil {
		ms = []group.Membership{}
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *groupApi) addMember(ctx echo.Context) error {
	var data group.NewMembership
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMembership")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.AddStudent(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "adding student to group")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *groupApi) removeMember(ctx echo.Context) error {
	err := api.svc.RemoveStudent(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), ctx.Param("student_id"))
	if err != nil {
		return errors.Wrap(err, "removing student from group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Schedule

func (api *groupApi) schedule(ctx echo.Context) error {
	slots, err := api.svc.Schedule(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	if slots == nil {
		slots = []group.ScheduleSlot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *groupApi) addSlot(ctx echo.Context) error {
	var data group.NewScheduleSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScheduleSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.AddScheduleSlot(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding schedule slot")
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *groupApi) removeSlot(ctx echo.Context) error {
	c := ctx.Request().Context()
	slots, err := api.svc.Schedule(c, contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	for _, slot := range slots {
		if slot.ID == ctx.Param("slot_id") {
			if err = api.svc.RemoveScheduleSlot(c, contextOrgID(ctx), slot.ID); err != nil {
				return errors.Wrap(err, "removing schedule slot")
			}
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return group.ErrSlotNotFound
}
