package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/organization"
)

type organizationApi struct {
	deps     ServerDeps
	svc      *organization.Service
	validate *validator.Validate
}

func registerOrganizationAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := organizationApi{
		deps:     deps,
		svc:      deps.OrgSvc,
		validate: deps.Validate,
	}

	og := g.Group("/organization", jwt, org)
	og.GET("", api.retrieve)
	og.PUT("", api.update, adminMiddleware())
	og.PUT("/logo", api.setLogo, adminMiddleware())
}

func (api *organizationApi) render(ctx echo.Context, code int, o organization.Organization) error {
	res, err := withFileURL(api.deps.Files, o, "logo_url", o.Logo)
	if err != nil {
		return err
	}
	return ctx.JSON(code, res)
}

func (api *organizationApi) retrieve(ctx echo.Context) error {
	o, err := api.svc.Get(ctx.Request().Context(), contextOrgID(ctx))
	if err != nil {
		return errors.Wrap(err, "finding organization")
	}
	return api.render(ctx, http.StatusOK, o)
}

func (api *organizationApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	o, err := api.svc.Get(c, contextOrgID(ctx))
	if err != nil {
		return errors.Wrap(err, "finding organization")
	}

	var data organization.UpdateOrganization
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOrganization")
	}
	if err = data.Validate(o, api.validate); err != nil {
		return err
	}

	if o, err = api.svc.Update(c, o, data); err != nil {
		return errors.Wrap(err, "updating organization")
	}
	return api.render(ctx, http.StatusOK, o)
}

func (api *organizationApi) setLogo(ctx echo.Context) error {
	var o organization.Organization
	err := replaceFile(ctx, api.deps, core.FileLogo, func(key string) (old string, err error) {
		o, old, err = api.svc.SetLogo(ctx.Request().Context(), contextOrgID(ctx), key)
		return old, err
	})
	if err != nil {
		return errors.Wrap(err, "setting organization logo")
	}
	return api.render(ctx, http.StatusOK, o)
}
