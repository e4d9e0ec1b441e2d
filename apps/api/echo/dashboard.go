package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core/dashboard"
)

type dashboardApi struct {
	svc *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{svc: deps.DashboardSvc}

	g.GET("/dashboard", api.summary, jwt, org, adminMiddleware())
}

func (api *dashboardApi) summary(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), contextOrgID(ctx))
	if err != nil {
		return errors.Wrap(err, "getting dashboard summary")
	}
	return ctx.JSON(http.StatusOK, s)
}
