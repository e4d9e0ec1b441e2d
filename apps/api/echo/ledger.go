package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/user"
)

var mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ledgerApi struct {
	svc      *ledger.Service
	validate *validator.Validate
}

func registerLedgerAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := ledgerApi{
		svc:      deps.LedgerSvc,
		validate: deps.Validate,
	}

	lg := g.Group("/ledger", jwt, org, adminMiddleware())
	lg.GET("", api.query)
	lg.POST("", api.create)
	lg.GET("/reconcile", api.reconcileOrganization)
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update)
	lg.POST("/:id/reverse", api.reverse)

	// staff sub-resources
	admin := []echo.MiddlewareFunc{jwt, org, adminMiddleware()}
	g.GET("/staff/:id/balance", api.reconcile, admin...)
	g.POST("/staff/:id/balance/repair", api.repair, append(admin, adminMiddleware(user.RoleAdminOwner, user.RoleAdminManager))...)
	g.GET("/staff/:id/statement", api.statement, admin...)
}

func (api *ledgerApi) query(ctx echo.Context) error {
	filter := new(ledger.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []ledger.Entry{})
	}

	entries, err := api.svc.Query(ctx.Request().Context(), contextOrgID(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying ledger entries")
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *ledgerApi) create(ctx echo.Context) error {
	var data ledger.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), contextOrgID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating ledger entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *ledgerApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.Get(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding ledger entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *ledgerApi) update(ctx echo.Context) error {
	var data ledger.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}

	e, err := api.svc.Update(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating ledger entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *ledgerApi) reverse(ctx echo.Context) error {
	e, err := api.svc.Reverse(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reversing ledger entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *ledgerApi) reconcileOrganization(ctx echo.Context) error {
	recs, err := api.svc.ReconcileOrganization(ctx.Request().Context(), contextOrgID(ctx))
	if err != nil {
		return errors.Wrap(err, "reconciling organization")
	}
	if ctx.QueryParam("inconsistent") == "true" {
		bad := make([]ledger.Reconciliation, 0)
		for _, rec := range recs {
			if !rec.Consistent {
				bad = append(bad, rec)
			}
		}
		recs = bad
	}
	if recs == nil {
		recs = []ledger.Reconciliation{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *ledgerApi) reconcile(ctx echo.Context) error {
	rec, err := api.svc.Reconcile(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reconciling staff balance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *ledgerApi) repair(ctx echo.Context) error {
	rec, err := api.svc.Repair(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "repairing staff balance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *ledgerApi) statement(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := api.svc.ExportStatement(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"), &buf); err != nil {
		return errors.Wrap(err, "exporting statement")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "statement-"+ctx.Param("id")+".xlsx"))
	return ctx.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}
