package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core/payment"
)

type paymentApi struct {
	svc      *payment.Service
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt, org echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{
		svc:      deps.PaymentSvc,
		validate: deps.Validate,
	}

	tg := g.Group("/payment-types", jwt, org, adminMiddleware())
	tg.GET("", api.queryTypes)
	tg.POST("", api.createType)
	tg.GET("/:id", api.retrieveType)
	tg.PUT("/:id", api.updateType)

	pg := g.Group("/payments", jwt, org, adminMiddleware())
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/:id", api.retrieve)
	pg.DELETE("/:id", api.destroy)
}

// Payment types

func (api *paymentApi) queryTypes(ctx echo.Context) error {
	types, err := api.svc.QueryTypes(ctx.Request().Context(), contextOrgID(ctx))
	if err != nil {
		return errors.Wrap(err, "querying payment types")
	}
	if types == nil {
		types = []payment.Type{}
	}
	return ctx.JSON(http.StatusOK, types)
}

func (api *paymentApi) createType(ctx echo.Context) error {
	var data payment.NewType
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewType")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.CreateType(ctx.Request().Context(), contextOrgID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating payment type")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *paymentApi) retrieveType(ctx echo.Context) error {
	t, err := api.svc.GetType(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding payment type")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *paymentApi) updateType(ctx echo.Context) error {
	c := ctx.Request().Context()
	t, err := api.svc.GetType(c, contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding payment type")
	}

	var data payment.UpdateType
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateType")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if t, err = api.svc.UpdateType(c, t, data); err != nil {
		return errors.Wrap(err, "updating payment type")
	}
	return ctx.JSON(http.StatusOK, t)
}

// Payments

func (api *paymentApi) query(ctx echo.Context) error {
	filter := new(payment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.Payment{})
	}

	payments, err := api.svc.Query(ctx.Request().Context(), contextOrgID(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), contextOrgID(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Deactivate(ctx.Request().Context(), contextOrgID(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "cancelling payment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
