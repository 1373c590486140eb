package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/payment"
	"github.com/chuoapp/chuo/core/user"
)

type paymentApi struct {
	svc      payment.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := paymentApi{
		svc:      opts.PaymentSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	pg := g.Group("/payments")

	// processor webhook; authenticated by the gateway's signature scheme,
	// not by user JWTs
	pg.POST("/callback", api.callback)

	ag := pg.Group("", jwt)
	ag.POST("/invoices", api.createInvoice, adminMiddleware())
	ag.GET("/invoices/my", api.myInvoices, studentMiddleware())
	ag.GET("/invoices/:id", api.retrieveInvoice)
	ag.POST("/invoices/:id/checkout", api.checkout, studentMiddleware())
	ag.POST("/invoices/:id/cancel", api.cancelInvoice, adminMiddleware())
}

// Handlers

func (api *paymentApi) createInvoice(ctx echo.Context) error {
	var data payment.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inv, err := api.svc.CreateInvoice(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating invoice")
	}
	return respond(ctx, http.StatusCreated, inv)
}

func (api *paymentApi) myInvoices(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	invoices, err := api.svc.ListForStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	if invoices == nil {
		invoices = []payment.Invoice{}
	}
	return respond(ctx, http.StatusOK, invoices)
}

func (api *paymentApi) retrieveInvoice(ctx echo.Context) error {
	inv, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding invoice by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && inv.StudentID != claims.Subject {
		return errHttpNotFound
	}
	return respond(ctx, http.StatusOK, inv)
}

func (api *paymentApi) checkout(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	co, err := api.svc.Checkout(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "opening checkout")
	}
	return respond(ctx, http.StatusOK, co)
}

func (api *paymentApi) callback(ctx echo.Context) error {
	var data payment.Callback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Callback")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inv, err := api.svc.Confirm(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "confirming payment")
	}
	return respond(ctx, http.StatusOK, inv)
}

func (api *paymentApi) cancelInvoice(ctx echo.Context) error {
	inv, err := api.svc.CancelInvoice(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling invoice")
	}
	return respondMsg(ctx, http.StatusOK, "Invoice cancelled.", inv)
}
