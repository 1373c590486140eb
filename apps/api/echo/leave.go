package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/leave"
	"github.com/chuoapp/chuo/core/user"
)

type leaveApi struct {
	svc      leave.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerLeaveAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := leaveApi{
		svc:      opts.LeaveSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	lg := g.Group("/leaves", jwt)
	lg.POST("", api.create)
	lg.GET("", api.query, adminMiddleware())
	lg.GET("/my", api.mine)
	lg.POST("/:id/approve", api.approve, adminMiddleware())
	lg.POST("/:id/reject", api.reject, adminMiddleware())
	lg.POST("/:id/cancel", api.cancel)
}

// Handlers

func (api *leaveApi) create(ctx echo.Context) error {
	var data leave.NewLeave
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLeave")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lv, err := api.svc.Submit(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "submitting leave")
	}
	return respondMsg(ctx, http.StatusCreated, "Leave request submitted.", lv)
}

func (api *leaveApi) query(ctx echo.Context) error {
	filter := new(leave.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []leave.Leave{})
	}
	filter.Clean()

	leaves, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	if leaves == nil {
		leaves = []leave.Leave{}
	}
	return respond(ctx, http.StatusOK, leaves)
}

func (api *leaveApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	leaves, err := api.svc.ForRequester(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying requester leaves")
	}
	if leaves == nil {
		leaves = []leave.Leave{}
	}
	return respond(ctx, http.StatusOK, leaves)
}

func (api *leaveApi) approve(ctx echo.Context) error {
	lv, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving leave")
	}
	return respondMsg(ctx, http.StatusOK, "Leave approved.", lv)
}

func (api *leaveApi) reject(ctx echo.Context) error {
	lv, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rejecting leave")
	}
	return respondMsg(ctx, http.StatusOK, "Leave rejected.", lv)
}

func (api *leaveApi) cancel(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lv, err := api.svc.Cancel(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "cancelling leave")
	}
	return respondMsg(ctx, http.StatusOK, "Leave cancelled.", lv)
}
