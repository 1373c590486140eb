package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/notice"
	"github.com/chuoapp/chuo/core/user"
)

type noticeApi struct {
	svc      notice.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerNoticeAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := noticeApi{
		svc:      opts.NoticeSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	ng := g.Group("/notices", jwt)
	ng.POST("", api.create, adminOrFacultyMiddleware())
	ng.GET("", api.query)
	ng.DELETE("/:id", api.destroy, adminOrFacultyMiddleware())
	ng.POST("/sweep", api.sweep, adminOrFacultyMiddleware())

	fg := g.Group("/notifications", jwt)
	fg.POST("", api.broadcast, adminOrFacultyMiddleware())
	fg.GET("/my", api.mine)
	fg.POST("/:id/read", api.markRead)
}

// Handlers

func (api *noticeApi) create(ctx echo.Context) error {
	var data notice.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	n, err := api.svc.CreateNotice(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return respond(ctx, http.StatusCreated, n)
}

func (api *noticeApi) query(ctx echo.Context) error {
	notices, err := api.svc.ListNotices(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	if notices == nil {
		notices = []notice.Notice{}
	}
	return respond(ctx, http.StatusOK, notices)
}

func (api *noticeApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteNotice(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *noticeApi) sweep(ctx echo.Context) error {
	n, err := api.svc.SweepExpired(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "sweeping expired notices")
	}
	return respond(ctx, http.StatusOK, map[string]int{"deleted": n})
}

func (api *noticeApi) broadcast(ctx echo.Context) error {
	var data notice.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	n, err := api.svc.Broadcast(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "broadcasting notification")
	}
	return respondMsg(ctx, http.StatusCreated, "Notification sent.", n)
}

func (api *noticeApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifs, err := api.svc.ListMine(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notice.UserNotification{}
	}
	return respond(ctx, http.StatusOK, notifs)
}

func (api *noticeApi) markRead(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	notif, err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return respond(ctx, http.StatusOK, notif)
}
