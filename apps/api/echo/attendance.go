package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/attendance"
	"github.com/chuoapp/chuo/core/user"
)

type attendanceApi struct {
	svc      attendance.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := attendanceApi{
		svc:      opts.AttendanceSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.POST("/mark", api.selfMark, studentMiddleware())
	ag.POST("/requests", api.submitRequest, studentMiddleware())
	ag.POST("/requests/:id/respond", api.respond, adminOrFacultyMiddleware())
	ag.GET("/courses/:id/requests", api.pending, adminOrFacultyMiddleware())
	ag.GET("/courses/:id/summary", api.courseSummary, adminOrFacultyMiddleware())
	ag.GET("/my", api.mySummary, studentMiddleware())
}

// Handlers

func (api *attendanceApi) selfMark(ctx echo.Context) error {
	var data attendance.SelfMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelfMark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.SelfMark(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return respondMsg(ctx, http.StatusCreated, "Attendance marked.", rec)
}

func (api *attendanceApi) submitRequest(ctx echo.Context) error {
	var data attendance.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.SubmitRequest(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "submitting attendance request")
	}
	return respondMsg(ctx, http.StatusCreated, "Attendance request submitted.", req)
}

func (api *attendanceApi) respond(ctx echo.Context) error {
	var data attendance.Respond
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Respond")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.svc.Respond(ctx.Request().Context(), ctx.Param("id"), data.Action, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "responding to attendance request")
	}
	return respond(ctx, http.StatusOK, req)
}

func (api *attendanceApi) pending(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqs, err := api.svc.PendingForCourse(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying pending requests")
	}
	if reqs == nil {
		reqs = []attendance.Request{}
	}
	return respond(ctx, http.StatusOK, reqs)
}

func (api *attendanceApi) courseSummary(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	summary, err := api.svc.SummarizeCourse(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "summarizing course attendance")
	}
	return respond(ctx, http.StatusOK, summary)
}

func (api *attendanceApi) mySummary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	summary, err := api.svc.SummarizeStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "summarizing student attendance")
	}
	return respond(ctx, http.StatusOK, summary)
}
