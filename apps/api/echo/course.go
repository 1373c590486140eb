package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/user"
)

type courseApi struct {
	svc      course.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{
		svc:      opts.CourseSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	cg := g.Group("/courses")

	// the jwt-wrapped group registers a catch-all at the group root, so it
	// must come before the optional-JWT GETs for those to take effect
	ag := cg.Group("", jwt)
	ag.POST("", api.create, adminOrFacultyMiddleware())
	ag.PUT("/:id", api.update, adminMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
	ag.POST("/:id/approve", api.approve, adminMiddleware())
	ag.POST("/:id/reject", api.reject, adminMiddleware())
	ag.POST("/:id/enroll", api.enroll, studentMiddleware())

	// the course catalog is readable without authentication; a token, when
	// supplied, widens the listing for admin/faculty callers
	optJWT := newOptionalJWT()
	cg.GET("", api.query, optJWT)
	cg.GET("/:id", api.retrieve, optJWT)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	msg := "Course created."
	if crs.Status == course.StatusPending {
		msg = "Course request submitted; awaiting approval."
	}
	return respondMsg(ctx, http.StatusCreated, msg, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []course.Course{})
	}
	filter.Clean()

	// anonymous and student callers only ever see approved courses
	claims, _ := getContextClaims(ctx)
	if !(claims.IsAdmin || claims.IsFaculty) {
		filter.Status = course.StatusApproved
	}

	var courses []course.Course
	var err error
	if filter.IsEmpty() {
		courses, err = api.svc.QueryAll(ctx.Request().Context())
	} else {
		courses, err = api.svc.Filter(ctx.Request().Context(), *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return respond(ctx, http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.GetDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course detail")
	}
	return respond(ctx, http.StatusOK, detail)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(ctx.Request().Context(), crs, api.validate, api.svc); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return respond(ctx, http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) approve(ctx echo.Context) error {
	crs, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving course")
	}
	return respondMsg(ctx, http.StatusOK, "Course approved.", crs)
}

func (api *courseApi) reject(ctx echo.Context) error {
	crs, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rejecting course")
	}
	return respondMsg(ctx, http.StatusOK, "Course rejected.", crs)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	crs, err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return respondMsg(ctx, http.StatusOK, "Enrolled.", crs)
}
