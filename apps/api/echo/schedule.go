package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/schedule"
	"github.com/chuoapp/chuo/core/user"
)

type scheduleApi struct {
	svc      schedule.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := scheduleApi{
		svc:      opts.ScheduleSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	sg := g.Group("/schedules", jwt)
	sg.POST("", api.create, adminOrFacultyMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, adminOrFacultyMiddleware())
	sg.DELETE("/:id", api.destroy, adminOrFacultyMiddleware())

	wg := g.Group("/weekly-schedules", jwt)
	wg.POST("", api.createWeekly, adminOrFacultyMiddleware())
	wg.GET("", api.queryWeekly)
	wg.PUT("/:id", api.updateWeekly, adminOrFacultyMiddleware())
	wg.DELETE("/:id", api.destroyWeekly, adminOrFacultyMiddleware())
}

// Handlers

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sch, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return respond(ctx, http.StatusCreated, sch)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []schedule.Schedule{})
	}

	schedules, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if schedules == nil {
		schedules = []schedule.Schedule{}
	}
	return respond(ctx, http.StatusOK, schedules)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	sch, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding schedule by ID")
	}
	return respond(ctx, http.StatusOK, sch)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	sch, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding schedule by ID")
	}

	var data schedule.UpdateSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchedule")
	}
	if err := data.Validate(api.validate, sch); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sch, err = api.svc.Update(ctx.Request().Context(), sch.ID, data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	return respond(ctx, http.StatusOK, sch)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) createWeekly(ctx echo.Context) error {
	var data schedule.NewWeeklySchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWeeklySchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ws, err := api.svc.CreateWeekly(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating weekly schedule")
	}
	return respond(ctx, http.StatusCreated, ws)
}

func (api *scheduleApi) queryWeekly(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []schedule.WeeklySchedule{})
	}

	schedules, err := api.svc.FilterWeekly(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying weekly schedules")
	}
	if schedules == nil {
		schedules = []schedule.WeeklySchedule{}
	}
	return respond(ctx, http.StatusOK, schedules)
}

func (api *scheduleApi) updateWeekly(ctx echo.Context) error {
	var data schedule.NewWeeklySchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWeeklySchedule")
	}
	// course/semester are fixed after creation; only entries may change
	if err := api.validate.Var(data.Entries, "required,min=1,dive"); err != nil {
		return err
	}
	for _, e := range data.Entries {
		if err := schedule.ValidateWindow(e.StartTime, e.EndTime); err != nil {
			return err
		}
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ws, err := api.svc.UpdateWeekly(ctx.Request().Context(), ctx.Param("id"), data.Entries, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "updating weekly schedule")
	}
	return respond(ctx, http.StatusOK, ws)
}

func (api *scheduleApi) destroyWeekly(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.DeleteWeekly(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return errors.Wrap(err, "deleting weekly schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}
