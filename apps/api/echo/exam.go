package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core/exam"
	"github.com/chuoapp/chuo/core/user"
)

type examApi struct {
	svc      exam.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerExamAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := examApi{
		svc:      opts.ExamSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	eg := g.Group("/exams", jwt)
	eg.POST("", api.create, adminOrFacultyMiddleware())
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update, adminOrFacultyMiddleware())
	eg.POST("/:id/request-deletion", api.requestDeletion, adminOrFacultyMiddleware())
	eg.POST("/:id/approve-deletion", api.approveDeletion, adminOrFacultyMiddleware())
	eg.POST("/:id/submit", api.submit, studentMiddleware())
	eg.GET("/:id/results", api.queryResults, adminOrFacultyMiddleware())
	eg.PUT("/results", api.updateResult, adminOrFacultyMiddleware())
	eg.DELETE("/:id/results/:studentID", api.destroyResult, adminOrFacultyMiddleware())

	g.GET("/results/my", api.myResults, jwt, studentMiddleware())
}

// Handlers

func (api *examApi) create(ctx echo.Context) error {
	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return respond(ctx, http.StatusCreated, e)
}

func (api *examApi) query(ctx echo.Context) error {
	filter := new(exam.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []exam.Exam{})
	}

	exams, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students get the redacted projection, never the answer key
	if !(claims.IsAdmin || claims.IsFaculty) {
		views := make([]exam.StudentView, 0, len(exams))
		for _, e := range exams {
			views = append(views, e.StudentView())
		}
		return respond(ctx, http.StatusOK, views)
	}

	if exams == nil {
		exams = []exam.Exam{}
	}
	return respond(ctx, http.StatusOK, exams)
}

func (api *examApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding exam by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsFaculty) {
		return respond(ctx, http.StatusOK, e.StudentView())
	}
	return respond(ctx, http.StatusOK, e)
}

func (api *examApi) update(ctx echo.Context) error {
	var data exam.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "updating exam")
	}
	return respond(ctx, http.StatusOK, e)
}

func (api *examApi) requestDeletion(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.RequestDeletion(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "requesting exam deletion")
	}
	return respondMsg(ctx, http.StatusOK, "Deletion requested.", e)
}

func (api *examApi) approveDeletion(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if _, err := api.svc.ApproveDeletion(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return errors.Wrap(err, "approving exam deletion")
	}
	return respondMsg(ctx, http.StatusOK, "Exam deleted.")
}

func (api *examApi) submit(ctx echo.Context) error {
	var data exam.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "submitting exam")
	}
	return respondMsg(ctx, http.StatusCreated, "Submission graded.", res)
}

func (api *examApi) queryResults(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	results, err := api.svc.ResultsForExam(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying exam results")
	}
	if results == nil {
		results = []exam.Result{}
	}
	return respond(ctx, http.StatusOK, results)
}

func (api *examApi) myResults(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	results, err := api.svc.ResultsForStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying student results")
	}
	if results == nil {
		results = []exam.Result{}
	}
	return respond(ctx, http.StatusOK, results)
}

func (api *examApi) updateResult(ctx echo.Context) error {
	var data exam.UpdateResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateResult")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.UpdateResultByDetails(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "overriding result")
	}
	return respond(ctx, http.StatusOK, res)
}

func (api *examApi) destroyResult(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.DeleteResult(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentID"), ctxUsr); err != nil {
		return errors.Wrap(err, "deleting result")
	}
	return ctx.NoContent(http.StatusNoContent)
}
