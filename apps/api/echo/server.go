package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/attendance"
	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/exam"
	"github.com/chuoapp/chuo/core/leave"
	"github.com/chuoapp/chuo/core/notice"
	"github.com/chuoapp/chuo/core/payment"
	"github.com/chuoapp/chuo/core/schedule"
	"github.com/chuoapp/chuo/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger         core.Logger
		SignalShutdown func()

		Validate *validator.Validate

		UserSvc       user.ServiceInterface
		CourseSvc     course.ServiceInterface
		ExamSvc       exam.ServiceInterface
		LeaveSvc      leave.ServiceInterface
		AttendanceSvc attendance.ServiceInterface
		NoticeSvc     notice.ServiceInterface
		ScheduleSvc   schedule.ServiceInterface
		PaymentSvc    payment.ServiceInterface
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig())

	registerUserAPI(api, jwt, s.opts)
	registerCourseAPI(api, jwt, s.opts)
	registerExamAPI(api, jwt, s.opts)
	registerLeaveAPI(api, jwt, s.opts)
	registerAttendanceAPI(api, jwt, s.opts)
	registerNoticeAPI(api, jwt, s.opts)
	registerScheduleAPI(api, jwt, s.opts)
	registerPaymentAPI(api, jwt, s.opts)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Chuo API!")
}
