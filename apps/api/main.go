package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	echoapi "github.com/chuoapp/chuo/apps/api/echo"
	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/attendance"
	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/exam"
	"github.com/chuoapp/chuo/core/leave"
	"github.com/chuoapp/chuo/core/notice"
	"github.com/chuoapp/chuo/core/payment"
	"github.com/chuoapp/chuo/core/schedule"
	"github.com/chuoapp/chuo/core/user"
	emailsvc "github.com/chuoapp/chuo/services/email"
	loggersvc "github.com/chuoapp/chuo/services/logger"
	paymentsvc "github.com/chuoapp/chuo/services/payment"
	"github.com/chuoapp/chuo/storage/database"
	"github.com/chuoapp/chuo/storage/database/sqlpg"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if err := run(std); err != nil {
		std.Fatalf("main: %+v", err)
	}
}

func run(std *log.Logger) error {
	conf := core.NewConfig()
	logger := loggersvc.NewRollbarLogger(std, conf)

	// expvar & pprof debug endpoint
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/debug/vars", expvar.Handler())
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		logger.Info("debug server listening on " + conf.Server.DebugHost)
		if err := http.ListenAndServe(conf.Server.DebugHost, mux); err != nil {
			logger.Warn("debug server closed", err)
		}
	}()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()
	if err = database.Migrate(db.DB); err != nil {
		return errors.Wrap(err, "migrating database")
	}

	// set up validators
	validate := validator.New()
	enLocale := en.New()
	uniTrans := ut.New(enLocale, enLocale)
	translator, _ := uniTrans.GetTranslator("en")
	if err = entrans.RegisterDefaultTranslations(validate, translator); err != nil {
		return errors.Wrap(err, "registering default translations")
	}
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	leave.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	processor := paymentsvc.NewMidtransService(conf.Payment, logger)

	usrSvc := user.NewService(sqlpg.NewUserRepository(db), mailSvc, conf)
	crsSvc := course.NewService(sqlpg.NewCourseRepository(db), usrSvc)
	examSvc := exam.NewService(sqlpg.NewExamRepository(db), crsSvc)
	leaveSvc := leave.NewService(sqlpg.NewLeaveRepository(db))
	attSvc := attendance.NewService(sqlpg.NewAttendanceRepository(db), crsSvc, conf.Campus)
	noticeSvc := notice.NewService(sqlpg.NewNoticeRepository(db), usrSvc)
	schedSvc := schedule.NewService(sqlpg.NewScheduleRepository(db), crsSvc)
	paySvc := payment.NewService(sqlpg.NewPaymentRepository(db), processor, usrSvc)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Addr,
		Logger:         logger,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		Validate:       validate,

		UserSvc:       usrSvc,
		CourseSvc:     crsSvc,
		ExamSvc:       examSvc,
		LeaveSvc:      leaveSvc,
		AttendanceSvc: attSvc,
		NoticeSvc:     noticeSvc,
		ScheduleSvc:   schedSvc,
		PaymentSvc:    paySvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("api server listening on " + conf.Server.Addr)
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		logger.Info("shutdown started", sig)
		defer logger.Info("shutdown complete", sig)

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}
