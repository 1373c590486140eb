package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

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

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// domainErrCodes maps known business errors to HTTP status codes; anything
// not listed here is a server error.
var domainErrCodes = map[error]int{
	user.ErrNotFound:       http.StatusNotFound,
	user.ErrEmailExists:    http.StatusConflict,
	user.ErrUsernameExists: http.StatusConflict,
	user.ErrNotPending:     http.StatusConflict,

	course.ErrNotFound:          http.StatusNotFound,
	course.ErrCodeExists:        http.StatusConflict,
	course.ErrInvalidTransition: http.StatusConflict,
	course.ErrNotApproved:       http.StatusConflict,
	course.ErrNotInstructor:     http.StatusForbidden,

	exam.ErrNotFound:            http.StatusNotFound,
	exam.ErrResultNotFound:      http.StatusNotFound,
	exam.ErrResultExists:        http.StatusConflict,
	exam.ErrExamClosed:          http.StatusConflict,
	exam.ErrInvalidTransition:   http.StatusConflict,
	exam.ErrNotCourseInstructor: http.StatusForbidden,
	exam.ErrNotEnrolled:         http.StatusForbidden,

	leave.ErrNotFound:   http.StatusNotFound,
	leave.ErrNotPending: http.StatusConflict,
	leave.ErrNotOwner:   http.StatusForbidden,

	attendance.ErrNotFound:      http.StatusNotFound,
	attendance.ErrAlreadyMarked: http.StatusConflict,
	attendance.ErrOutOfRange:    http.StatusUnprocessableEntity,
	attendance.ErrNotEnrolled:   http.StatusForbidden,
	attendance.ErrNotPending:    http.StatusConflict,
	attendance.ErrNotInstructor: http.StatusForbidden,

	notice.ErrNotFound:             http.StatusNotFound,
	notice.ErrNotificationNotFound: http.StatusNotFound,
	notice.ErrNotRecipient:         http.StatusForbidden,

	schedule.ErrNotFound: http.StatusNotFound,
	schedule.ErrNotOwner: http.StatusForbidden,

	payment.ErrNotFound:   http.StatusNotFound,
	payment.ErrNotOwner:   http.StatusForbidden,
	payment.ErrNotPending: http.StatusConflict,

	core.ErrConcurrentUpdate: http.StatusConflict,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders
// every error in the response envelope.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var fldErrs map[string]string

		// the type switch must run before the sentinel map lookup:
		// validator.ValidationErrors is a slice and cannot be used as a map key
		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = "missing or malformed jwt"
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			fldErrs = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = "validation failed"
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = "validation failed"
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if domainCode, ok := domainErrCodes[cause]; ok {
				code = domainCode
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(message, errors.Wrap(err, message), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, response{Success: false, Message: message, Errors: fldErrs})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
