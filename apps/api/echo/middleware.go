package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return claimsMiddleware(func(claims Claims) bool { return claims.IsAdmin }, roles...)
}

func facultyMiddleware(roles ...string) echo.MiddlewareFunc {
	return claimsMiddleware(func(claims Claims) bool { return claims.IsFaculty }, roles...)
}

func studentMiddleware(roles ...string) echo.MiddlewareFunc {
	return claimsMiddleware(func(claims Claims) bool { return claims.IsStudent }, roles...)
}

func adminOrFacultyMiddleware(roles ...string) echo.MiddlewareFunc {
	return claimsMiddleware(func(claims Claims) bool { return claims.IsAdmin || claims.IsFaculty }, roles...)
}

func claimsMiddleware(allowed func(Claims) bool, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(claims) && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
