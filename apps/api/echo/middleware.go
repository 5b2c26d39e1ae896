package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// teacherMiddleware guards mutating endpoints. A teacher simulating a student
// view is deliberately locked out: the preview must behave exactly like a
// student session.
func teacherMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsTeacher && !claims.Simulating() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
