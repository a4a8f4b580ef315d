package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/user"
)

// permissionMiddleware lets the request through when the token user passes the check.
// Without auth every request passes.
func permissionMiddleware(conf *core.Config, allowed func(user.User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !authEnabled(conf) || allowed(getContextUser(ctx)) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
