package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

// capabilityMiddleware lets through the users whose roles grant `capability`.
func capabilityMiddleware(svc user.Service, capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.Can(capability) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
