package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var contextOrgKey = "organization_id"

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// orgMiddleware scopes the request to the organization of the authenticated user.
func orgMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.OrganizationID == "" {
				return errNoOrganization
			}
			ctx.Set(contextOrgKey, claims.OrganizationID)
			return next(ctx)
		}
	}
}

func contextOrgID(ctx echo.Context) string {
	orgID, _ := ctx.Get(contextOrgKey).(string)
	return orgID
}
