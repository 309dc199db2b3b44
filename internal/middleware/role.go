package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-bookings/internal/access"
    "github.com/iliyamo/event-bookings/internal/model"
)

// RequireRole guards a route with access.Authorize.  It must run after
// Authenticate.  JSON clients get 401/403 error bodies; browsers are
// redirected to loginURL when anonymous and aborted with 403 when the
// role is not allowed.
func RequireRole(loginURL string, roles ...model.Role) echo.MiddlewareFunc {
    allowed := access.Roles(roles...)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            d := access.Authorize(CurrentPrincipal(c), allowed, access.WantsJSON(c.Request()))
            switch d.Response {
            case access.Proceed:
                return next(c)
            case access.JSONError:
                msg := "forbidden"
                if d.Kind == access.Unauthenticated {
                    msg = "unauthenticated"
                }
                return c.JSON(d.Status, map[string]string{"error": msg})
            case access.RedirectLogin:
                return c.Redirect(d.Status, loginURL)
            case access.Abort:
                return echo.NewHTTPError(d.Status, http.StatusText(d.Status))
            }
            return echo.ErrForbidden
        }
    }
}
