package middleware

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-bookings/internal/utils"
)

// Authenticate reads an optional Bearer access token.  A valid token
// attaches its principal to the context; a missing, expired or malformed
// token leaves the request anonymous and RequireRole decides what to do
// with it.
func Authenticate(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if raw, ok := strings.CutPrefix(auth, "Bearer "); ok && raw != "" {
                if p, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw)); err == nil {
                    SetPrincipal(c, p)
                } else {
                    c.Logger().Debugf("auth: rejected token: %v", err)
                }
            }
            return next(c)
        }
    }
}
