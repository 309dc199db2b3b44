package middleware

// identity.go holds the principal attached to a request by Authenticate
// and the identifier derived from it for cache and rate limit keys.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-bookings/internal/model"
)

const principalKey = "principal"

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p *model.Principal) { c.Set(principalKey, p) }

// CurrentPrincipal returns the authenticated principal, or nil for an
// anonymous request.
func CurrentPrincipal(c echo.Context) *model.Principal {
    p, _ := c.Get(principalKey).(*model.Principal)
    return p
}

// userID identifies the caller as role:id, or "guest" when no principal
// is attached.  User IDs are only unique within a role.
func userID(c echo.Context) string {
    p := CurrentPrincipal(c)
    if p == nil {
        return "guest"
    }
    return string(p.Role) + ":" + strconv.FormatUint(p.UserID, 10)
}
