package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-bookings/internal/handler"
	"github.com/iliyamo/event-bookings/internal/middleware"
	"github.com/iliyamo/event-bookings/internal/model"
)

// Guards holds the middleware shared by every authenticated route.
// RateLimit and Cache may be nil.
type Guards struct {
	JWTSecret string
	LoginURL  string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// chain returns Authenticate, the role guard, then the optional limiter
// and cache.  The cache runs last so that its key sees the principal and
// a rejected request is never served from it.
func (g Guards) chain(roles ...model.Role) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{
		middleware.Authenticate(g.JWTSecret),
		middleware.RequireRole(g.LoginURL, roles...),
	}
	if g.RateLimit != nil {
		mw = append(mw, g.RateLimit)
	}
	if g.Cache != nil {
		mw = append(mw, g.Cache)
	}
	return mw
}

// RegisterRoutes registers the health check.  db may be nil.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterBookings registers the booking views.  Customers read their
// own bookings under /v1/my-bookings; admins and merchants use
// /v1/bookings.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, g Guards) {
	customer := e.Group("/v1/my-bookings", g.chain(model.RoleCustomer)...)
	customer.GET("/:id", h.GetMyBooking)

	staff := e.Group("/v1/bookings", g.chain(model.RoleAdmin, model.RoleMerchant)...)
	staff.GET("/:id", h.GetBooking)
}
