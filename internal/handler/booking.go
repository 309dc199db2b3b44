package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-bookings/internal/middleware"
    "github.com/iliyamo/event-bookings/internal/model"
    "github.com/iliyamo/event-bookings/internal/presenter"
    "github.com/iliyamo/event-bookings/internal/repository"
)

// BookingReader loads booking aggregates.  *repository.BookingRepo
// implements it.
type BookingReader interface {
    GetAggregate(ctx context.Context, id uint64, inc repository.Include) (*model.Booking, error)
    MerchantOf(ctx context.Context, bookingID uint64) (uint64, error)
}

// BookingHandler serves the read views of a booking.  Routes are guarded
// by middleware.RequireRole, so every method finds a principal on the
// context.
type BookingHandler struct {
    Bookings  BookingReader
    Presenter *presenter.Presenter
}

// NewBookingHandler panics when a dependency is nil.
func NewBookingHandler(bookings BookingReader, p *presenter.Presenter) *BookingHandler {
    if bookings == nil || p == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: bookings, Presenter: p}
}

// GetMyBooking handles GET /v1/my-bookings/:id for customers.  A booking
// of another customer is reported as not found.
func (h *BookingHandler) GetMyBooking(c echo.Context) error {
    p := middleware.CurrentPrincipal(c)
    if p == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
    }
    id, err := bookingID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Bookings.GetAggregate(c.Request().Context(), id,
        repository.Include{Slot: true, LineItems: true, Transactions: true})
    if err != nil {
        return writeError(c, err)
    }
    if b.CustomerID != p.UserID {
        return writeError(c, repository.ErrNotFound)
    }
    return c.JSON(http.StatusOK, h.Presenter.Customer(*b))
}

// GetBooking handles GET /v1/bookings/:id for admins and merchants.
// Merchants only see bookings of their own events; the view is projected
// for the caller's role.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    p := middleware.CurrentPrincipal(c)
    if p == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
    }
    id, err := bookingID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()

    var inc repository.Include
    switch p.Role {
    case model.RoleAdmin:
        inc = repository.IncludeAll
    case model.RoleMerchant:
        owner, err := h.Bookings.MerchantOf(ctx, id)
        if err != nil {
            return writeError(c, err)
        }
        if owner != p.UserID {
            return writeError(c, repository.ErrForbidden)
        }
        inc = repository.Include{Slot: true, LineItems: true, Attendances: true}
    case model.RoleCustomer:
        return writeError(c, repository.ErrForbidden)
    }

    b, err := h.Bookings.GetAggregate(ctx, id, inc)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, h.Presenter.Admin(*b, p.Role))
}

func bookingID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// writeError maps repository errors to HTTP responses.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    default:
        log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
