package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/event-bookings/internal/model"
)

// Include selects which relations of a booking aggregate are loaded.
// Relations left out stay unloaded on the returned model.
type Include struct {
    Customer     bool
    Slot         bool // slot with its event, category, location, media and prices
    LineItems    bool
    Transactions bool
    Attendances  bool
}

// IncludeAll loads every relation of the aggregate.
var IncludeAll = Include{Customer: true, Slot: true, LineItems: true, Transactions: true, Attendances: true}

// BookingRepo reads booking aggregates.  Bookings are written by the
// booking service; this repository never mutates them.  All timestamps
// are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// GetAggregate returns the booking with the requested relations.  It
// returns ErrNotFound when no booking has the given id.
func (r *BookingRepo) GetAggregate(ctx context.Context, id uint64, inc Include) (*model.Booking, error) {
    const q = `SELECT id, customer_id, event_slot_id, status, quantity, booked_at, cancelled_at, booking_code, qr_url
               FROM bookings WHERE id = ?`
    var (
        b         model.Booking
        bookedAt  sql.NullTime
        cancelled sql.NullTime
        code      sql.NullString
        qr        sql.NullString
    )
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.CustomerID, &b.SlotID, &b.Status, &b.Quantity, &bookedAt, &cancelled, &code, &qr,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    b.BookedAt = timePtr(bookedAt)
    b.CancelledAt = timePtr(cancelled)
    b.BookingCode = code.String
    b.QRURL = stringPtr(qr)

    if inc.Customer {
        c, err := NewCustomerRepo(r.db).FindCustomer(ctx, b.CustomerID)
        if err != nil {
            return nil, err
        }
        if c != nil {
            b.Customer = model.Loaded(*c)
        }
    }
    if inc.Slot {
        slot, err := r.slot(ctx, b.SlotID)
        if err != nil {
            return nil, err
        }
        if slot != nil {
            b.Slot = model.Loaded(*slot)
        }
    }
    if inc.LineItems {
        items, err := r.lineItems(ctx, b.ID)
        if err != nil {
            return nil, err
        }
        b.LineItems = model.Loaded(items)
    }
    if inc.Transactions {
        txs, err := r.transactions(ctx, b.ID)
        if err != nil {
            return nil, err
        }
        b.Transactions = model.Loaded(txs)
    }
    if inc.Attendances {
        att, err := r.attendances(ctx, b.ID)
        if err != nil {
            return nil, err
        }
        b.Attendances = model.Loaded(att)
    }
    return &b, nil
}

// LoadWithSlot returns the booking with its slot, or nil when the
// booking does not exist.
func (r *BookingRepo) LoadWithSlot(ctx context.Context, id uint64) (*model.Booking, error) {
    b, err := r.GetAggregate(ctx, id, Include{Slot: true})
    if errors.Is(err, ErrNotFound) {
        return nil, nil
    }
    return b, err
}

// MerchantOf returns the merchant owning the event of the booking.
func (r *BookingRepo) MerchantOf(ctx context.Context, bookingID uint64) (uint64, error) {
    const q = `SELECT e.merchant_id
               FROM bookings b
               JOIN event_slots s ON s.id = b.event_slot_id
               JOIN events e ON e.id = s.event_id
               WHERE b.id = ?`
    var merchantID uint64
    err := r.db.QueryRowContext(ctx, q, bookingID).Scan(&merchantID)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrNotFound
    }
    return merchantID, err
}

// slot loads a slot with its event and price tiers.  Date and start/end
// times are separate columns; TIMESTAMP() combines them in UTC.
func (r *BookingRepo) slot(ctx context.Context, slotID uint64) (*model.EventSlot, error) {
    const q = `SELECT s.id, s.event_id, s.date, TIMESTAMP(s.date, s.start_time), TIMESTAMP(s.date, s.end_time),
                      e.id, e.merchant_id, e.title, e.type, e.is_recurring, e.start_date, e.end_date,
                      c.id, c.name, l.id, l.name
               FROM event_slots s
               JOIN events e ON e.id = s.event_id
               LEFT JOIN categories c ON c.id = e.category_id
               LEFT JOIN event_locations l ON l.id = e.location_id
               WHERE s.id = ?`
    var (
        s            model.EventSlot
        ev           model.Event
        evType       sql.NullString
        start, end   sql.NullTime
        catID, locID sql.NullInt64
        catName      sql.NullString
        locName      sql.NullString
    )
    err := r.db.QueryRowContext(ctx, q, slotID).Scan(
        &s.ID, &s.EventID, &s.Date, &s.StartsAt, &s.EndsAt,
        &ev.ID, &ev.MerchantID, &ev.Title, &evType, &ev.IsRecurring, &start, &end,
        &catID, &catName, &locID, &locName,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    ev.Type = evType.String
    ev.StartDate = timePtr(start)
    ev.EndDate = timePtr(end)
    if catID.Valid {
        ev.Category = model.Loaded(model.Category{ID: uint64(catID.Int64), Name: catName.String})
    }
    if locID.Valid {
        ev.Location = model.Loaded(model.Location{ID: uint64(locID.Int64), Name: locName.String})
    }

    media, err := r.media(ctx, ev.ID)
    if err != nil {
        return nil, err
    }
    ev.Media = model.Loaded(media)
    s.Event = model.Loaded(ev)

    prices, err := r.prices(ctx, s.ID)
    if err != nil {
        return nil, err
    }
    s.Prices = model.Loaded(prices)
    return &s, nil
}

func (r *BookingRepo) media(ctx context.Context, eventID uint64) ([]model.Media, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, url FROM event_media WHERE event_id = ? ORDER BY sort_order, id`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Media, 0)
    for rows.Next() {
        var m model.Media
        if err := rows.Scan(&m.ID, &m.URL); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

func (r *BookingRepo) prices(ctx context.Context, slotID uint64) ([]model.SlotPrice, error) {
    const q = `SELECT p.id, p.age_group_id, ag.label, p.paid_credits, p.free_credits
               FROM event_prices p
               LEFT JOIN age_groups ag ON ag.id = p.age_group_id
               WHERE p.event_slot_id = ?
               ORDER BY p.id`
    rows, err := r.db.QueryContext(ctx, q, slotID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.SlotPrice, 0)
    for rows.Next() {
        var (
            p     model.SlotPrice
            agID  sql.NullInt64
            label sql.NullString
        )
        if err := rows.Scan(&p.ID, &agID, &label, &p.PaidCredits, &p.FreeCredits); err != nil {
            return nil, err
        }
        p.AgeGroupID = uintPtr(agID)
        p.Label = stringPtr(label)
        out = append(out, p)
    }
    return out, rows.Err()
}

func (r *BookingRepo) lineItems(ctx context.Context, bookingID uint64) ([]model.LineItem, error) {
    const q = `SELECT bi.id, bi.age_group_id, ag.label, bi.quantity, bi.paid_credits, bi.free_credits
               FROM booking_items bi
               LEFT JOIN age_groups ag ON ag.id = bi.age_group_id
               WHERE bi.booking_id = ?
               ORDER BY bi.id`
    rows, err := r.db.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.LineItem, 0)
    for rows.Next() {
        var (
            li    model.LineItem
            agID  sql.NullInt64
            label sql.NullString
        )
        if err := rows.Scan(&li.ID, &agID, &label, &li.Quantity, &li.PaidCredits, &li.FreeCredits); err != nil {
            return nil, err
        }
        li.AgeGroupID = uintPtr(agID)
        if agID.Valid && label.Valid {
            li.AgeGroup = model.Loaded(model.AgeGroup{ID: uint64(agID.Int64), Label: label.String})
        }
        out = append(out, li)
    }
    return out, rows.Err()
}

func (r *BookingRepo) transactions(ctx context.Context, bookingID uint64) ([]model.CreditTransaction, error) {
    const q = `SELECT id, type, before_free_credits, before_paid_credits, free_credits, paid_credits, created_at
               FROM credit_transactions
               WHERE booking_id = ?
               ORDER BY created_at, id`
    rows, err := r.db.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.CreditTransaction, 0)
    for rows.Next() {
        var t model.CreditTransaction
        if err := rows.Scan(&t.ID, &t.Type, &t.BeforeFree, &t.BeforePaid, &t.DeltaFree, &t.DeltaPaid, &t.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

func (r *BookingRepo) attendances(ctx context.Context, bookingID uint64) ([]model.Attendance, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, status FROM attendances WHERE booking_id = ? ORDER BY id`, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Attendance, 0)
    for rows.Next() {
        var a model.Attendance
        if err := rows.Scan(&a.ID, &a.Status); err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    return out, rows.Err()
}

func timePtr(t sql.NullTime) *time.Time {
    if !t.Valid {
        return nil
    }
    v := t.Time.UTC()
    return &v
}

func stringPtr(s sql.NullString) *string {
    if !s.Valid {
        return nil
    }
    v := s.String
    return &v
}

func uintPtr(n sql.NullInt64) *uint64 {
    if !n.Valid {
        return nil
    }
    v := uint64(n.Int64)
    return &v
}
