package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/event-bookings/internal/model"
)

// ReminderRepo persists reminders.  Status changes are conditional on
// the current status so that two workers processing the same reminder
// cannot both win.
type ReminderRepo struct {
    db       *sql.DB
    bookings *BookingRepo
}

// NewReminderRepo returns a new ReminderRepo bound to the given database.
func NewReminderRepo(db *sql.DB) *ReminderRepo {
    return &ReminderRepo{db: db, bookings: NewBookingRepo(db)}
}

// LoadWithChain returns the reminder with its booking, the booking's
// customer, slot and event.  It returns nil, nil when the reminder does
// not exist; a deleted booking leaves the Booking relation unloaded.
func (r *ReminderRepo) LoadWithChain(ctx context.Context, id uint64) (*model.Reminder, error) {
    const q = `SELECT id, booking_id, status, remind_at, enqueued_at, created_at, updated_at
               FROM reminders WHERE id = ?`
    var (
        rem      model.Reminder
        enqueued sql.NullTime
    )
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &rem.ID, &rem.BookingID, &rem.Status, &rem.RemindAt, &enqueued, &rem.CreatedAt, &rem.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    rem.EnqueuedAt = timePtr(enqueued)

    b, err := r.bookings.GetAggregate(ctx, rem.BookingID, Include{Customer: true, Slot: true})
    switch {
    case errors.Is(err, ErrNotFound):
    case err != nil:
        return nil, err
    default:
        rem.Booking = model.Loaded(*b)
    }
    return &rem, nil
}

// TransitionStatus sets the status to `to` only when it is currently
// `from`.  A false result means the reminder was missing or already
// moved by someone else.
func (r *ReminderRepo) TransitionStatus(ctx context.Context, id uint64, from, to model.ReminderStatus) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        "UPDATE reminders SET status=?, updated_at=UTC_TIMESTAMP() WHERE id=? AND status=?",
        to, id, from)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// ClaimDue selects up to limit scheduled reminders due at now that were
// never enqueued or whose enqueue stamp is older than staleAfter, and
// stamps them with now.  Rows locked by a concurrent claimer are
// skipped.
func (r *ReminderRepo) ClaimDue(ctx context.Context, now time.Time, staleAfter time.Duration, limit int) ([]uint64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const sel = `SELECT id FROM reminders
                 WHERE status = ? AND remind_at <= ? AND (enqueued_at IS NULL OR enqueued_at <= ?)
                 ORDER BY remind_at, id
                 LIMIT ?
                 FOR UPDATE SKIP LOCKED`
    rows, err := tx.QueryContext(ctx, sel, model.ReminderScheduled, now, now.Add(-staleAfter), limit)
    if err != nil {
        return nil, err
    }
    ids := make([]uint64, 0)
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            rows.Close()
            return nil, err
        }
        ids = append(ids, id)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(ids) == 0 {
        return ids, nil
    }

    args := make([]interface{}, 0, len(ids)+1)
    args = append(args, now)
    for _, id := range ids {
        args = append(args, id)
    }
    upd := "UPDATE reminders SET enqueued_at=? WHERE id IN (" + placeholders(len(ids)) + ")"
    if _, err := tx.ExecContext(ctx, upd, args...); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return ids, nil
}

// CreateForBooking inserts the reminder of a booking.  reminders has a
// unique key on booking_id; an existing reminder is left untouched and
// false is returned.
func (r *ReminderRepo) CreateForBooking(ctx context.Context, bookingID uint64, remindAt time.Time) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        "INSERT IGNORE INTO reminders (booking_id, status, remind_at) VALUES (?,?,?)",
        bookingID, model.ReminderScheduled, remindAt.UTC())
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
