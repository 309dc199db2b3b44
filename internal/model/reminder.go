package model

import "time"

type ReminderStatus string

const (
    ReminderScheduled ReminderStatus = "scheduled"
    ReminderSent      ReminderStatus = "sent"
    ReminderCancelled ReminderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s ReminderStatus) Terminal() bool {
    return s == ReminderSent || s == ReminderCancelled
}

// Reminder is a scheduled notification for one booking.  EnqueuedAt is
// stamped by the scheduler when a reminder task is handed to the queue
// so that the same due reminder is not published on every tick.
type Reminder struct {
    ID         uint64          // reminders.id
    BookingID  uint64          // reminders.booking_id
    Status     ReminderStatus  // reminders.status
    RemindAt   time.Time       // reminders.remind_at
    EnqueuedAt *time.Time      // reminders.enqueued_at (nullable)
    CreatedAt  time.Time       // reminders.created_at
    UpdatedAt  time.Time       // reminders.updated_at

    Booking Rel[Booking]
}
