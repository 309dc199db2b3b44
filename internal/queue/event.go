// Package queue defines the task payloads exchanged over the message
// broker and the RabbitMQ publisher and consumer that carry them.
package queue

// Queue names double as task kinds.  Every queue is durable and uses
// the default exchange with the queue name as routing key.
const (
    BookingConfirmedQueue = "booking.confirmed"
    ReminderQueue         = "booking.reminders"
    PushQueue             = "notifications.push"
)

// Queues lists every queue the service declares.
func Queues() []string {
    return []string{BookingConfirmedQueue, ReminderQueue, PushQueue}
}

// BookingConfirmedEvent is published by the booking service when a
// booking moves to confirmed.  The planner uses it to schedule a
// reminder.
type BookingConfirmedEvent struct {
    BookingID   uint64 `json:"booking_id"`
    ConfirmedAt string `json:"confirmed_at"`
}

// ReminderTask asks a worker to process one scheduled reminder.
type ReminderTask struct {
    ReminderID uint64 `json:"reminder_id"`
}

// PushNotificationTask asks a worker to deliver a push notification to
// a customer's registered device.  DedupKey, when set, identifies the
// logical notification so redelivered copies are dropped.
type PushNotificationTask struct {
    CustomerID uint64            `json:"customer_id"`
    Title      string            `json:"title"`
    Body       string            `json:"body"`
    Data       map[string]string `json:"data"`
    DedupKey   string            `json:"dedup_key,omitempty"`
}
