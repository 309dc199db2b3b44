// Package reminder runs the booking reminder pipeline: a reminder task
// that checks booking state and hands a push notification task to the
// queue, and the push task that delivers it to the customer's device.
package reminder

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/iliyamo/event-bookings/internal/model"
	"github.com/iliyamo/event-bookings/internal/queue"
)

// ReminderStore loads and transitions reminders.
type ReminderStore interface {
	// LoadWithChain returns the reminder with booking, customer, slot and
	// event loaded, or nil when the reminder does not exist.
	LoadWithChain(ctx context.Context, id uint64) (*model.Reminder, error)
	// TransitionStatus moves the reminder from one status to another only
	// if it is still in from.  It reports whether the row changed.
	TransitionStatus(ctx context.Context, id uint64, from, to model.ReminderStatus) (bool, error)
}

// CustomerStore looks up push recipients.  A missing customer is
// reported as nil, nil.
type CustomerStore interface {
	FindCustomer(ctx context.Context, id uint64) (*model.Customer, error)
}

// Enqueuer hands a task to the work queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind string, payload any) error
}

// PushGateway delivers a notification to a device token.
type PushGateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Deduper records which notifications were already delivered.  Claim
// returns false when key was claimed before.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Pipeline implements both stages.  Dedup is optional.
type Pipeline struct {
	Reminders ReminderStore
	Customers CustomerStore
	Queue     Enqueuer
	Gateway   PushGateway
	Dedup     Deduper
}

// NewPipeline wires a Pipeline.  dedup may be nil.
func NewPipeline(reminders ReminderStore, customers CustomerStore, q Enqueuer, gw PushGateway, dedup Deduper) *Pipeline {
	if reminders == nil || customers == nil || q == nil || gw == nil {
		panic("nil dependency passed to NewPipeline")
	}
	return &Pipeline{Reminders: reminders, Customers: customers, Queue: q, Gateway: gw, Dedup: dedup}
}

// Outcome reports what HandleReminder did.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSent      Outcome = "sent"
)

// HandleReminder processes one reminder.  Missing or already settled
// reminders are skipped.  A reminder whose booking is gone or no longer
// confirmed is cancelled.  Otherwise the push task is enqueued and the
// reminder is marked sent; delivery in the push stage is not awaited.
func (p *Pipeline) HandleReminder(ctx context.Context, task queue.ReminderTask) (Outcome, error) {
	r, err := p.Reminders.LoadWithChain(ctx, task.ReminderID)
	if err != nil {
		return "", fmt.Errorf("load reminder %d: %w", task.ReminderID, err)
	}
	if r == nil || r.Status != model.ReminderScheduled {
		return OutcomeSkipped, nil
	}

	b, ok := r.Booking.Get()
	if !ok || b.Status != model.BookingConfirmed {
		changed, err := p.Reminders.TransitionStatus(ctx, r.ID, model.ReminderScheduled, model.ReminderCancelled)
		if err != nil {
			return "", fmt.Errorf("cancel reminder %d: %w", r.ID, err)
		}
		if !changed {
			return OutcomeSkipped, nil
		}
		log.Printf("reminder: cancelled reminder=%d booking_status=%q", r.ID, b.Status)
		return OutcomeCancelled, nil
	}

	push := Compose(r.ID, b)
	if err := p.Queue.Enqueue(ctx, queue.PushQueue, push); err != nil {
		return "", fmt.Errorf("enqueue push for reminder %d: %w", r.ID, err)
	}
	changed, err := p.Reminders.TransitionStatus(ctx, r.ID, model.ReminderScheduled, model.ReminderSent)
	if err != nil {
		return "", fmt.Errorf("mark reminder %d sent: %w", r.ID, err)
	}
	if !changed {
		// Another worker settled it first; the dedup key on the push task
		// keeps the customer from being notified twice.
		return OutcomeSkipped, nil
	}
	log.Printf("reminder: sent reminder=%d booking=%d customer=%d", r.ID, b.ID, b.CustomerID)
	return OutcomeSent, nil
}

// Compose builds the push notification for a confirmed booking.
func Compose(reminderID uint64, b model.Booking) queue.PushNotificationTask {
	code := b.BookingCode
	if code == "" {
		code = "N/A"
	}
	title := "Event"
	if ev, ok := b.Event(); ok && ev.Title != "" {
		title = ev.Title
	}
	return queue.PushNotificationTask{
		CustomerID: b.CustomerID,
		Title:      "Reminder: Booking " + code,
		Body:       fmt.Sprintf("Your booking for '%s' is coming up soon.", title),
		Data: map[string]string{
			"booking_id":   strconv.FormatUint(b.ID, 10),
			"booking_code": b.BookingCode,
		},
		DedupKey: DedupKey(reminderID),
	}
}

// DedupKey is the push dedup key of a reminder.
func DedupKey(reminderID uint64) string {
	return "reminder:" + strconv.FormatUint(reminderID, 10)
}

// HandlePush delivers one push notification.  Customers without a
// reachable device are skipped silently.  Gateway errors are returned
// so the queue can retry.
func (p *Pipeline) HandlePush(ctx context.Context, task queue.PushNotificationTask) (bool, error) {
	c, err := p.Customers.FindCustomer(ctx, task.CustomerID)
	if err != nil {
		return false, fmt.Errorf("load customer %d: %w", task.CustomerID, err)
	}
	if c == nil || !c.HasPushToken() {
		return false, nil
	}

	if p.Dedup != nil && task.DedupKey != "" {
		first, err := p.Dedup.Claim(ctx, task.DedupKey)
		if err != nil {
			return false, fmt.Errorf("claim %s: %w", task.DedupKey, err)
		}
		if !first {
			log.Printf("push: duplicate %s dropped", task.DedupKey)
			return false, nil
		}
	}

	if err := p.Gateway.Send(ctx, *c.PushToken, task.Title, task.Body, task.Data); err != nil {
		if p.Dedup != nil && task.DedupKey != "" {
			if rerr := p.Dedup.Release(ctx, task.DedupKey); rerr != nil {
				log.Printf("push: release %s failed: %v", task.DedupKey, rerr)
			}
		}
		return false, fmt.Errorf("push to customer %d: %w", task.CustomerID, err)
	}
	return true, nil
}

// Register binds both stages to their queues on c.
func (p *Pipeline) Register(c *queue.Consumer) {
	c.Handle(queue.ReminderQueue, p.reminderHandler)
	c.Handle(queue.PushQueue, p.pushHandler)
}

func (p *Pipeline) reminderHandler(ctx context.Context, body []byte) error {
	task, err := queue.Decode[queue.ReminderTask](body)
	if err != nil {
		return err
	}
	_, err = p.HandleReminder(ctx, task)
	return err
}

func (p *Pipeline) pushHandler(ctx context.Context, body []byte) error {
	task, err := queue.Decode[queue.PushNotificationTask](body)
	if err != nil {
		return err
	}
	_, err = p.HandlePush(ctx, task)
	return err
}
