package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/event-bookings/internal/model"
	"github.com/iliyamo/event-bookings/internal/queue"
)

// DueClaimer hands out due reminders.  ClaimDue marks the returned
// reminders as enqueued at now; a reminder whose stamp is older than
// staleAfter and which is still scheduled becomes due again.
type DueClaimer interface {
	ClaimDue(ctx context.Context, now time.Time, staleAfter time.Duration, limit int) ([]uint64, error)
}

// Scheduler periodically publishes reminder tasks for due reminders.
type Scheduler struct {
	Store      DueClaimer
	Queue      Enqueuer
	Interval   time.Duration
	StaleAfter time.Duration
	Batch      int
	Now        func() time.Time
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := s.Tick(ctx); err != nil {
			log.Printf("reminder-scheduler: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Tick claims one batch of due reminders and enqueues a task for each.
// It returns how many tasks were published.  A failed publish is left
// for the next claim after StaleAfter.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	batch := s.Batch
	if batch <= 0 {
		batch = 100
	}
	stale := s.StaleAfter
	if stale <= 0 {
		stale = 10 * time.Minute
	}
	ids, err := s.Store.ClaimDue(ctx, now().UTC(), stale, batch)
	if err != nil {
		return 0, fmt.Errorf("claim due reminders: %w", err)
	}
	published := 0
	for _, id := range ids {
		if err := s.Queue.Enqueue(ctx, queue.ReminderQueue, queue.ReminderTask{ReminderID: id}); err != nil {
			log.Printf("reminder-scheduler: enqueue reminder=%d failed: %v", id, err)
			continue
		}
		published++
	}
	return published, nil
}

// BookingSource loads a booking with its slot.
type BookingSource interface {
	LoadWithSlot(ctx context.Context, id uint64) (*model.Booking, error)
}

// ReminderCreator inserts the reminder of a booking.  It reports false
// when the booking already has one.
type ReminderCreator interface {
	CreateForBooking(ctx context.Context, bookingID uint64, remindAt time.Time) (bool, error)
}

// Planner schedules a reminder when a booking is confirmed.
type Planner struct {
	Bookings  BookingSource
	Reminders ReminderCreator
	LeadTime  time.Duration
	Now       func() time.Time
}

// Plan computes the reminder time of b.  It returns false when b is not
// confirmed or its slot has already started.
func (p *Planner) Plan(b model.Booking) (time.Time, bool) {
	if b.Status != model.BookingConfirmed {
		return time.Time{}, false
	}
	slot, ok := b.Slot.Get()
	if !ok || slot.StartsAt.IsZero() {
		return time.Time{}, false
	}
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now().UTC()
	}
	if !slot.StartsAt.After(now) {
		return time.Time{}, false
	}
	at := slot.StartsAt.Add(-p.LeadTime)
	if at.Before(now) {
		at = now
	}
	return at.UTC(), true
}

// HandleBookingConfirmed creates the reminder for a confirmed booking.
// Unknown bookings and repeats of the same event are no-ops.
func (p *Planner) HandleBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) (bool, error) {
	b, err := p.Bookings.LoadWithSlot(ctx, ev.BookingID)
	if err != nil {
		return false, fmt.Errorf("load booking %d: %w", ev.BookingID, err)
	}
	if b == nil {
		return false, nil
	}
	at, ok := p.Plan(*b)
	if !ok {
		return false, nil
	}
	created, err := p.Reminders.CreateForBooking(ctx, b.ID, at)
	if err != nil {
		return false, fmt.Errorf("create reminder for booking %d: %w", b.ID, err)
	}
	if created {
		log.Printf("reminder-planner: booking=%d remind_at=%s", b.ID, at.Format(time.RFC3339))
	}
	return created, nil
}

// Register binds the planner to the booking.confirmed queue.
func (p *Planner) Register(c *queue.Consumer) {
	c.Handle(queue.BookingConfirmedQueue, func(ctx context.Context, body []byte) error {
		ev, err := queue.Decode[queue.BookingConfirmedEvent](body)
		if err != nil {
			return err
		}
		_, err = p.HandleBookingConfirmed(ctx, ev)
		return err
	})
}
