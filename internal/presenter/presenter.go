// Package presenter projects a booking aggregate into the JSON views
// returned to customers and to admins or merchants.  Missing relations
// degrade to null or omitted fields; nothing in here returns an error.
package presenter

import (
	"time"

	"github.com/iliyamo/event-bookings/internal/model"
)

// DefaultTimezone is used when no display timezone is configured.
const DefaultTimezone = "Asia/Kuala_Lumpur"

const (
	dateLayout     = "02 Jan 2006"
	timeLayout     = "3:04 PM"
	dateTimeLayout = "02 Jan 2006 3:04 PM"
	rawDateLayout  = "2006-01-02"
	generalLabel   = "General"
)

// Presenter renders booking views in a fixed display timezone.  Both
// human formatted values and RFC 3339 timestamps use that zone.
type Presenter struct {
	loc *time.Location
}

// New returns a Presenter for loc.  A nil loc falls back to UTC.
func New(loc *time.Location) *Presenter {
	if loc == nil {
		loc = time.UTC
	}
	return &Presenter{loc: loc}
}

// Location returns the display timezone.
func (p *Presenter) Location() *time.Location { return p.loc }

func (p *Presenter) iso(t time.Time) string { return t.In(p.loc).Format(time.RFC3339) }

func (p *Presenter) isoPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := p.iso(*t)
	return &s
}

func (p *Presenter) date(t time.Time) string { return t.In(p.loc).Format(dateLayout) }

func (p *Presenter) clock(t time.Time) string { return t.In(p.loc).Format(timeLayout) }

func (p *Presenter) dateTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(p.loc).Format(dateTimeLayout)
	return &s
}

// ageGroupLabel resolves the label of a line item: its own age group,
// then the slot's first price tier, then "General".
func ageGroupLabel(li model.LineItem, b model.Booking) string {
	if ag, ok := li.AgeGroup.Get(); ok && ag.Label != "" {
		return ag.Label
	}
	if slot, ok := b.Slot.Get(); ok {
		if prices, ok := slot.Prices.Get(); ok && len(prices) > 0 {
			if l := prices[0].Label; l != nil && *l != "" {
				return *l
			}
		}
	}
	return generalLabel
}

// eventDate resolves the human display date of the booked occurrence.
func (p *Presenter) eventDate(b model.Booking) *string {
	slot, hasSlot := b.Slot.Get()
	ev, hasEvent := b.Event()
	if !hasEvent {
		return nil
	}
	if ev.IsRecurring {
		if !hasSlot || slot.Date.IsZero() {
			return nil
		}
		s := p.date(slot.Date)
		return &s
	}
	var start, end string
	if ev.StartDate != nil {
		start = p.date(*ev.StartDate)
	}
	if ev.EndDate != nil {
		end = p.date(*ev.EndDate)
	}
	var s string
	switch {
	case start == "" && end == "":
		return nil
	case start == "":
		s = end
	case end == "" || start == end:
		s = start
	default:
		s = start + " - " + end
	}
	return &s
}

type AttendanceSummary struct {
	Total    int `json:"total"`
	Attended int `json:"attended"`
	Pending  int `json:"pending"`
	Absent   int `json:"absent"`
}

func attendanceSummary(b model.Booking) AttendanceSummary {
	var s AttendanceSummary
	records, _ := b.Attendances.Get()
	for _, a := range records {
		s.Total++
		switch a.Status {
		case model.AttendanceAttended:
			s.Attended++
		case model.AttendancePending:
			s.Pending++
		case model.AttendanceAbsent:
			s.Absent++
		}
	}
	return s
}
