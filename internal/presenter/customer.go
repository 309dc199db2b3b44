package presenter

import "github.com/iliyamo/event-bookings/internal/model"

// CustomerBooking is the booking as returned to the customer who owns it.
type CustomerBooking struct {
	ID           uint64                 `json:"id"`
	BookingID    uint64                 `json:"booking_id"`
	BookingCode  string                 `json:"booking_code"`
	Status       model.BookingStatus    `json:"status"`
	Quantity     int                    `json:"quantity"`
	BookedAt     *string                `json:"booked_at"`
	CancelledAt  *string                `json:"cancelled_at"`
	QRURL        *string                `json:"qr_url"`
	Slot         *CustomerSlot          `json:"slot"`
	Event        *CustomerEvent         `json:"event"`
	LineItems    []CustomerLineItem     `json:"line_items"`
	Transactions *[]CustomerTransaction `json:"transactions,omitempty"`
}

type CustomerSlot struct {
	ID        uint64 `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CustomerEvent struct {
	ID       uint64  `json:"id"`
	Title    string  `json:"title"`
	Type     string  `json:"type"`
	Category *string `json:"category"`
	Location *string `json:"location"`
	MediaURL *string `json:"media_url"`
}

type CustomerLineItem struct {
	AgeGroupID       *uint64 `json:"age_group_id"`
	AgeGroupLabel    string  `json:"age_group_label"`
	Quantity         int     `json:"quantity"`
	PaidCredits      int64   `json:"paid_credits"`
	FreeCredits      int64   `json:"free_credits"`
	TotalPaidCredits int64   `json:"total_paid_credits"`
	TotalFreeCredits int64   `json:"total_free_credits"`
}

// CustomerTransaction carries the raw ledger values; the customer app
// computes balances itself.
type CustomerTransaction struct {
	ID                uint64 `json:"id"`
	Type              string `json:"type"`
	BeforeFreeCredits int64  `json:"before_free_credits"`
	BeforePaidCredits int64  `json:"before_paid_credits"`
	FreeCredits       int64  `json:"free_credits"`
	PaidCredits       int64  `json:"paid_credits"`
	CreatedAt         string `json:"created_at"`
}

// Customer projects b into the customer view.
func (p *Presenter) Customer(b model.Booking) CustomerBooking {
	out := CustomerBooking{
		ID:          b.ID,
		BookingID:   b.ID,
		BookingCode: b.BookingCode,
		Status:      b.Status,
		Quantity:    b.Quantity,
		BookedAt:    p.isoPtr(b.BookedAt),
		CancelledAt: p.isoPtr(b.CancelledAt),
		QRURL:       b.QRURL,
		LineItems:   []CustomerLineItem{},
	}
	if slot, ok := b.Slot.Get(); ok {
		out.Slot = &CustomerSlot{
			ID:        slot.ID,
			Date:      slot.Date.Format(rawDateLayout),
			StartTime: p.iso(slot.StartsAt),
			EndTime:   p.iso(slot.EndsAt),
		}
	}
	if ev, ok := b.Event(); ok {
		out.Event = customerEvent(ev)
	}
	items, _ := b.LineItems.Get()
	for _, li := range items {
		out.LineItems = append(out.LineItems, CustomerLineItem{
			AgeGroupID:       li.AgeGroupID,
			AgeGroupLabel:    ageGroupLabel(li, b),
			Quantity:         li.Quantity,
			PaidCredits:      li.PaidCredits,
			FreeCredits:      li.FreeCredits,
			TotalPaidCredits: li.TotalPaid(),
			TotalFreeCredits: li.TotalFree(),
		})
	}
	if txs, ok := b.Transactions.Get(); ok {
		list := make([]CustomerTransaction, 0, len(txs))
		for _, tx := range txs {
			list = append(list, CustomerTransaction{
				ID:                tx.ID,
				Type:              tx.Type,
				BeforeFreeCredits: tx.BeforeFree,
				BeforePaidCredits: tx.BeforePaid,
				FreeCredits:       tx.DeltaFree,
				PaidCredits:       tx.DeltaPaid,
				CreatedAt:         p.iso(tx.CreatedAt),
			})
		}
		out.Transactions = &list
	}
	return out
}

// CustomerList projects a collection of bookings.
func (p *Presenter) CustomerList(bs []model.Booking) []CustomerBooking {
	out := make([]CustomerBooking, 0, len(bs))
	for _, b := range bs {
		out = append(out, p.Customer(b))
	}
	return out
}

func customerEvent(ev model.Event) *CustomerEvent {
	ce := &CustomerEvent{ID: ev.ID, Title: ev.Title, Type: ev.Type}
	if c, ok := ev.Category.Get(); ok {
		name := c.Name
		ce.Category = &name
	}
	if l, ok := ev.Location.Get(); ok {
		name := l.Name
		ce.Location = &name
	}
	if media, ok := ev.Media.Get(); ok && len(media) > 0 {
		u := media[0].URL
		ce.MediaURL = &u
	}
	return ce
}
