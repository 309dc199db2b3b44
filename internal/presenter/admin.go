package presenter

import "github.com/iliyamo/event-bookings/internal/model"

// AdminBooking is the booking as seen from the back office.  The same
// shape serves admins and merchants; which fields are filled depends on
// the requesting role.
type AdminBooking struct {
	ID           uint64              `json:"id"`
	BookingCode  string              `json:"booking_code"`
	Status       model.BookingStatus `json:"status"`
	Quantity     int                 `json:"quantity"`
	BookedAt     *string             `json:"booked_at"`
	CancelledAt  *string             `json:"cancelled_at"`
	QRURL        *string             `json:"qr_url"`
	Event        *AdminEvent         `json:"event"`
	Slot         *AdminSlot          `json:"slot"`
	LineItems    any                 `json:"line_items"`
	Transactions *[]AdminTransaction `json:"transactions,omitempty"`
	Customer     *AdminCustomer      `json:"customer,omitempty"`
	Attendance   AttendanceSummary   `json:"attendance"`
}

type AdminEvent struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	IsRecurring bool    `json:"is_recurring"`
	Date        *string `json:"date"`
}

type AdminSlot struct {
	ID        uint64 `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AdminLineItem struct {
	AgeGroupID       *uint64 `json:"age_group_id"`
	AgeGroupLabel    string  `json:"age_group_label"`
	Quantity         int     `json:"quantity"`
	PaidCredits      int64   `json:"paid_credits"`
	FreeCredits      int64   `json:"free_credits"`
	TotalPaidCredits int64   `json:"total_paid_credits"`
	TotalFreeCredits int64   `json:"total_free_credits"`
}

// MerchantLineItems is the only line item figure a merchant sees.
type MerchantLineItems struct {
	TotalQuantity int `json:"total_quantity"`
}

type AdminTransaction struct {
	ID                uint64 `json:"id"`
	Type              string `json:"type"`
	BeforeFreeCredits int64  `json:"before_free_credits"`
	BeforePaidCredits int64  `json:"before_paid_credits"`
	FreeCredits       int64  `json:"free_credits"`
	PaidCredits       int64  `json:"paid_credits"`
	CreatedAt         string `json:"created_at"`
}

type AdminCustomer struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	ProfilePicture *string `json:"profile_picture"`
}

// Admin projects b for the given back office role.  Billing and
// personal data are only disclosed to admins.
func (p *Presenter) Admin(b model.Booking, role model.Role) AdminBooking {
	out := AdminBooking{
		ID:          b.ID,
		BookingCode: b.BookingCode,
		Status:      b.Status,
		Quantity:    b.Quantity,
		BookedAt:    p.dateTimePtr(b.BookedAt),
		CancelledAt: p.dateTimePtr(b.CancelledAt),
		QRURL:       b.QRURL,
		Attendance:  attendanceSummary(b),
	}
	slot, hasSlot := b.Slot.Get()
	if hasSlot {
		out.Slot = &AdminSlot{
			ID:        slot.ID,
			Date:      p.date(slot.Date),
			StartTime: p.clock(slot.StartsAt),
			EndTime:   p.clock(slot.EndsAt),
		}
	}
	if ev, ok := b.Event(); ok {
		out.Event = &AdminEvent{
			ID:          ev.ID,
			Title:       ev.Title,
			Type:        ev.Type,
			IsRecurring: ev.IsRecurring,
			Date:        p.eventDate(b),
		}
	}

	switch role {
	case model.RoleAdmin:
		out.LineItems = adminLineItems(b)
		out.Transactions = p.adminTransactions(b)
		out.Customer = adminCustomer(b)
	case model.RoleMerchant:
		out.LineItems = merchantLineItems(b)
	case model.RoleCustomer:
		out.LineItems = []AdminLineItem{}
	default:
		out.LineItems = []AdminLineItem{}
	}
	return out
}

// AdminList projects a collection of bookings for role.
func (p *Presenter) AdminList(bs []model.Booking, role model.Role) []AdminBooking {
	out := make([]AdminBooking, 0, len(bs))
	for _, b := range bs {
		out = append(out, p.Admin(b, role))
	}
	return out
}

func adminLineItems(b model.Booking) []AdminLineItem {
	items, _ := b.LineItems.Get()
	out := make([]AdminLineItem, 0, len(items))
	for _, li := range items {
		out = append(out, AdminLineItem{
			AgeGroupID:       li.AgeGroupID,
			AgeGroupLabel:    ageGroupLabel(li, b),
			Quantity:         li.Quantity,
			PaidCredits:      li.PaidCredits,
			FreeCredits:      li.FreeCredits,
			TotalPaidCredits: li.TotalPaid(),
			TotalFreeCredits: li.TotalFree(),
		})
	}
	return out
}

func merchantLineItems(b model.Booking) MerchantLineItems {
	items, _ := b.LineItems.Get()
	var total int
	for _, li := range items {
		total += li.Quantity
	}
	return MerchantLineItems{TotalQuantity: total}
}

func (p *Presenter) adminTransactions(b model.Booking) *[]AdminTransaction {
	txs, ok := b.Transactions.Get()
	if !ok {
		return nil
	}
	out := make([]AdminTransaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, AdminTransaction{
			ID:                tx.ID,
			Type:              tx.Type,
			BeforeFreeCredits: tx.BeforeFree,
			BeforePaidCredits: tx.BeforePaid,
			FreeCredits:       tx.DeltaFree,
			PaidCredits:       tx.DeltaPaid,
			CreatedAt:         *p.dateTimePtr(&tx.CreatedAt),
		})
	}
	return &out
}

func adminCustomer(b model.Booking) *AdminCustomer {
	c, ok := b.Customer.Get()
	if !ok {
		return nil
	}
	return &AdminCustomer{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		ProfilePicture: c.ProfilePicture,
	}
}
