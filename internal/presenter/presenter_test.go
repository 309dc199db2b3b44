package presenter

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-bookings/internal/model"
)

func klPresenter(t *testing.T) *Presenter {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)
	return New(loc)
}

func ptr[T any](v T) *T { return &v }

func fixtureBooking() model.Booking {
	bookedAt := time.Date(2025, 2, 20, 16, 30, 0, 0, time.UTC)
	child := uint64(2)
	return model.Booking{
		ID:          41,
		CustomerID:  5,
		SlotID:      9,
		Status:      model.BookingConfirmed,
		Quantity:    3,
		BookedAt:    &bookedAt,
		BookingCode: "BK123",
		QRURL:       ptr("https://cdn.example.com/qr/BK123.png"),
		Customer: model.Loaded(model.Customer{
			ID: 5, Name: "Aina", Email: "aina@example.com", Phone: ptr("+60123456789"),
		}),
		Slot: model.Loaded(model.EventSlot{
			ID:       9,
			EventID:  3,
			Date:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			StartsAt: time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2025, 3, 1, 3, 30, 0, 0, time.UTC),
			Event: model.Loaded(model.Event{
				ID:          3,
				MerchantID:  8,
				Title:       "Yoga Class",
				Type:        "class",
				IsRecurring: true,
				Category:    model.Loaded(model.Category{ID: 1, Name: "Wellness"}),
				Location:    model.Loaded(model.Location{ID: 4, Name: "Bangsar Studio"}),
				Media:       model.Loaded([]model.Media{{ID: 1, URL: "https://cdn.example.com/a.jpg"}, {ID: 2, URL: "https://cdn.example.com/b.jpg"}}),
			}),
			Prices: model.Loaded([]model.SlotPrice{{ID: 1, Label: ptr("Adult"), PaidCredits: 20}}),
		}),
		LineItems: model.Loaded([]model.LineItem{
			{ID: 1, AgeGroupID: nil, Quantity: 2, PaidCredits: 20, FreeCredits: 5},
			{ID: 2, AgeGroupID: &child, Quantity: 1, PaidCredits: 10, FreeCredits: 0,
				AgeGroup: model.Loaded(model.AgeGroup{ID: child, Label: "Child"})},
		}),
		Transactions: model.Loaded([]model.CreditTransaction{
			{ID: 77, Type: "booking", BeforeFree: 10, BeforePaid: 100, DeltaFree: -10, DeltaPaid: -50,
				CreatedAt: time.Date(2025, 2, 20, 16, 30, 0, 0, time.UTC)},
		}),
		Attendances: model.Loaded([]model.Attendance{
			{ID: 1, Status: model.AttendanceAttended},
			{ID: 2, Status: model.AttendancePending},
			{ID: 3, Status: model.AttendanceAbsent},
		}),
	}
}

func TestCustomer_View(t *testing.T) {
	p := klPresenter(t)
	v := p.Customer(fixtureBooking())

	assert.Equal(t, uint64(41), v.ID)
	assert.Equal(t, uint64(41), v.BookingID)
	assert.Equal(t, "BK123", v.BookingCode)
	require.NotNil(t, v.BookedAt)
	assert.Equal(t, "2025-02-21T00:30:00+08:00", *v.BookedAt)
	assert.Nil(t, v.CancelledAt)

	require.NotNil(t, v.Slot)
	assert.Equal(t, "2025-03-01", v.Slot.Date)
	assert.Equal(t, "2025-03-01T10:00:00+08:00", v.Slot.StartTime)
	assert.Equal(t, "2025-03-01T11:30:00+08:00", v.Slot.EndTime)

	require.NotNil(t, v.Event)
	assert.Equal(t, "Yoga Class", v.Event.Title)
	assert.Equal(t, "Wellness", *v.Event.Category)
	assert.Equal(t, "Bangsar Studio", *v.Event.Location)
	assert.Equal(t, "https://cdn.example.com/a.jpg", *v.Event.MediaURL)

	require.Len(t, v.LineItems, 2)
	assert.Equal(t, "Adult", v.LineItems[0].AgeGroupLabel)
	assert.Equal(t, "Child", v.LineItems[1].AgeGroupLabel)

	require.NotNil(t, v.Transactions)
	txs := *v.Transactions
	require.Len(t, txs, 1)
	assert.Equal(t, int64(-50), txs[0].PaidCredits)
	assert.Equal(t, "2025-02-21T00:30:00+08:00", txs[0].CreatedAt)
}

func TestCustomer_LineItemTotals(t *testing.T) {
	p := klPresenter(t)
	b := fixtureBooking()
	for _, li := range p.Customer(b).LineItems {
		assert.Equal(t, li.PaidCredits*int64(li.Quantity), li.TotalPaidCredits)
		assert.Equal(t, li.FreeCredits*int64(li.Quantity), li.TotalFreeCredits)
	}
}

func TestCustomer_GeneralLabelFallback(t *testing.T) {
	p := klPresenter(t)
	b := fixtureBooking()
	slot, _ := b.Slot.Get()
	slot.Prices = model.Loaded([]model.SlotPrice{{ID: 1, Label: nil}})
	b.Slot = model.Loaded(slot)
	b.LineItems = model.Loaded([]model.LineItem{{ID: 1, Quantity: 1, PaidCredits: 5}})

	v := p.Customer(b)
	require.Len(t, v.LineItems, 1)
	assert.Equal(t, "General", v.LineItems[0].AgeGroupLabel)
	assert.Nil(t, v.LineItems[0].AgeGroupID)
}

func TestCustomer_UnloadedRelations(t *testing.T) {
	p := klPresenter(t)
	v := p.Customer(model.Booking{ID: 1, Status: model.BookingPending, Quantity: 1})

	assert.Nil(t, v.Slot)
	assert.Nil(t, v.Event)
	assert.Empty(t, v.LineItems)
	assert.Nil(t, v.Transactions)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	_, has := m["transactions"]
	assert.False(t, has)
	assert.Contains(t, m, "booked_at")
	assert.Nil(t, m["booked_at"])
	assert.Equal(t, []any{}, m["line_items"])
}

func TestAdmin_AdminSeesEverything(t *testing.T) {
	p := klPresenter(t)
	v := p.Admin(fixtureBooking(), model.RoleAdmin)

	items, ok := v.LineItems.([]AdminLineItem)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, int64(40), items[0].TotalPaidCredits)
	assert.Equal(t, int64(10), items[0].TotalFreeCredits)

	require.NotNil(t, v.Transactions)
	assert.Equal(t, "21 Feb 2025 12:30 AM", (*v.Transactions)[0].CreatedAt)

	require.NotNil(t, v.Customer)
	assert.Equal(t, "Aina", v.Customer.Name)
	assert.Equal(t, "+60123456789", *v.Customer.Phone)

	assert.Equal(t, AttendanceSummary{Total: 3, Attended: 1, Pending: 1, Absent: 1}, v.Attendance)
	assert.Equal(t, "21 Feb 2025 12:30 AM", *v.BookedAt)
}

func TestAdmin_MerchantSeesAggregateOnly(t *testing.T) {
	p := klPresenter(t)
	v := p.Admin(fixtureBooking(), model.RoleMerchant)

	agg, ok := v.LineItems.(MerchantLineItems)
	require.True(t, ok)
	assert.Equal(t, 3, agg.TotalQuantity)
	assert.Nil(t, v.Transactions)
	assert.Nil(t, v.Customer)
	assert.Equal(t, 3, v.Attendance.Total)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "transactions")
	assert.NotContains(t, m, "customer")
	assert.Equal(t, map[string]any{"total_quantity": float64(3)}, m["line_items"])
}

func TestAdmin_EveryRoleIsHandled(t *testing.T) {
	p := klPresenter(t)
	for _, role := range model.Roles() {
		v := p.Admin(fixtureBooking(), role)
		assert.NotNil(t, v.LineItems, role)
		if role != model.RoleAdmin {
			assert.Nil(t, v.Transactions, role)
			assert.Nil(t, v.Customer, role)
		}
	}
	v := p.Admin(fixtureBooking(), model.RoleCustomer)
	assert.Equal(t, []AdminLineItem{}, v.LineItems)
}

func TestAdmin_AdminWithoutLoadedTransactions(t *testing.T) {
	p := klPresenter(t)
	b := fixtureBooking()
	b.Transactions = model.Rel[[]model.CreditTransaction]{}
	b.Attendances = model.Rel[[]model.Attendance]{}

	v := p.Admin(b, model.RoleAdmin)
	assert.Nil(t, v.Transactions)
	assert.Equal(t, AttendanceSummary{}, v.Attendance)
}

func TestAdmin_SlotTimes(t *testing.T) {
	p := klPresenter(t)
	v := p.Admin(fixtureBooking(), model.RoleMerchant)
	require.NotNil(t, v.Slot)
	assert.Equal(t, "01 Mar 2025", v.Slot.Date)
	assert.Equal(t, "10:00 AM", v.Slot.StartTime)
	assert.Equal(t, "11:30 AM", v.Slot.EndTime)
}

func TestAdmin_EventDate(t *testing.T) {
	p := klPresenter(t)
	d := func(y int, m time.Month, day int) *time.Time {
		v := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		return &v
	}
	tests := []struct {
		description string
		recurring   bool
		start, end  *time.Time
		want        *string
	}{
		{description: "recurring uses slot date", recurring: true, start: d(2025, 1, 1), end: d(2025, 12, 31), want: ptr("01 Mar 2025")},
		{description: "one day event", start: d(2025, 4, 5), end: d(2025, 4, 5), want: ptr("05 Apr 2025")},
		{description: "date range", start: d(2025, 4, 5), end: d(2025, 4, 7), want: ptr("05 Apr 2025 - 07 Apr 2025")},
		{description: "start only", start: d(2025, 4, 5), want: ptr("05 Apr 2025")},
		{description: "no dates", want: nil},
	}
	for _, tt := range tests {
		b := fixtureBooking()
		slot, _ := b.Slot.Get()
		ev, _ := slot.Event.Get()
		ev.IsRecurring = tt.recurring
		ev.StartDate, ev.EndDate = tt.start, tt.end
		slot.Event = model.Loaded(ev)
		b.Slot = model.Loaded(slot)

		v := p.Admin(b, model.RoleAdmin)
		require.NotNilf(t, v.Event, tt.description)
		assert.Equalf(t, tt.want, v.Event.Date, tt.description)
	}
}

func TestNew_NilLocationIsUTC(t *testing.T) {
	p := New(nil)
	assert.Equal(t, time.UTC, p.Location())
	v := p.Customer(fixtureBooking())
	assert.Equal(t, "2025-02-20T16:30:00Z", *v.BookedAt)
}

func TestLists(t *testing.T) {
	p := klPresenter(t)
	bs := []model.Booking{fixtureBooking(), fixtureBooking()}
	assert.Len(t, p.CustomerList(bs), 2)
	assert.Len(t, p.AdminList(bs, model.RoleMerchant), 2)
	assert.Empty(t, p.CustomerList(nil))
}
