package model

import "time"

type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"
    BookingConfirmed BookingStatus = "confirmed"
    BookingCancelled BookingStatus = "cancelled"
    BookingRefunded  BookingStatus = "refunded"
)

// Booking is a customer's reservation of Quantity units of a slot.  It
// is the aggregate root for its line items, credit transactions and
// attendance records.
//
// Fields:
//  ID          – primary key identifier.
//  CustomerID  – owner of the booking.
//  SlotID      – booked event slot.
//  Status      – pending, confirmed, cancelled or refunded.
//  Quantity    – number of units booked (>= 1).
//  BookedAt    – confirmation time, nil while pending.
//  CancelledAt – cancellation time, nil unless cancelled.
//  BookingCode – opaque unique code shown to the customer.
//  QRURL       – URL of the rendered QR image.
type Booking struct {
    ID          uint64
    CustomerID  uint64
    SlotID      uint64
    Status      BookingStatus
    Quantity    int
    BookedAt    *time.Time
    CancelledAt *time.Time
    BookingCode string
    QRURL       *string

    Customer     Rel[Customer]
    Slot         Rel[EventSlot]
    LineItems    Rel[[]LineItem]
    Transactions Rel[[]CreditTransaction]
    Attendances  Rel[[]Attendance]
}

// Event returns the slot's event when both relations are loaded.
func (b Booking) Event() (Event, bool) {
    slot, ok := b.Slot.Get()
    if !ok {
        return Event{}, false
    }
    return slot.Event.Get()
}

// LineItem is one age-group tier of a booking.  Credit rates are per
// unit; totals are always derived, never stored.
type LineItem struct {
    ID          uint64
    AgeGroupID  *uint64
    Quantity    int
    PaidCredits int64
    FreeCredits int64

    AgeGroup Rel[AgeGroup]
}

func (li LineItem) TotalPaid() int64 { return li.PaidCredits * int64(li.Quantity) }
func (li LineItem) TotalFree() int64 { return li.FreeCredits * int64(li.Quantity) }

// CreditTransaction is an immutable ledger entry.  Before* are the
// balances prior to the change and Delta* the signed change.
type CreditTransaction struct {
    ID         uint64
    Type       string
    BeforeFree int64
    BeforePaid int64
    DeltaFree  int64
    DeltaPaid  int64
    CreatedAt  time.Time
}

func (t CreditTransaction) AfterFree() int64 { return t.BeforeFree + t.DeltaFree }
func (t CreditTransaction) AfterPaid() int64 { return t.BeforePaid + t.DeltaPaid }

type AttendanceStatus string

const (
    AttendancePending  AttendanceStatus = "pending"
    AttendanceAttended AttendanceStatus = "attended"
    AttendanceAbsent   AttendanceStatus = "absent"
)

// Attendance is a per-unit check-in record of a booking.
type Attendance struct {
    ID     uint64
    Status AttendanceStatus
}
