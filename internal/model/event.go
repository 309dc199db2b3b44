package model

import "time"

// Event is a merchant's published event.  Recurring events resolve their
// display date from the booked slot; one-time events use StartDate and
// EndDate.
type Event struct {
    ID          uint64
    MerchantID  uint64
    Title       string
    Type        string
    IsRecurring bool
    StartDate   *time.Time
    EndDate     *time.Time

    Category Rel[Category]
    Location Rel[Location]
    Media    Rel[[]Media]
}

type Category struct {
    ID   uint64
    Name string
}

type Location struct {
    ID   uint64
    Name string
}

// Media is an uploaded image or video of an event.  Ordering follows the
// repository's sort order so the first element is the cover.
type Media struct {
    ID  uint64
    URL string
}

// EventSlot is a scheduled occurrence of an event.  Date is the calendar
// day at UTC midnight; StartsAt and EndsAt are absolute instants.
type EventSlot struct {
    ID       uint64
    EventID  uint64
    Date     time.Time
    StartsAt time.Time
    EndsAt   time.Time

    Event  Rel[Event]
    Prices Rel[[]SlotPrice]
}

// SlotPrice is one pricing tier of a slot, usually tied to an age group.
type SlotPrice struct {
    ID          uint64
    AgeGroupID  *uint64
    Label       *string
    PaidCredits int64
    FreeCredits int64
}

type AgeGroup struct {
    ID    uint64
    Label string
}
