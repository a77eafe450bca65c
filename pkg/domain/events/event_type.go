package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	EventTypeDonationCompleted EventType = "Donation.Completed"
	EventTypeDonationFailed    EventType = "Donation.Failed"
	EventTypeFundingMilestone  EventType = "Funding.Milestone"
	EventTypeFundingCompleted  EventType = "Funding.Completed"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is anything that can travel on the bus.
type Event interface {
	Type() string
}

// EventTypes maps wire names to constructors for transports that decode
// events from bytes.
var EventTypes = map[EventType]func() Event{
	EventTypeDonationCompleted: func() Event { return &DonationCompleted{} },
	EventTypeDonationFailed:    func() Event { return &DonationFailed{} },
	EventTypeFundingMilestone:  func() Event { return &FundingMilestone{} },
	EventTypeFundingCompleted:  func() Event { return &FundingCompleted{} },
}
