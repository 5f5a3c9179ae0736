package model

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// SlotStatus is the closed set of work statuses an availability slot can carry
type SlotStatus string

const (
	StatusAvailable SlotStatus = "available"
	StatusBusy      SlotStatus = "busy"
	StatusOnLeave   SlotStatus = "on-leave"
)

// ParseSlotStatus validates a raw status string against the closed set
func ParseSlotStatus(s string) (SlotStatus, error) {
	switch SlotStatus(s) {
	case StatusAvailable, StatusBusy, StatusOnLeave:
		return SlotStatus(s), nil
	}
	return "", fmt.Errorf("unknown slot status %q", s)
}

// Valid reports whether the status is one of the known values
func (s SlotStatus) Valid() bool {
	_, err := ParseSlotStatus(string(s))
	return err == nil
}

// Label returns the display label for the status. Adding a status means
// extending this switch; there is no fallback entry.
func (s SlotStatus) Label() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusBusy:
		return "Busy"
	case StatusOnLeave:
		return "On Leave"
	}
	return string(s)
}

// AvailabilitySlot is one date-bounded status window for a contractor.
// Bounds are inclusive calendar dates; From <= To holds for every stored
// slot. Overlap between independent slots of the same contractor is
// permitted.
type AvailabilitySlot struct {
	From   civil.Date `json:"from"`
	To     civil.Date `json:"to"`
	Status SlotStatus `json:"status"`
	Notes  string     `json:"notes,omitempty"`
}

// Days returns the inclusive day count covered by the slot
func (s AvailabilitySlot) Days() int {
	return s.To.DaysSince(s.From) + 1
}
