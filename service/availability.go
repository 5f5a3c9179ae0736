package service

import (
	"cloud.google.com/go/civil"

	"github.com/Bhati90/workw-sub001/model"
)

// Availability slot list operations. These are pure functions over a
// contractor's ordered slot list; the roster store applies them and writes
// the full replacement list back.

func validateSlotRange(from, to civil.Date) error {
	if from == (civil.Date{}) {
		return validationErr("from", "start date is required")
	}
	if to == (civil.Date{}) {
		return validationErr("to", "end date is required")
	}
	if to.Before(from) {
		return validationErr("to", "end date must not be before start date")
	}
	return nil
}

// AddSlot validates and appends a slot to the list. Overlap with existing
// slots is not checked; the system allows overlapping windows.
func AddSlot(slots []model.AvailabilitySlot, slot model.AvailabilitySlot) ([]model.AvailabilitySlot, error) {
	if err := validateSlotRange(slot.From, slot.To); err != nil {
		return nil, err
	}
	if !slot.Status.Valid() {
		return nil, validationErr("status", "unknown status")
	}

	out := make([]model.AvailabilitySlot, 0, len(slots)+1)
	out = append(out, slots...)
	out = append(out, slot)
	return out, nil
}

// DeleteSlot removes the entry at index. A stale index is ErrNotFound, not
// a panic.
func DeleteSlot(slots []model.AvailabilitySlot, index int) ([]model.AvailabilitySlot, error) {
	if index < 0 || index >= len(slots) {
		return nil, ErrNotFound
	}

	out := make([]model.AvailabilitySlot, 0, len(slots)-1)
	out = append(out, slots[:index]...)
	out = append(out, slots[index+1:]...)
	return out, nil
}

// SplitSlot replaces the slot at index with 1-3 slots covering exactly the
// same dates: an optional left remainder keeping the original status and
// notes, the edited sub-range, and an optional right remainder. The edited
// range must lie within the original slot's bounds; a window outside
// existing coverage is a new slot, not an edit.
func SplitSlot(slots []model.AvailabilitySlot, index int, edit model.AvailabilitySlot) ([]model.AvailabilitySlot, error) {
	if index < 0 || index >= len(slots) {
		return nil, ErrNotFound
	}
	if err := validateSlotRange(edit.From, edit.To); err != nil {
		return nil, err
	}
	if !edit.Status.Valid() {
		return nil, validationErr("status", "unknown status")
	}

	original := slots[index]
	if edit.From.Before(original.From) || edit.To.After(original.To) {
		return nil, validationErr("range", "edited dates must stay within the original slot; use add availability for new windows")
	}

	pieces := make([]model.AvailabilitySlot, 0, 3)
	if original.From.Before(edit.From) {
		pieces = append(pieces, model.AvailabilitySlot{
			From:   original.From,
			To:     edit.From.AddDays(-1),
			Status: original.Status,
			Notes:  original.Notes,
		})
	}
	pieces = append(pieces, edit)
	if edit.To.Before(original.To) {
		pieces = append(pieces, model.AvailabilitySlot{
			From:   edit.To.AddDays(1),
			To:     original.To,
			Status: original.Status,
			Notes:  original.Notes,
		})
	}

	out := make([]model.AvailabilitySlot, 0, len(slots)+len(pieces)-1)
	out = append(out, slots[:index]...)
	out = append(out, pieces...)
	out = append(out, slots[index+1:]...)
	return out, nil
}
