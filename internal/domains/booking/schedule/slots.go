package schedule

import (
	"serenity/internal/domains/booking/model"
)

// DefaultSlotStep is the granularity of the availability grid in minutes.
const DefaultSlotStep = 15

// FreeStarts scans the business day in stepMinutes increments and returns
// every start minute at which at least one candidate pairing could host a
// treatment of the given duration without conflicts.
func FreeStarts(hours Hours, durationMinutes, stepMinutes int, candidates []Candidate, existing []model.Booking) []int {
	if stepMinutes <= 0 {
		stepMinutes = DefaultSlotStep
	}

	var starts []int

	for start := hours.Open; start+durationMinutes <= hours.Close; start += stepMinutes {
		slot, err := hours.ComputeSlot(start, durationMinutes)
		if err != nil {
			continue
		}

		for _, candidate := range candidates {
			if Detect(candidate.Staff.ID, candidate.Room.ID, slot.Buffered, existing).Empty() {
				starts = append(starts, start)

				break
			}
		}
	}

	return starts
}
