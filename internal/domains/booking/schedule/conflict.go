package schedule

import (
	"slices"

	"serenity/internal/domains/booking/model"
)

const (
	ResourceStaff = "staff"
	ResourceRoom  = "room"
)

// Conflict describes one existing booking that blocks a candidate slot on a
// single resource. Overlap is the shared portion of the two buffered
// intervals, formatted as HH:MM-HH:MM.
type Conflict struct {
	Resource   string `json:"resource"`
	ResourceID string `json:"resource_id"`
	BookingID  string `json:"booking_id"`
	Overlap    string `json:"overlap"`
}

// Report collects every conflict found for a candidate slot.
type Report struct {
	Conflicts []Conflict `json:"conflicts"`
}

// Empty reports whether the candidate slot is free on both resources.
func (r Report) Empty() bool {
	return len(r.Conflicts) == 0
}

// Merge appends the conflicts of another report.
func (r *Report) Merge(other Report) {
	r.Conflicts = append(r.Conflicts, other.Conflicts...)
}

// BufferedInterval returns the interval a booking blocks its resources for.
func BufferedInterval(booking model.Booking) TimeInterval {
	return TimeInterval{Start: booking.BufferStart, End: booking.BufferEnd}
}

// Detect checks a candidate buffered interval against the day's existing
// bookings for the given staff member and room. Only bookings that still
// hold their resources count; bookings listed in exclude (the booking being
// rescheduled, typically) are skipped entirely.
func Detect(staffID, roomID string, buffered TimeInterval, existing []model.Booking, exclude ...string) Report {
	var report Report

	for _, booked := range existing {
		if !model.HoldsResources(booked.Status) {
			continue
		}

		if slices.Contains(exclude, booked.ID) {
			continue
		}

		overlap, ok := buffered.Intersect(BufferedInterval(booked))
		if !ok {
			continue
		}

		if booked.StaffID == staffID {
			report.Conflicts = append(report.Conflicts, Conflict{
				Resource:   ResourceStaff,
				ResourceID: staffID,
				BookingID:  booked.ID,
				Overlap:    overlap.String(),
			})
		}

		if booked.RoomID == roomID {
			report.Conflicts = append(report.Conflicts, Conflict{
				Resource:   ResourceRoom,
				ResourceID: roomID,
				BookingID:  booked.ID,
				Overlap:    overlap.String(),
			})
		}
	}

	return report
}
