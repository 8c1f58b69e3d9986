package model

import (
	"time"

	"serenity/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID              = "id"
	FieldServiceID       = "service_id"
	FieldStaffID         = "staff_id"
	FieldRoomID          = "room_id"
	FieldBookingGroupID  = "booking_group_id"
	FieldCustomerName    = "customer_name"
	FieldCustomerEmail   = "customer_email"
	FieldCustomerPhone   = "customer_phone"
	FieldBookingDate     = "booking_date"
	FieldStartMinute     = "start_minute"
	FieldEndMinute       = "end_minute"
	FieldBufferStart     = "buffer_start"
	FieldBufferEnd       = "buffer_end"
	FieldStatus          = "status"
	FieldBookingType     = "booking_type"
	FieldNotes           = "notes"
	FieldCancelReason    = "cancel_reason"
	FieldRescheduledFrom = "rescheduled_from"
	FieldRescheduleCount = "reschedule_count"
)

const (
	StatusPending     = "pending"
	StatusConfirmed   = "confirmed"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
	StatusNoShow      = "no_show"
	StatusRescheduled = "rescheduled"
)

const (
	TypeSingle = "single"
	TypeCouple = "couple"
)

// transitions is the booking status state machine. A booking starts out
// pending; rescheduled and the terminal statuses have no outgoing edges.
var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// HoldsResources reports whether a booking in the given status still occupies
// its staff and room, and therefore participates in conflict detection.
func HoldsResources(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

// Booking is a reservation of one staff member and one room for a service
// on a calendar date. Times are stored as minutes from midnight; the buffer
// columns already include the turnaround padding around the treatment.
type Booking struct {
	ID              string    `db:"id"`
	ServiceID       string    `db:"service_id"`
	StaffID         string    `db:"staff_id"`
	RoomID          string    `db:"room_id"`
	BookingGroupID  *string   `db:"booking_group_id"`
	CustomerName    string    `db:"customer_name"`
	CustomerEmail   string    `db:"customer_email"`
	CustomerPhone   string    `db:"customer_phone"`
	BookingDate     time.Time `db:"booking_date"`
	StartMinute     int       `db:"start_minute"`
	EndMinute       int       `db:"end_minute"`
	BufferStart     int       `db:"buffer_start"`
	BufferEnd       int       `db:"buffer_end"`
	Status          string    `db:"status"`
	BookingType     string    `db:"booking_type"`
	Notes           string    `db:"notes"`
	CancelReason    string    `db:"cancel_reason"`
	RescheduledFrom *string   `db:"rescheduled_from"`
	RescheduleCount int       `db:"reschedule_count"`
	model.Metadata
}
