package dto

import (
	"time"

	"github.com/google/uuid"

	"serenity/internal/domains/booking/model"
	"serenity/internal/domains/booking/schedule"
	"serenity/shared"
	"serenity/shared/constant"
	gDto "serenity/shared/dto"
	gModel "serenity/shared/model"
	"serenity/shared/timezone"
)

// StaffAny is the wire sentinel for "any qualified staff member".
const StaffAny = "any"

type GrantBookingRequest struct {
	ServiceID     string `json:"service_id"     validate:"required,uuid"`
	StaffID       string `json:"staff_id"       validate:"omitempty"`
	Date          string `json:"date"           validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time"     validate:"required,datetime=15:04"`
	CustomerName  string `json:"customer_name"  validate:"required,max=100"`
	CustomerEmail string `json:"customer_email" validate:"required,email,max=100"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=20"`
	Notes         string `json:"notes"          validate:"omitempty,max=500"`
}

// Selector maps the wire staff preference to the engine's selector: empty
// or "any" means any qualified staff member.
func (c *GrantBookingRequest) Selector() schedule.StaffSelector {
	if c.StaffID == "" || c.StaffID == StaffAny {
		return schedule.AnyStaff()
	}

	return schedule.SpecificStaff(c.StaffID)
}

func (c *GrantBookingRequest) ToModel(user, staffID, roomID string, date time.Time, slot schedule.Slot) model.Booking {
	return model.Booking{
		ID:            uuid.NewString(),
		ServiceID:     c.ServiceID,
		StaffID:       staffID,
		RoomID:        roomID,
		CustomerName:  c.CustomerName,
		CustomerEmail: c.CustomerEmail,
		CustomerPhone: c.CustomerPhone,
		BookingDate:   date,
		StartMinute:   slot.Occupied.Start,
		EndMinute:     slot.Occupied.End,
		BufferStart:   slot.Buffered.Start,
		BufferEnd:     slot.Buffered.End,
		Status:        model.StatusPending,
		BookingType:   model.TypeSingle,
		Notes:         c.Notes,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// CoupleLeg is one half of a couples booking request.
type CoupleLeg struct {
	ServiceID string `json:"service_id" validate:"required,uuid"`
	StaffID   string `json:"staff_id"   validate:"omitempty"`
}

func (l CoupleLeg) Selector() schedule.StaffSelector {
	if l.StaffID == "" || l.StaffID == StaffAny {
		return schedule.AnyStaff()
	}

	return schedule.SpecificStaff(l.StaffID)
}

type GrantCoupleBookingRequest struct {
	Primary       CoupleLeg `json:"primary"        validate:"required"`
	Secondary     CoupleLeg `json:"secondary"      validate:"required"`
	Date          string    `json:"date"           validate:"required,datetime=2006-01-02"`
	StartTime     string    `json:"start_time"     validate:"required,datetime=15:04"`
	CustomerName  string    `json:"customer_name"  validate:"required,max=100"`
	CustomerEmail string    `json:"customer_email" validate:"required,email,max=100"`
	CustomerPhone string    `json:"customer_phone" validate:"omitempty,max=20"`
	Notes         string    `json:"notes"          validate:"omitempty,max=500"`
}

// LegModel builds the booking row for one leg of a couples grant. Both legs
// share the customer, date and booking group.
func (c *GrantCoupleBookingRequest) LegModel(user, groupID, serviceID, staffID, roomID string, date time.Time, slot schedule.Slot) model.Booking {
	return model.Booking{
		ID:             uuid.NewString(),
		ServiceID:      serviceID,
		StaffID:        staffID,
		RoomID:         roomID,
		BookingGroupID: &groupID,
		CustomerName:   c.CustomerName,
		CustomerEmail:  c.CustomerEmail,
		CustomerPhone:  c.CustomerPhone,
		BookingDate:    date,
		StartMinute:    slot.Occupied.Start,
		EndMinute:      slot.Occupied.End,
		BufferStart:    slot.Buffered.Start,
		BufferEnd:      slot.Buffered.End,
		Status:         model.StatusPending,
		BookingType:    model.TypeCouple,
		Notes:          c.Notes,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type RescheduleRequest struct {
	Date      string `json:"date"       validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled no_show"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type BookingResponse struct {
	ID              string `json:"id"`
	ServiceID       string `json:"service_id"`
	StaffID         string `json:"staff_id"`
	RoomID          string `json:"room_id"`
	BookingGroupID  string `json:"booking_group_id,omitempty"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	BufferStart     string `json:"buffer_start"`
	BufferEnd       string `json:"buffer_end"`
	Status          string `json:"status"`
	BookingType     string `json:"booking_type"`
	Notes           string `json:"notes,omitempty"`
	CancelReason    string `json:"cancel_reason,omitempty"`
	RescheduledFrom string `json:"rescheduled_from,omitempty"`
	RescheduleCount int    `json:"reschedule_count"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.ServiceID = model.ServiceID
	r.StaffID = model.StaffID
	r.RoomID = model.RoomID
	r.CustomerName = model.CustomerName
	r.CustomerEmail = model.CustomerEmail
	r.CustomerPhone = model.CustomerPhone
	r.Date = model.BookingDate.Format(constant.CalendarDateFormat)
	r.StartTime = schedule.FormatClock(model.StartMinute)
	r.EndTime = schedule.FormatClock(model.EndMinute)
	r.BufferStart = schedule.FormatClock(model.BufferStart)
	r.BufferEnd = schedule.FormatClock(model.BufferEnd)
	r.Status = model.Status
	r.BookingType = model.BookingType
	r.Notes = model.Notes
	r.CancelReason = model.CancelReason
	r.RescheduleCount = model.RescheduleCount

	if model.BookingGroupID != nil {
		r.BookingGroupID = *model.BookingGroupID
	}

	if model.RescheduledFrom != nil {
		r.RescheduledFrom = *model.RescheduledFrom
	}

	r.Metadata.FromModel(model.Metadata)
}

type CoupleBookingResponse struct {
	BookingGroupID string          `json:"booking_group_id"`
	Primary        BookingResponse `json:"primary"`
	Secondary      BookingResponse `json:"secondary"`
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type RescheduleValidationResponse struct {
	Allowed   bool                `json:"allowed"`
	Conflicts []schedule.Conflict `json:"conflicts,omitempty"`
}

type DayAvailabilityResponse struct {
	ServiceID string   `json:"service_id"`
	Date      string   `json:"date"`
	Slots     []string `json:"slots"`
}

// FromStarts converts free start minutes to HH:MM labels.
func (r *DayAvailabilityResponse) FromStarts(serviceID, date string, starts []int) {
	r.ServiceID = serviceID
	r.Date = date
	r.Slots = make([]string, len(starts))

	for i, start := range starts {
		r.Slots[i] = schedule.FormatClock(start)
	}
}

const (
	EventBookingCreated       = "booking.created"
	EventCoupleBookingCreated = "booking.couple_created"
	EventBookingRescheduled   = "booking.rescheduled"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is the payload fanned out to the CRM over Kafka.
type BookingEvent struct {
	EventType      string `json:"event_type"`
	BookingID      string `json:"booking_id"`
	BookingGroupID string `json:"booking_group_id,omitempty"`
	ServiceID      string `json:"service_id"`
	StaffID        string `json:"staff_id"`
	RoomID         string `json:"room_id"`
	CustomerEmail  string `json:"customer_email"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Status         string `json:"status"`
	OccurredAt     string `json:"occurred_at"`
}

func NewBookingEvent(eventType string, booking model.Booking) BookingEvent {
	event := BookingEvent{
		EventType:     eventType,
		BookingID:     booking.ID,
		ServiceID:     booking.ServiceID,
		StaffID:       booking.StaffID,
		RoomID:        booking.RoomID,
		CustomerEmail: booking.CustomerEmail,
		Date:          booking.BookingDate.Format(constant.CalendarDateFormat),
		StartTime:     schedule.FormatClock(booking.StartMinute),
		EndTime:       schedule.FormatClock(booking.EndMinute),
		Status:        booking.Status,
		OccurredAt:    timezone.Now().Format(time.RFC3339),
	}

	if booking.BookingGroupID != nil {
		event.BookingGroupID = *booking.BookingGroupID
	}

	return event
}
