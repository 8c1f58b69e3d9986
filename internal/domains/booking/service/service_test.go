package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"serenity/config"
	kafkaMocks "serenity/infras/kafka/mocks"
	"serenity/infras/otel/mocks"
	bookingMocks "serenity/internal/domains/booking/mocks"
	"serenity/internal/domains/booking/model"
	"serenity/internal/domains/booking/model/dto"
	"serenity/internal/domains/booking/service"
	catalogMocks "serenity/internal/domains/catalog/mocks"
	catalogModel "serenity/internal/domains/catalog/model"
	cacheMocks "serenity/shared/cache/mocks"
	"serenity/shared/constant"
	gDto "serenity/shared/dto"
	"serenity/shared/failure"
	gModel "serenity/shared/model"
	"serenity/shared/timezone"
)

type bookingFixture struct {
	repo        *bookingMocks.MockBooking
	serviceRepo *catalogMocks.MockService
	staffRepo   *catalogMocks.MockStaff
	roomRepo    *catalogMocks.MockRoom
	cache       *cacheMocks.MockRedisCache
	kafka       *kafkaMocks.MockClient
	svc         service.Booking
}

func newBookingFixture(ctrl *gomock.Controller) *bookingFixture {
	f := &bookingFixture{
		repo:        bookingMocks.NewMockBooking(ctrl),
		serviceRepo: catalogMocks.NewMockService(ctrl),
		staffRepo:   catalogMocks.NewMockStaff(ctrl),
		roomRepo:    catalogMocks.NewMockRoom(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
		kafka:       kafkaMocks.NewMockClient(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.BusinessOpen = "09:00"
	cfg.Booking.BusinessClose = "20:00"
	cfg.Booking.BufferMinutes = 15
	cfg.Booking.MinAdvanceMinutes = 120
	cfg.Booking.AbandonAfterMinutes = 30
	cfg.Kafka.Topics.BookingEvents = "crm.booking-events"

	f.svc = service.New(f.repo, f.serviceRepo, f.staffRepo, f.roomRepo, cfg, f.cache, mocks.NewOtel(), f.kafka)

	// Cache invalidation and event fan-out run off the request goroutine.
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func (f *bookingFixture) inTransaction() *gomock.Call {
	return f.repo.EXPECT().
		InTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(*sqlx.Tx) error) error {
			return fn(nil)
		})
}

func massageService(id string, duration int) catalogModel.Service {
	return catalogModel.Service{
		ID:              id,
		Name:            "Deep Tissue Massage",
		Category:        catalogModel.CategoryMassage,
		DurationMinutes: duration,
		Price:           120,
		Active:          true,
	}
}

func massageStaff(id, name, defaultRoomID string) catalogModel.Staff {
	return catalogModel.Staff{
		ID:            id,
		Name:          name,
		Capabilities:  pq.StringArray{catalogModel.CategoryMassage},
		WorkDays:      pq.Int64Array{1, 2, 3, 4, 5, 6, 7},
		DefaultRoomID: &defaultRoomID,
		Active:        true,
	}
}

func massageRoom(id, name string) catalogModel.Room {
	return catalogModel.Room{
		ID:                  id,
		Name:                name,
		SupportedCategories: pq.StringArray{catalogModel.CategoryMassage},
		Active:              true,
	}
}

func heldBooking(id, staffID, roomID string, start, end int) model.Booking {
	return model.Booking{
		ID:          id,
		ServiceID:   "service-1",
		StaffID:     staffID,
		RoomID:      roomID,
		BookingDate: mustDate("2030-06-10"),
		StartMinute: start,
		EndMinute:   end,
		BufferStart: start - 15,
		BufferEnd:   end + 15,
		Status:      model.StatusConfirmed,
		BookingType: model.TypeSingle,
	}
}

func mustDate(value string) time.Time {
	date, err := timezone.Parse(constant.CalendarDateFormat, value)
	if err != nil {
		panic(err)
	}

	return date
}

func userContext() context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user-id")
}

func TestBookingService_Grant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := dto.GrantBookingRequest{
		ServiceID:     "service-1",
		Date:          "2030-06-10",
		StartTime:     "10:00",
		CustomerName:  "Mia Chen",
		CustomerEmail: "mia@example.com",
	}

	tests := []struct {
		name      string
		req       dto.GrantBookingRequest
		setupMock func(f *bookingFixture)
		wantErr   bool
		wantCode  int
		check     func(t *testing.T, res dto.BookingResponse)
	}{
		{
			name: "grants first conflict-free candidate",
			req:  req,
			setupMock: func(f *bookingFixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
				f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
				f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Room{massageRoom("room-1", "Lotus")}, nil)

				f.inTransaction()
				f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, res dto.BookingResponse) {
				assert.Equal(t, "staff-1", res.StaffID)
				assert.Equal(t, "room-1", res.RoomID)
				assert.Equal(t, "10:00", res.StartTime)
				assert.Equal(t, "11:00", res.EndTime)
				assert.Equal(t, "09:45", res.BufferStart)
				assert.Equal(t, "11:15", res.BufferEnd)
				assert.Equal(t, model.StatusPending, res.Status)
				assert.Equal(t, model.TypeSingle, res.BookingType)
			},
		},
		{
			name: "rejects when buffer zones collide",
			req:  req,
			setupMock: func(f *bookingFixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
				f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
				f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Room{massageRoom("room-1", "Lotus")}, nil)

				f.inTransaction()
				// held-1 occupies the only staff and room at the requested time.
				f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{heldBooking("held-1", "staff-1", "room-1", 600, 660)}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "cancelled bookings release their slot",
			req:  req,
			setupMock: func(f *bookingFixture) {
				released := heldBooking("held-1", "staff-1", "room-1", 600, 660)
				released.Status = model.StatusCancelled

				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
				f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
				f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Room{massageRoom("room-1", "Lotus")}, nil)

				f.inTransaction()
				f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Booking{released}, nil)
				f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, res dto.BookingResponse) {
				assert.Equal(t, "10:00", res.StartTime)
			},
		},
		{
			name: "unknown service",
			req:  req,
			setupMock: func(f *bookingFixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(catalogModel.Service{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "requested staff member not working",
			req: dto.GrantBookingRequest{
				ServiceID:     "service-1",
				StaffID:       "staff-absent",
				Date:          "2030-06-10",
				StartTime:     "10:00",
				CustomerName:  "Mia Chen",
				CustomerEmail: "mia@example.com",
			},
			setupMock: func(f *bookingFixture) {
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
				f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
				f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Room{massageRoom("room-1", "Lotus")}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "start outside business hours",
			req: dto.GrantBookingRequest{
				ServiceID:     "service-1",
				Date:          "2030-06-10",
				StartTime:     "19:30",
				CustomerName:  "Mia Chen",
				CustomerEmail: "mia@example.com",
			},
			setupMock: func(f *bookingFixture) {
				// 19:30 + 60 minutes runs past closing.
				f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(ctrl)
			tt.setupMock(f)

			res, err := f.svc.Grant(userContext(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)

			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestBookingService_Grant_RetriesOnceOnSerializationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	req := dto.GrantBookingRequest{
		ServiceID:     "service-1",
		Date:          "2030-06-10",
		StartTime:     "10:00",
		CustomerName:  "Mia Chen",
		CustomerEmail: "mia@example.com",
	}

	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
	f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
	f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Room{massageRoom("room-1", "Lotus")}, nil)

	raced := &pq.Error{Code: constant.PqErrorCodeSerializationFailure}

	gomock.InOrder(
		f.repo.EXPECT().InTransaction(gomock.Any(), gomock.Any()).Return(raced),
		f.inTransaction(),
	)
	f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	res, err := f.svc.Grant(userContext(), req)

	assert.NoError(t, err)
	assert.Equal(t, "staff-1", res.StaffID)
}

func TestBookingService_Grant_BoundedRetryGivesUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	req := dto.GrantBookingRequest{
		ServiceID:     "service-1",
		Date:          "2030-06-10",
		StartTime:     "10:00",
		CustomerName:  "Mia Chen",
		CustomerEmail: "mia@example.com",
	}

	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
	f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
	f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Room{massageRoom("room-1", "Lotus")}, nil)

	raced := &pq.Error{Code: constant.PqErrorCodeExclusionViolation}

	f.repo.EXPECT().InTransaction(gomock.Any(), gomock.Any()).Return(raced).Times(2)

	_, err := f.svc.Grant(userContext(), req)

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	assert.Contains(t, err.Error(), "no available slot")
}

func TestBookingService_GrantCouple(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	req := dto.GrantCoupleBookingRequest{
		Primary:       dto.CoupleLeg{ServiceID: "service-1"},
		Secondary:     dto.CoupleLeg{ServiceID: "service-2"},
		Date:          "2030-06-10",
		StartTime:     "10:00",
		CustomerName:  "Mia Chen",
		CustomerEmail: "mia@example.com",
	}

	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-2", 90), nil)
	f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1"), massageStaff("staff-2", "Ben", "room-2")}, nil)
	f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalogModel.Room{massageRoom("room-1", "Lotus"), massageRoom("room-2", "Orchid")}, nil)

	f.inTransaction()
	f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	var inserted []model.Booking

	f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, booking model.Booking) error {
			inserted = append(inserted, booking)

			return nil
		}).Times(2)

	res, err := f.svc.GrantCouple(userContext(), req)

	assert.NoError(t, err)
	assert.Len(t, inserted, 2)
	assert.NotEmpty(t, res.BookingGroupID)
	assert.Equal(t, res.BookingGroupID, res.Primary.BookingGroupID)
	assert.Equal(t, res.BookingGroupID, res.Secondary.BookingGroupID)

	// Side-by-side treatments never share a therapist or a room.
	assert.NotEqual(t, res.Primary.StaffID, res.Secondary.StaffID)
	assert.NotEqual(t, res.Primary.RoomID, res.Secondary.RoomID)
	assert.Equal(t, "10:00", res.Primary.StartTime)
	assert.Equal(t, "10:00", res.Secondary.StartTime)
	assert.Equal(t, "11:30", res.Secondary.EndTime)
	assert.Equal(t, model.TypeCouple, res.Primary.BookingType)
}

func TestBookingService_GrantCouple_NoPairingAvailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	req := dto.GrantCoupleBookingRequest{
		Primary:       dto.CoupleLeg{ServiceID: "service-1"},
		Secondary:     dto.CoupleLeg{ServiceID: "service-2"},
		Date:          "2030-06-10",
		StartTime:     "10:00",
		CustomerName:  "Mia Chen",
		CustomerEmail: "mia@example.com",
	}

	// A single therapist cannot serve both legs at once.
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-2", 90), nil)
	f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
	f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalogModel.Room{massageRoom("room-1", "Lotus"), massageRoom("room-2", "Orchid")}, nil)

	f.inTransaction()
	f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := f.svc.GrantCouple(userContext(), req)

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))
}

func TestBookingService_GrantCouple_SecondInsertFailsLeavesNoPartial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	req := dto.GrantCoupleBookingRequest{
		Primary:       dto.CoupleLeg{ServiceID: "service-1"},
		Secondary:     dto.CoupleLeg{ServiceID: "service-2"},
		Date:          "2030-06-10",
		StartTime:     "10:00",
		CustomerName:  "Mia Chen",
		CustomerEmail: "mia@example.com",
	}

	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-2", 90), nil)
	f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1"), massageStaff("staff-2", "Ben", "room-2")}, nil)
	f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]catalogModel.Room{massageRoom("room-1", "Lotus"), massageRoom("room-2", "Orchid")}, nil)

	// Both legs commit in one transaction: when the second insert fails the
	// closure returns the error and the first leg rolls back with it.
	f.inTransaction().Times(1)
	f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	insertErr := errors.New("insert failed")

	gomock.InOrder(
		f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(insertErr),
	)

	_, err := f.svc.GrantCouple(userContext(), req)

	assert.Error(t, err)
	assert.ErrorIs(t, err, insertErr)
}

func TestBookingService_ValidateReschedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name        string
		existing    []model.Booking
		wantAllowed bool
	}{
		{
			name: "own slot is ignored",
			existing: []model.Booking{
				heldBooking("booking-1", "staff-1", "room-1", 600, 660),
			},
			wantAllowed: true,
		},
		{
			name: "another booking blocks the target slot",
			existing: []model.Booking{
				heldBooking("booking-1", "staff-1", "room-1", 600, 660),
				heldBooking("held-2", "staff-1", "room-2", 840, 900),
			},
			wantAllowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(ctrl)

			booking := heldBooking("booking-1", "staff-1", "room-1", 600, 660)
			booking.Status = model.StatusPending

			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
			f.repo.EXPECT().ListForDate(gomock.Any(), gomock.Any()).Return(tt.existing, nil)

			res, err := f.svc.ValidateReschedule(userContext(), "booking-1", dto.RescheduleRequest{
				Date:      "2030-06-10",
				StartTime: "14:00",
			})

			assert.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, res.Allowed)

			if !tt.wantAllowed {
				assert.NotEmpty(t, res.Conflicts)
			}
		})
	}
}

func TestBookingService_Reschedule_PendingMovesInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	booking := heldBooking("booking-1", "staff-1", "room-1", 600, 660)
	booking.Status = model.StatusPending

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)

	f.inTransaction()
	f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{booking}, nil)

	var updated map[string]any

	f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
			updated = fields

			return nil
		})

	res, err := f.svc.Reschedule(userContext(), "booking-1", dto.RescheduleRequest{
		Date:      "2030-06-10",
		StartTime: "14:00",
	})

	assert.NoError(t, err)
	assert.Equal(t, "booking-1", res.ID)
	assert.Equal(t, "14:00", res.StartTime)
	assert.Equal(t, "15:00", res.EndTime)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Equal(t, 840, updated[model.FieldStartMinute])
}

func TestBookingService_Reschedule_ConfirmedSpawnsSuccessor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	booking := heldBooking("booking-1", "staff-1", "room-1", 600, 660)

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)

	f.inTransaction()
	f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{booking}, nil)

	var successor model.Booking

	f.repo.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, inserted model.Booking) error {
			successor = inserted

			return nil
		})

	var retired map[string]any

	f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
			retired = fields

			return nil
		})

	res, err := f.svc.Reschedule(userContext(), "booking-1", dto.RescheduleRequest{
		Date:      "2030-06-10",
		StartTime: "14:00",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, "booking-1", res.ID)
	assert.Equal(t, "booking-1", res.RescheduledFrom)
	assert.Equal(t, 1, res.RescheduleCount)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	assert.Equal(t, "14:00", res.StartTime)

	assert.Equal(t, successor.ID, res.ID)
	assert.Equal(t, model.StatusRescheduled, retired[model.FieldStatus])
}

func TestBookingService_Reschedule_ReleasedBookingRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	booking := heldBooking("booking-1", "staff-1", "room-1", 600, 660)
	booking.Status = model.StatusCancelled

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

	_, err := f.svc.Reschedule(userContext(), "booking-1", dto.RescheduleRequest{
		Date:      "2030-06-10",
		StartTime: "14:00",
	})

	assert.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
}

func TestBookingService_Reschedule_CoupleMovesBothLegs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	groupID := "group-1"

	booking := heldBooking("booking-1", "staff-1", "room-1", 600, 660)
	booking.Status = model.StatusPending
	booking.BookingGroupID = &groupID
	booking.BookingType = model.TypeCouple

	sibling := heldBooking("booking-2", "staff-2", "room-2", 600, 690)
	sibling.ServiceID = "service-2"
	sibling.Status = model.StatusPending
	sibling.BookingGroupID = &groupID
	sibling.BookingType = model.TypeCouple

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(sibling, nil)
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-2", 90), nil)

	f.inTransaction()
	f.repo.EXPECT().ListForDateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{booking, sibling}, nil)

	f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	res, err := f.svc.Reschedule(userContext(), "booking-1", dto.RescheduleRequest{
		Date:      "2030-06-10",
		StartTime: "14:00",
	})

	assert.NoError(t, err)
	assert.Equal(t, "booking-1", res.ID)
	assert.Equal(t, "14:00", res.StartTime)
}

func TestBookingService_UpdateStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name      string
		from      string
		req       dto.UpdateStatusRequest
		setupMock func(f *bookingFixture)
		wantErr   bool
	}{
		{
			name: "pending to confirmed",
			from: model.StatusPending,
			req:  dto.UpdateStatusRequest{Status: model.StatusConfirmed},
			setupMock: func(f *bookingFixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "confirmed to no_show",
			from: model.StatusConfirmed,
			req:  dto.UpdateStatusRequest{Status: model.StatusNoShow},
			setupMock: func(f *bookingFixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "cancellation records the reason",
			from: model.StatusConfirmed,
			req:  dto.UpdateStatusRequest{Status: model.StatusCancelled, Reason: "guest called in sick"},
			setupMock: func(f *bookingFixture) {
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, "guest called in sick", fields[model.FieldCancelReason])

						return nil
					})
			},
		},
		{
			name:      "pending cannot complete",
			from:      model.StatusPending,
			req:       dto.UpdateStatusRequest{Status: model.StatusCompleted},
			setupMock: func(f *bookingFixture) {},
			wantErr:   true,
		},
		{
			name:      "completed is terminal",
			from:      model.StatusCompleted,
			req:       dto.UpdateStatusRequest{Status: model.StatusCancelled},
			setupMock: func(f *bookingFixture) {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(ctrl)

			booking := heldBooking("booking-1", "staff-1", "room-1", 600, 660)
			booking.Status = tt.from

			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			tt.setupMock(f)

			err := f.svc.UpdateStatus(userContext(), "booking-1", tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_CancelAbandoned(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("cancels stale pending bookings", func(t *testing.T) {
		f := newBookingFixture(ctrl)

		f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(3, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, model.StatusCancelled, fields[model.FieldStatus])

				return nil
			})

		count, err := f.svc.CancelAbandoned(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		f := newBookingFixture(ctrl)

		f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)

		count, err := f.svc.CancelAbandoned(context.Background())

		assert.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestBookingService_DayAvailability(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
	f.serviceRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(massageService("service-1", 60), nil)
	f.staffRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Staff{massageStaff("staff-1", "Amy", "room-1")}, nil)
	f.roomRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]catalogModel.Room{massageRoom("room-1", "Lotus")}, nil)
	f.repo.EXPECT().ListForDate(gomock.Any(), gomock.Any()).
		Return([]model.Booking{heldBooking("held-1", "staff-1", "room-1", 600, 660)}, nil)

	res, err := f.svc.DayAvailability(context.Background(), "service-1", "2030-06-10")

	assert.NoError(t, err)
	assert.Equal(t, "service-1", res.ServiceID)
	assert.Equal(t, "2030-06-10", res.Date)

	// The 10:00-11:00 hold plus buffers blots out starts from 09:00 to 11:15.
	assert.NotContains(t, res.Slots, "09:00")
	assert.NotContains(t, res.Slots, "11:15")
	assert.Contains(t, res.Slots, "11:30")
	assert.Contains(t, res.Slots, "19:00")
	assert.NotContains(t, res.Slots, "19:15")
}

func TestBookingService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newBookingFixture(ctrl)

	models := []model.Booking{heldBooking("booking-1", "staff-1", "room-1", 600, 660)}
	models[0].Metadata = gModel.Metadata{CreatedBy: "test-user-id", ModifiedBy: "test-user-id"}

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(models, nil)

	res, err := f.svc.GetAll(context.Background(), gDto.QueryParams{Limit: 10, Page: 1}, gDto.FilterGroup{})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.TotalData)
	assert.Len(t, res.Bookings, 1)
	assert.Equal(t, "booking-1", res.Bookings[0].ID)
}
