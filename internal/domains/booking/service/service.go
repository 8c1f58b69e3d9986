package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"serenity/config"
	"serenity/infras/kafka"
	"serenity/infras/otel"
	"serenity/internal/domains/booking/model"
	"serenity/internal/domains/booking/model/dto"
	"serenity/internal/domains/booking/repository"
	"serenity/internal/domains/booking/schedule"
	catalogModel "serenity/internal/domains/catalog/model"
	catalogRepo "serenity/internal/domains/catalog/repository"
	"serenity/shared"
	"serenity/shared/cache"
	"serenity/shared/constant"
	gDto "serenity/shared/dto"
	"serenity/shared/failure"
	"serenity/shared/timezone"
)

const (
	cacheGetBooking     = "booking:get"
	cacheGetAllBooking  = "booking:gets"
	cacheCountBooking   = "booking:count"
	cacheDayAvailable   = "booking:availability"
	abandonCancelReason = "abandoned before confirmation"

	// One full re-resolution after a concurrent write raced us. Bounded on
	// purpose: a second loss means the slot is genuinely contended.
	maxGrantAttempts = 2
)

type Booking interface {
	Grant(ctx context.Context, req dto.GrantBookingRequest) (dto.BookingResponse, error)
	GrantCouple(ctx context.Context, req dto.GrantCoupleBookingRequest) (dto.CoupleBookingResponse, error)
	ValidateReschedule(ctx context.Context, id string, req dto.RescheduleRequest) (dto.RescheduleValidationResponse, error)
	Reschedule(ctx context.Context, id string, req dto.RescheduleRequest) (dto.BookingResponse, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) error
	CancelAbandoned(ctx context.Context) (int, error)
	DayAvailability(ctx context.Context, serviceID, date string) (dto.DayAvailabilityResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
}

type serviceImpl struct {
	repo        repository.Booking
	serviceRepo catalogRepo.Service
	staffRepo   catalogRepo.Staff
	roomRepo    catalogRepo.Room
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	kafka       kafka.Client
}

func New(repo repository.Booking, serviceRepo catalogRepo.Service, staffRepo catalogRepo.Staff, roomRepo catalogRepo.Room, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, kafka kafka.Client) Booking {
	return &serviceImpl{
		repo:        repo,
		serviceRepo: serviceRepo,
		staffRepo:   staffRepo,
		roomRepo:    roomRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		kafka:       kafka,
	}
}

func (s *serviceImpl) Grant(ctx context.Context, req dto.GrantBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Grant")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	service, err := s.loadService(ctx, req.ServiceID)
	if err != nil {
		return res, err
	}

	date, slot, err := s.placeRequest(req.Date, req.StartTime, service.DurationMinutes)
	if err != nil {
		return res, err
	}

	staffPool, rooms, err := s.loadResources(ctx)
	if err != nil {
		return res, err
	}

	var booking model.Booking

	for attempt := 1; attempt <= maxGrantAttempts; attempt++ {
		booking, err = s.attemptGrant(ctx, req, user, service, staffPool, rooms, date, slot)
		if err == nil {
			break
		}

		if !repository.IsRetryableConflict(err) {
			return res, err
		}

		log.Warn().Int("attempt", attempt).Msg("concurrent write raced booking grant, re-resolving candidates")
	}

	if err != nil {
		// Both attempts lost the race: surface as no available slot.
		return res, failure.Conflict("no available slot for the requested time") // nolint:wrapcheck
	}

	scope.AddEvent("Booking granted for staff " + booking.StaffID + " in room " + booking.RoomID)

	s.publishEvents(ctx, dto.EventBookingCreated, booking)
	s.invalidateBookingCaches(ctx, booking.ID)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) attemptGrant(ctx context.Context, req dto.GrantBookingRequest, user string, service catalogModel.Service, staffPool []catalogModel.Staff, rooms []catalogModel.Room, date time.Time, slot schedule.Slot) (model.Booking, error) {
	candidates, err := schedule.ResolveCandidates(service, staffPool, rooms, date, req.Selector())
	if err != nil {
		return model.Booking{}, staffUnavailableFailure(err)
	}

	if len(candidates) == 0 {
		return model.Booking{}, failure.UnprocessableEntity("no staff and room combination can host this service on that date") // nolint:wrapcheck
	}

	var booking model.Booking

	err = s.repo.InTransaction(ctx, func(sqltx *sqlx.Tx) error {
		existing, err := s.repo.ListForDateTx(ctx, sqltx, date)
		if err != nil {
			return err
		}

		var report schedule.Report

		for _, candidate := range candidates {
			candidateReport := schedule.Detect(candidate.Staff.ID, candidate.Room.ID, slot.Buffered, existing)
			if !candidateReport.Empty() {
				report.Merge(candidateReport)

				continue
			}

			booking = req.ToModel(user, candidate.Staff.ID, candidate.Room.ID, date, slot)

			return s.repo.InsertTx(ctx, sqltx, booking)
		}

		return failure.ConflictWithDetails("requested slot is unavailable, buffer zones apply", report.Conflicts) // nolint:wrapcheck
	})
	if err != nil {
		return model.Booking{}, err
	}

	return booking, nil
}

func (s *serviceImpl) GrantCouple(ctx context.Context, req dto.GrantCoupleBookingRequest) (res dto.CoupleBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GrantCouple")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	primaryService, err := s.loadService(ctx, req.Primary.ServiceID)
	if err != nil {
		return res, err
	}

	secondaryService, err := s.loadService(ctx, req.Secondary.ServiceID)
	if err != nil {
		return res, err
	}

	date, primarySlot, err := s.placeRequest(req.Date, req.StartTime, primaryService.DurationMinutes)
	if err != nil {
		return res, err
	}

	_, secondarySlot, err := s.placeRequest(req.Date, req.StartTime, secondaryService.DurationMinutes)
	if err != nil {
		return res, err
	}

	staffPool, rooms, err := s.loadResources(ctx)
	if err != nil {
		return res, err
	}

	var primary, secondary model.Booking

	for attempt := 1; attempt <= maxGrantAttempts; attempt++ {
		primary, secondary, err = s.attemptCoupleGrant(ctx, req, user, primaryService, secondaryService, staffPool, rooms, date, primarySlot, secondarySlot)
		if err == nil {
			break
		}

		if !repository.IsRetryableConflict(err) {
			return res, err
		}

		log.Warn().Int("attempt", attempt).Msg("concurrent write raced couple grant, re-resolving candidates")
	}

	if err != nil {
		return res, failure.Conflict("no available slot for the requested time") // nolint:wrapcheck
	}

	scope.AddEvent("Couple booking granted, group " + *primary.BookingGroupID)

	s.publishEvents(ctx, dto.EventCoupleBookingCreated, primary, secondary)
	s.invalidateBookingCaches(ctx, primary.ID, secondary.ID)

	res.BookingGroupID = *primary.BookingGroupID
	res.Primary.FromModel(primary)
	res.Secondary.FromModel(secondary)

	return res, nil
}

// attemptCoupleGrant places both legs inside one serializable transaction.
// The second leg's conflict check sees the first leg's reservation, so the
// legs can never double-book each other; any failure rolls back both rows.
func (s *serviceImpl) attemptCoupleGrant(ctx context.Context, req dto.GrantCoupleBookingRequest, user string, primaryService, secondaryService catalogModel.Service, staffPool []catalogModel.Staff, rooms []catalogModel.Room, date time.Time, primarySlot, secondarySlot schedule.Slot) (model.Booking, model.Booking, error) {
	var zero model.Booking

	primaryCandidates, err := schedule.ResolveCandidates(primaryService, staffPool, rooms, date, req.Primary.Selector())
	if err != nil {
		return zero, zero, staffUnavailableFailure(err)
	}

	secondaryCandidates, err := schedule.ResolveCandidates(secondaryService, staffPool, rooms, date, req.Secondary.Selector())
	if err != nil {
		return zero, zero, staffUnavailableFailure(err)
	}

	if len(primaryCandidates) == 0 || len(secondaryCandidates) == 0 {
		return zero, zero, failure.UnprocessableEntity("no staff and room combination can host both services on that date") // nolint:wrapcheck
	}

	groupID := uuid.NewString()

	var primary, secondary model.Booking

	err = s.repo.InTransaction(ctx, func(sqltx *sqlx.Tx) error {
		existing, err := s.repo.ListForDateTx(ctx, sqltx, date)
		if err != nil {
			return err
		}

		var report schedule.Report

		for _, primaryCandidate := range primaryCandidates {
			primaryReport := schedule.Detect(primaryCandidate.Staff.ID, primaryCandidate.Room.ID, primarySlot.Buffered, existing)
			if !primaryReport.Empty() {
				report.Merge(primaryReport)

				continue
			}

			primary = req.LegModel(user, groupID, primaryService.ID, primaryCandidate.Staff.ID, primaryCandidate.Room.ID, date, primarySlot)
			withPrimary := append(existing[:len(existing):len(existing)], primary)

			for _, secondaryCandidate := range secondaryCandidates {
				secondaryReport := schedule.Detect(secondaryCandidate.Staff.ID, secondaryCandidate.Room.ID, secondarySlot.Buffered, withPrimary)
				if !secondaryReport.Empty() {
					report.Merge(secondaryReport)

					continue
				}

				secondary = req.LegModel(user, groupID, secondaryService.ID, secondaryCandidate.Staff.ID, secondaryCandidate.Room.ID, date, secondarySlot)

				if err := s.repo.InsertTx(ctx, sqltx, primary); err != nil {
					return err
				}

				return s.repo.InsertTx(ctx, sqltx, secondary)
			}
		}

		return failure.ConflictWithDetails("no conflict-free staff and room pairing for both treatments", report.Conflicts) // nolint:wrapcheck
	})
	if err != nil {
		return zero, zero, err
	}

	return primary, secondary, nil
}

func (s *serviceImpl) ValidateReschedule(ctx context.Context, id string, req dto.RescheduleRequest) (res dto.RescheduleValidationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ValidateReschedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	plan, err := s.planReschedule(ctx, id, req)
	if err != nil {
		return res, err
	}

	existing, err := s.repo.ListForDate(ctx, plan.date)
	if err != nil {
		return res, err
	}

	report := plan.detect(existing)

	res.Allowed = report.Empty()
	res.Conflicts = report.Conflicts

	return res, nil
}

func (s *serviceImpl) Reschedule(ctx context.Context, id string, req dto.RescheduleRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reschedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	plan, err := s.planReschedule(ctx, id, req)
	if err != nil {
		return res, err
	}

	var moved model.Booking

	for attempt := 1; attempt <= maxGrantAttempts; attempt++ {
		moved, err = s.attemptReschedule(ctx, user, plan)
		if err == nil {
			break
		}

		if !repository.IsRetryableConflict(err) {
			return res, err
		}

		log.Warn().Int("attempt", attempt).Str("bookingID", id).Msg("concurrent write raced reschedule, retrying")
	}

	if err != nil {
		return res, failure.Conflict("no available slot for the requested time") // nolint:wrapcheck
	}

	scope.AddEvent("Booking " + id + " rescheduled")

	s.publishEvents(ctx, dto.EventBookingRescheduled, moved)
	s.invalidateBookingCaches(ctx, plan.ids()...)

	res.FromModel(moved)

	return res, nil
}

// reschedulePlan is a validated reschedule: the booking (and its couple
// sibling, when linked), with the new slots already placed on the target day.
type reschedulePlan struct {
	booking     model.Booking
	slot        schedule.Slot
	sibling     *model.Booking
	siblingSlot schedule.Slot
	date        time.Time
}

func (p reschedulePlan) ids() []string {
	ids := []string{p.booking.ID}
	if p.sibling != nil {
		ids = append(ids, p.sibling.ID)
	}

	return ids
}

// detect runs conflict checks for the plan against the given bookings,
// keeping staff and room fixed and excluding the moved rows themselves.
func (p reschedulePlan) detect(existing []model.Booking) schedule.Report {
	exclude := p.ids()

	report := schedule.Detect(p.booking.StaffID, p.booking.RoomID, p.slot.Buffered, existing, exclude...)

	if p.sibling != nil {
		report.Merge(schedule.Detect(p.sibling.StaffID, p.sibling.RoomID, p.siblingSlot.Buffered, existing, exclude...))
	}

	return report
}

func (s *serviceImpl) planReschedule(ctx context.Context, id string, req dto.RescheduleRequest) (reschedulePlan, error) {
	var plan reschedulePlan

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return plan, err
	}

	if !model.HoldsResources(booking.Status) {
		return plan, failure.UnprocessableEntity(fmt.Sprintf("a %s booking cannot be rescheduled", booking.Status)) // nolint:wrapcheck
	}

	service, err := s.loadService(ctx, booking.ServiceID)
	if err != nil {
		return plan, err
	}

	date, slot, err := s.placeRequest(req.Date, req.StartTime, service.DurationMinutes)
	if err != nil {
		return plan, err
	}

	plan.booking = booking
	plan.slot = slot
	plan.date = date

	if booking.BookingGroupID == nil {
		return plan, nil
	}

	sibling, err := s.loadSibling(ctx, booking)
	if err != nil {
		return plan, err
	}

	siblingService, err := s.loadService(ctx, sibling.ServiceID)
	if err != nil {
		return plan, err
	}

	_, siblingSlot, err := s.placeRequest(req.Date, req.StartTime, siblingService.DurationMinutes)
	if err != nil {
		return plan, err
	}

	plan.sibling = &sibling
	plan.siblingSlot = siblingSlot

	return plan, nil
}

func (s *serviceImpl) attemptReschedule(ctx context.Context, user string, plan reschedulePlan) (model.Booking, error) {
	var zero model.Booking

	var moved model.Booking

	err := s.repo.InTransaction(ctx, func(sqltx *sqlx.Tx) error {
		existing, err := s.repo.ListForDateTx(ctx, sqltx, plan.date)
		if err != nil {
			return err
		}

		report := plan.detect(existing)
		if !report.Empty() {
			return failure.ConflictWithDetails("requested slot is unavailable, buffer zones apply", report.Conflicts) // nolint:wrapcheck
		}

		moved, err = s.applyMove(ctx, sqltx, user, plan.booking, plan.date, plan.slot)
		if err != nil {
			return err
		}

		if plan.sibling != nil {
			if _, err = s.applyMove(ctx, sqltx, user, *plan.sibling, plan.date, plan.siblingSlot); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return zero, err
	}

	return moved, nil
}

// applyMove writes one leg's move. A pending booking moves in place; a
// confirmed booking keeps its history by spawning a successor row and
// retiring the original as rescheduled.
func (s *serviceImpl) applyMove(ctx context.Context, sqltx *sqlx.Tx, user string, booking model.Booking, date time.Time, slot schedule.Slot) (model.Booking, error) {
	filter := shared.FilterByID(booking.ID, model.FieldID, model.TableName)

	if booking.Status == model.StatusPending {
		err := s.repo.UpdateTx(ctx, sqltx, map[string]any{
			model.FieldBookingDate: date.Format(constant.CalendarDateFormat),
			model.FieldStartMinute: slot.Occupied.Start,
			model.FieldEndMinute:   slot.Occupied.End,
			model.FieldBufferStart: slot.Buffered.Start,
			model.FieldBufferEnd:   slot.Buffered.End,
			"modified_by":          user,
		}, filter)
		if err != nil {
			return model.Booking{}, err
		}

		booking.BookingDate = date
		booking.StartMinute = slot.Occupied.Start
		booking.EndMinute = slot.Occupied.End
		booking.BufferStart = slot.Buffered.Start
		booking.BufferEnd = slot.Buffered.End

		return booking, nil
	}

	successor := booking
	successor.ID = uuid.NewString()
	successor.BookingDate = date
	successor.StartMinute = slot.Occupied.Start
	successor.EndMinute = slot.Occupied.End
	successor.BufferStart = slot.Buffered.Start
	successor.BufferEnd = slot.Buffered.End
	successor.RescheduledFrom = &booking.ID
	successor.RescheduleCount = booking.RescheduleCount + 1
	successor.Metadata.CreatedAt = timezone.Now()
	successor.Metadata.ModifiedAt = timezone.Now()
	successor.Metadata.CreatedBy = user
	successor.Metadata.ModifiedBy = user

	if err := s.repo.InsertTx(ctx, sqltx, successor); err != nil {
		return model.Booking{}, err
	}

	err := s.repo.UpdateTx(ctx, sqltx, map[string]any{
		model.FieldStatus: model.StatusRescheduled,
		"modified_by":     user,
	}, filter)
	if err != nil {
		return model.Booking{}, err
	}

	return successor, nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}

	if !model.CanTransition(booking.Status, req.Status) {
		return failure.UnprocessableEntity(fmt.Sprintf("cannot move a %s booking to %s", booking.Status, req.Status)) // nolint:wrapcheck
	}

	fields := map[string]any{
		model.FieldStatus: req.Status,
		"modified_by":     user,
	}

	if req.Status == model.StatusCancelled && req.Reason != "" {
		fields[model.FieldCancelReason] = req.Reason
	}

	if err = s.repo.Update(ctx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	booking.Status = req.Status
	booking.CancelReason = req.Reason

	scope.AddEvent("Booking " + id + " moved to " + req.Status)

	s.publishEvents(ctx, dto.EventBookingStatusChanged, booking)
	s.invalidateBookingCaches(ctx, id)

	return nil
}

// CancelAbandoned retires pending bookings that were never confirmed within
// the configured window, releasing their staff and room for new grants.
func (s *serviceImpl) CancelAbandoned(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CancelAbandoned")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorEq,
				Value:    model.StatusPending,
				Table:    model.TableName,
			},
			gDto.Filter{
				Operator: gDto.FilterPlainQuery,
				Value:    fmt.Sprintf("%s.created_at < now() - interval '%d minutes'", model.TableName, s.cfg.Booking.AbandonAfterMinutes),
			},
		},
	}

	count, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count abandoned bookings")

		return 0, fmt.Errorf("failed to count abandoned bookings: %w", err)
	}

	if count == 0 {
		return 0, nil
	}

	err = s.repo.Update(ctx, map[string]any{
		model.FieldStatus:       model.StatusCancelled,
		model.FieldCancelReason: abandonCancelReason,
	}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to cancel abandoned bookings")

		return 0, fmt.Errorf("failed to cancel abandoned bookings: %w", err)
	}

	log.Info().Int("count", count).Msg("cancelled abandoned bookings")

	s.invalidateBookingCaches(ctx)

	return count, nil
}

func (s *serviceImpl) DayAvailability(ctx context.Context, serviceID, date string) (res dto.DayAvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DayAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheDayAvailable, serviceID, date)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for day availability")

		return res, nil
	}

	service, err := s.loadService(ctx, serviceID)
	if err != nil {
		return res, err
	}

	day, err := timezone.Parse(constant.CalendarDateFormat, date)
	if err != nil {
		return res, failure.BadRequestFromString("date must be formatted YYYY-MM-DD") // nolint:wrapcheck
	}

	hours, err := s.hours()
	if err != nil {
		return res, err
	}

	staffPool, rooms, err := s.loadResources(ctx)
	if err != nil {
		return res, err
	}

	candidates, err := schedule.ResolveCandidates(service, staffPool, rooms, day, schedule.AnyStaff())
	if err != nil {
		return res, staffUnavailableFailure(err)
	}

	existing, err := s.repo.ListForDate(ctx, day)
	if err != nil {
		return res, err
	}

	starts := schedule.FreeStarts(hours, service.DurationMinutes, schedule.DefaultSlotStep, candidates, existing)
	starts = s.dropTooSoon(day, starts)

	res.FromStarts(serviceID, date, starts)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save day availability to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) hours() (schedule.Hours, error) {
	hours, err := schedule.NewHours(s.cfg.Booking.BusinessOpen, s.cfg.Booking.BusinessClose, s.cfg.Booking.BufferMinutes)
	if err != nil {
		log.Error().Err(err).Msg("invalid business hours configuration")

		return schedule.Hours{}, fmt.Errorf("invalid business hours configuration: %w", err)
	}

	return hours, nil
}

// placeRequest parses the requested date and start time, enforces the
// minimum advance notice and places the treatment on the business day.
func (s *serviceImpl) placeRequest(dateStr, startTime string, durationMinutes int) (time.Time, schedule.Slot, error) {
	hours, err := s.hours()
	if err != nil {
		return time.Time{}, schedule.Slot{}, err
	}

	date, err := timezone.Parse(constant.CalendarDateFormat, dateStr)
	if err != nil {
		return time.Time{}, schedule.Slot{}, failure.BadRequestFromString("date must be formatted YYYY-MM-DD") // nolint:wrapcheck
	}

	startMinute, err := schedule.ParseClock(startTime)
	if err != nil {
		return time.Time{}, schedule.Slot{}, failure.BadRequestFromString("start_time must be formatted HH:MM") // nolint:wrapcheck
	}

	startAt := date.Add(time.Duration(startMinute) * time.Minute)
	if startAt.Before(timezone.Now().Add(time.Duration(s.cfg.Booking.MinAdvanceMinutes) * time.Minute)) {
		return time.Time{}, schedule.Slot{}, failure.UnprocessableEntity(fmt.Sprintf("bookings must start at least %d minutes from now", s.cfg.Booking.MinAdvanceMinutes)) // nolint:wrapcheck
	}

	slot, err := hours.ComputeSlot(startMinute, durationMinutes)
	if err != nil {
		if errors.Is(err, schedule.ErrOutsideBusinessHours) {
			return time.Time{}, schedule.Slot{}, failure.UnprocessableEntity(fmt.Sprintf("treatments run between %s and %s", s.cfg.Booking.BusinessOpen, s.cfg.Booking.BusinessClose)) // nolint:wrapcheck
		}

		return time.Time{}, schedule.Slot{}, fmt.Errorf("failed to place booking on the business day: %w", err)
	}

	return date, slot, nil
}

// dropTooSoon removes start minutes that violate the advance notice window
// when the availability day is today.
func (s *serviceImpl) dropTooSoon(day time.Time, starts []int) []int {
	earliest := timezone.Now().Add(time.Duration(s.cfg.Booking.MinAdvanceMinutes) * time.Minute)

	kept := starts[:0]

	for _, start := range starts {
		if !day.Add(time.Duration(start) * time.Minute).Before(earliest) {
			kept = append(kept, start)
		}
	}

	return kept
}

func (s *serviceImpl) loadService(ctx context.Context, id string) (catalogModel.Service, error) {
	service, err := s.serviceRepo.Get(ctx, shared.FilterByID(id, catalogModel.ServiceFieldID, catalogModel.ServiceTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get service")

		return service, fmt.Errorf("failed to get service: %w", err)
	}

	if service.ID == constant.Empty {
		return service, failure.NotFound("service not found") // nolint:wrapcheck
	}

	if !service.Active {
		return service, failure.UnprocessableEntity("service is no longer offered") // nolint:wrapcheck
	}

	return service, nil
}

func (s *serviceImpl) loadBooking(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) loadSibling(ctx context.Context, booking model.Booking) (model.Booking, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldBookingGroupID,
				Operator: gDto.FilterOperatorEq,
				Value:    *booking.BookingGroupID,
				Table:    model.TableName,
			},
			gDto.Filter{
				ArgName:  "sibling_id",
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorNotEq,
				Value:    booking.ID,
				Table:    model.TableName,
			},
			holdingStatusFilter(),
		},
	}

	sibling, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get couple sibling")

		return sibling, fmt.Errorf("failed to get couple sibling: %w", err)
	}

	if sibling.ID == constant.Empty {
		return sibling, failure.UnprocessableEntity("couple sibling booking no longer holds its slot") // nolint:wrapcheck
	}

	return sibling, nil
}

func holdingStatusFilter() gDto.Filter {
	return gDto.Filter{
		Operator: gDto.FilterPlainQuery,
		Value: fmt.Sprintf("%s.%s IN ('%s', '%s')",
			model.TableName, model.FieldStatus, model.StatusPending, model.StatusConfirmed),
	}
}

func (s *serviceImpl) loadResources(ctx context.Context) ([]catalogModel.Staff, []catalogModel.Room, error) {
	staffPool, err := s.staffRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to load staff pool")

		return nil, nil, fmt.Errorf("failed to load staff pool: %w", err)
	}

	rooms, err := s.roomRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to load rooms")

		return nil, nil, fmt.Errorf("failed to load rooms: %w", err)
	}

	return staffPool, rooms, nil
}

func staffUnavailableFailure(err error) error {
	if errors.Is(err, schedule.ErrStaffUnavailable) {
		return failure.UnprocessableEntity("requested staff member is not qualified for this service or not working on that date") // nolint:wrapcheck
	}

	return err
}

func (s *serviceImpl) publishEvents(ctx context.Context, eventType string, bookings ...model.Booking) {
	go func() {
		c := context.WithoutCancel(ctx)

		messages := make([]kafka.Message, len(bookings))
		for i, booking := range bookings {
			messages[i] = kafka.Message{
				Key:   booking.ID,
				Value: dto.NewBookingEvent(eventType, booking),
			}
		}

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topics.BookingEvents, messages...); err != nil {
			log.Error().Err(err).Str("eventType", eventType).Msg("failed to publish booking events")
		}
	}()
}

func (s *serviceImpl) invalidateBookingCaches(ctx context.Context, ids ...string) {
	go func() {
		c := context.WithoutCancel(ctx)

		for _, id := range ids {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete booking from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
		shared.InvalidateCaches(c, s.cache, cacheDayAvailable)
	}()
}
