package schedule_test

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"serenity/internal/domains/booking/model"
	"serenity/internal/domains/booking/schedule"
	catalogModel "serenity/internal/domains/catalog/model"
)

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func massageService() catalogModel.Service {
	return catalogModel.Service{
		ID:              "svc-massage",
		Name:            "Deep Tissue Massage",
		Category:        catalogModel.CategoryMassage,
		DurationMinutes: 60,
	}
}

func staffMember(id, name string, defaultRoom string, workDays ...int64) catalogModel.Staff {
	staff := catalogModel.Staff{
		ID:           id,
		Name:         name,
		Capabilities: pq.StringArray{catalogModel.CategoryMassage},
		WorkDays:     pq.Int64Array(workDays),
		Active:       true,
	}

	if defaultRoom != "" {
		staff.DefaultRoomID = &defaultRoom
	}

	return staff
}

func massageRoom(id, name string) catalogModel.Room {
	return catalogModel.Room{
		ID:                  id,
		Name:                name,
		SupportedCategories: pq.StringArray{catalogModel.CategoryMassage},
		Active:              true,
	}
}

func TestResolveCandidates_AnyStaffOrdering(t *testing.T) {
	roomA := massageRoom("room-a", "Lotus")
	roomB := massageRoom("room-b", "Orchid")

	// Zara has a suitable default room, Adam has none; Zara must come first
	// despite sorting after Adam by name.
	staffPool := []catalogModel.Staff{
		staffMember("staff-adam", "Adam", "", 1, 2, 3, 4, 5),
		staffMember("staff-zara", "Zara", "room-b", 1, 2, 3, 4, 5),
	}

	candidates, err := schedule.ResolveCandidates(massageService(), staffPool, []catalogModel.Room{roomA, roomB}, monday, schedule.AnyStaff())
	assert.NoError(t, err)
	assert.Len(t, candidates, 4)

	assert.Equal(t, "staff-zara", candidates[0].Staff.ID)
	assert.Equal(t, "room-b", candidates[0].Room.ID, "default room is tried first")
	assert.Equal(t, "staff-zara", candidates[1].Staff.ID)
	assert.Equal(t, "room-a", candidates[1].Room.ID)

	assert.Equal(t, "staff-adam", candidates[2].Staff.ID)
	assert.Equal(t, "room-a", candidates[2].Room.ID, "without a default room, catalog order applies")
	assert.Equal(t, "staff-adam", candidates[3].Staff.ID)
	assert.Equal(t, "room-b", candidates[3].Room.ID)
}

func TestResolveCandidates_FiltersStaff(t *testing.T) {
	rooms := []catalogModel.Room{massageRoom("room-a", "Lotus")}

	offToday := staffMember("staff-off", "Saturday Person", "", 6)

	unqualified := staffMember("staff-facial", "Facialist", "", 1, 2, 3, 4, 5)
	unqualified.Capabilities = pq.StringArray{catalogModel.CategoryFacial}

	inactive := staffMember("staff-gone", "Former Employee", "", 1, 2, 3, 4, 5)
	inactive.Active = false

	working := staffMember("staff-ok", "Working Person", "", 1)

	candidates, err := schedule.ResolveCandidates(
		massageService(),
		[]catalogModel.Staff{offToday, unqualified, inactive, working},
		rooms,
		monday,
		schedule.AnyStaff(),
	)
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "staff-ok", candidates[0].Staff.ID)
}

func TestResolveCandidates_SpecificStaff(t *testing.T) {
	rooms := []catalogModel.Room{massageRoom("room-a", "Lotus")}
	staffPool := []catalogModel.Staff{
		staffMember("staff-1", "One", "", 1, 2, 3, 4, 5),
		staffMember("staff-2", "Two", "", 1, 2, 3, 4, 5),
	}

	candidates, err := schedule.ResolveCandidates(massageService(), staffPool, rooms, monday, schedule.SpecificStaff("staff-2"))
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "staff-2", candidates[0].Staff.ID)

	_, err = schedule.ResolveCandidates(massageService(), staffPool, rooms, monday, schedule.SpecificStaff("staff-unknown"))
	assert.ErrorIs(t, err, schedule.ErrStaffUnavailable)

	// Off that day counts as unavailable, not as no availability.
	weekendOnly := []catalogModel.Staff{staffMember("staff-sat", "Sat", "", 6, 7)}
	_, err = schedule.ResolveCandidates(massageService(), weekendOnly, rooms, monday, schedule.SpecificStaff("staff-sat"))
	assert.ErrorIs(t, err, schedule.ErrStaffUnavailable)
}

func TestResolveCandidates_RoomRequirements(t *testing.T) {
	service := massageService()
	service.RequiresSpecialRoom = true

	plain := massageRoom("room-plain", "Plain")
	special := massageRoom("room-special", "Hydro")
	special.IsSpecialTreatment = true

	staffPool := []catalogModel.Staff{staffMember("staff-1", "One", "", 1, 2, 3, 4, 5)}

	candidates, err := schedule.ResolveCandidates(service, staffPool, []catalogModel.Room{plain, special}, monday, schedule.AnyStaff())
	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "room-special", candidates[0].Room.ID)

	// No suitable room at all: empty result, no error.
	candidates, err = schedule.ResolveCandidates(service, staffPool, []catalogModel.Room{plain}, monday, schedule.AnyStaff())
	assert.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFreeStarts(t *testing.T) {
	hours, err := schedule.NewHours("09:00", "20:00", 15)
	assert.NoError(t, err)

	candidates := []schedule.Candidate{
		{Staff: staffMember("staff-1", "One", "", 1), Room: massageRoom("room-1", "Lotus")},
	}

	// 10:00-11:00 blocked with buffers (09:45-11:15).
	existing := []model.Booking{
		booked("b1", "staff-1", "room-1", model.StatusConfirmed, 585, 675),
	}

	starts := schedule.FreeStarts(hours, 60, 30, candidates, existing)

	assert.Equal(t, 690, starts[0], "11:30 is the first start whose buffer clears the blocked window")
	assert.NotContains(t, starts, 660, "11:00 start would need its buffer inside the blocked window")
	assert.NotContains(t, starts, 600)
	assert.NotContains(t, starts, 540, "a 09:00 start buffers into the 09:45 block")
	assert.Contains(t, starts, 1140, "last slot that still fits before closing")
	assert.NotContains(t, starts, 1170, "19:30 cannot fit a one hour treatment")
}
