package schedule

import (
	"errors"
	"sort"
	"time"

	catalogModel "serenity/internal/domains/catalog/model"
)

var ErrStaffUnavailable = errors.New("requested staff member cannot take this booking")

// StaffSelector expresses the customer's staff preference: a specific staff
// member, or anyone qualified.
type StaffSelector struct {
	staffID string
	any     bool
}

// AnyStaff matches every qualified staff member.
func AnyStaff() StaffSelector {
	return StaffSelector{any: true}
}

// SpecificStaff matches only the staff member with the given id.
func SpecificStaff(id string) StaffSelector {
	return StaffSelector{staffID: id}
}

// IsAny reports whether the selector has no specific staff preference.
func (s StaffSelector) IsAny() bool {
	return s.any
}

// StaffID returns the requested staff id, empty for an any-staff selector.
func (s StaffSelector) StaffID() string {
	return s.staffID
}

// Candidate is one staff/room pairing that could host a booking.
type Candidate struct {
	Staff catalogModel.Staff
	Room  catalogModel.Room
}

// ResolveCandidates builds the ordered list of staff/room pairings able to
// host the given service on the given date:
//
//   - staff must be active, qualified for the service category and working
//     that weekday;
//   - rooms must be active and suit the service (category, special treatment
//     equipment, couples setup);
//   - staff whose default room suits the service come first, then
//     alphabetically by name; per staff member, the default room is tried
//     before the remaining rooms in catalog order.
//
// With a specific staff selector the list holds that staff member's pairings
// only; ErrStaffUnavailable is returned when the requested staff member is
// unknown, unqualified or off that day. An empty list with a nil error means
// no pairing exists at all.
func ResolveCandidates(service catalogModel.Service, staffPool []catalogModel.Staff, rooms []catalogModel.Room, date time.Time, selector StaffSelector) ([]Candidate, error) {
	suitable := make([]catalogModel.Room, 0, len(rooms))

	for _, room := range rooms {
		if room.Active && room.Suits(service) {
			suitable = append(suitable, room)
		}
	}

	eligible := make([]catalogModel.Staff, 0, len(staffPool))

	for _, staff := range staffPool {
		if !staff.Active || !staff.Qualified(service.Category) || !staff.WorksOn(date) {
			continue
		}

		if !selector.IsAny() && staff.ID != selector.StaffID() {
			continue
		}

		eligible = append(eligible, staff)
	}

	if !selector.IsAny() && len(eligible) == 0 {
		return nil, ErrStaffUnavailable
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		iDefault := hasSuitableDefaultRoom(eligible[i], suitable)
		jDefault := hasSuitableDefaultRoom(eligible[j], suitable)

		if iDefault != jDefault {
			return iDefault
		}

		return eligible[i].Name < eligible[j].Name
	})

	var candidates []Candidate

	for _, staff := range eligible {
		for _, room := range orderRoomsForStaff(staff, suitable) {
			candidates = append(candidates, Candidate{Staff: staff, Room: room})
		}
	}

	return candidates, nil
}

func hasSuitableDefaultRoom(staff catalogModel.Staff, suitable []catalogModel.Room) bool {
	if staff.DefaultRoomID == nil {
		return false
	}

	for _, room := range suitable {
		if room.ID == *staff.DefaultRoomID {
			return true
		}
	}

	return false
}

func orderRoomsForStaff(staff catalogModel.Staff, suitable []catalogModel.Room) []catalogModel.Room {
	ordered := make([]catalogModel.Room, 0, len(suitable))

	if staff.DefaultRoomID != nil {
		for _, room := range suitable {
			if room.ID == *staff.DefaultRoomID {
				ordered = append(ordered, room)

				break
			}
		}
	}

	for _, room := range suitable {
		if len(ordered) > 0 && room.ID == ordered[0].ID {
			continue
		}

		ordered = append(ordered, room)
	}

	return ordered
}
