package model

import (
	"slices"
	"time"

	"github.com/lib/pq"

	"serenity/shared/model"
)

const (
	StaffTableName  = "staff"
	StaffEntityName = "staff"

	StaffFieldID            = "id"
	StaffFieldName          = "name"
	StaffFieldCapabilities  = "capabilities"
	StaffFieldWorkDays      = "work_days"
	StaffFieldDefaultRoomID = "default_room_id"
	StaffFieldActive        = "active"
)

// Staff is a therapist or esthetician who performs services.
type Staff struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Capabilities  pq.StringArray `db:"capabilities"`
	WorkDays      pq.Int64Array  `db:"work_days"`
	DefaultRoomID *string        `db:"default_room_id"`
	Active        bool           `db:"active"`
	model.Metadata
}

// Qualified reports whether this staff member can perform services of the
// given category.
func (s Staff) Qualified(category string) bool {
	return slices.Contains(s.Capabilities, category)
}

// WorksOn reports whether this staff member works on the weekday of the
// given date. Work days are stored ISO-style, Monday=1 through Sunday=7.
func (s Staff) WorksOn(date time.Time) bool {
	day := int64(date.Weekday())
	if day == 0 {
		day = 7
	}

	return slices.Contains(s.WorkDays, day)
}
