package model

import (
	"github.com/lib/pq"

	"serenity/shared/model"
)

const (
	RoomTableName  = "rooms"
	RoomEntityName = "room"

	RoomFieldID                 = "id"
	RoomFieldName               = "name"
	RoomFieldSupportedCategs    = "supported_categories"
	RoomFieldIsSpecialTreatment = "is_special_treatment"
	RoomFieldIsCouplesRoom      = "is_couples_room"
	RoomFieldPhotoURL           = "photo_url"
	RoomFieldActive             = "active"
)

// Room is a physical treatment room.
type Room struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	SupportedCategories pq.StringArray `db:"supported_categories"`
	IsSpecialTreatment  bool           `db:"is_special_treatment"`
	IsCouplesRoom       bool           `db:"is_couples_room"`
	PhotoURL            string         `db:"photo_url"`
	Active              bool           `db:"active"`
	model.Metadata
}

// Supports reports whether the room can host services of the given category.
func (r Room) Supports(category string) bool {
	for _, c := range r.SupportedCategories {
		if c == category {
			return true
		}
	}

	return false
}

// Suits reports whether the room satisfies every room requirement of the
// given service: category support, special treatment equipment when the
// service needs it, and a couples setup for couples services.
func (r Room) Suits(service Service) bool {
	if !r.Supports(service.Category) {
		return false
	}

	if service.RequiresSpecialRoom && !r.IsSpecialTreatment {
		return false
	}

	if service.IsCouplesService && !r.IsCouplesRoom {
		return false
	}

	return true
}
