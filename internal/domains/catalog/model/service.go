package model

import (
	"slices"

	"serenity/shared/model"
)

const (
	ServiceTableName  = "services"
	ServiceEntityName = "service"

	ServiceFieldID                  = "id"
	ServiceFieldName                = "name"
	ServiceFieldCategory            = "category"
	ServiceFieldDurationMinutes     = "duration_minutes"
	ServiceFieldPrice               = "price"
	ServiceFieldRequiresSpecialRoom = "requires_special_room"
	ServiceFieldIsCouplesService    = "is_couples_service"
	ServiceFieldActive              = "active"
)

const (
	CategoryFacial        = "facial"
	CategoryMassage       = "massage"
	CategoryWaxing        = "waxing"
	CategoryBodyTreatment = "body_treatment"
	CategoryPackage       = "package"
	CategorySpecial       = "special"
)

var categories = []string{
	CategoryFacial,
	CategoryMassage,
	CategoryWaxing,
	CategoryBodyTreatment,
	CategoryPackage,
	CategorySpecial,
}

// ValidCategory reports whether the given category is a known service category.
func ValidCategory(category string) bool {
	return slices.Contains(categories, category)
}

// Service is immutable reference data describing a bookable treatment.
type Service struct {
	ID                  string  `db:"id"`
	Name                string  `db:"name"`
	Category            string  `db:"category"`
	DurationMinutes     int     `db:"duration_minutes"`
	Price               float64 `db:"price"`
	RequiresSpecialRoom bool    `db:"requires_special_room"`
	IsCouplesService    bool    `db:"is_couples_service"`
	Active              bool    `db:"active"`
	model.Metadata
}
