package dto

import (
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"serenity/internal/domains/catalog/model"
	"serenity/shared"
	gDto "serenity/shared/dto"
	gModel "serenity/shared/model"
	"serenity/shared/timezone"
)

type CreateServiceRequest struct {
	Name                string  `json:"name"                  validate:"required,min=3,max=100"`
	Category            string  `json:"category"              validate:"required,oneof=facial massage waxing body_treatment package special"`
	DurationMinutes     int     `json:"duration_minutes"      validate:"required,min=15,max=480"`
	Price               float64 `json:"price"                 validate:"required,min=0"`
	RequiresSpecialRoom bool    `json:"requires_special_room"`
	IsCouplesService    bool    `json:"is_couples_service"`
}

func (c *CreateServiceRequest) ToModel(user string) model.Service {
	return model.Service{
		ID:                  uuid.NewString(),
		Name:                c.Name,
		Category:            c.Category,
		DurationMinutes:     c.DurationMinutes,
		Price:               c.Price,
		RequiresSpecialRoom: c.RequiresSpecialRoom,
		IsCouplesService:    c.IsCouplesService,
		Active:              true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateServiceRequest struct {
	Name            string   `db:"name"             json:"name"             validate:"omitempty,min=3,max=100"`
	DurationMinutes int      `db:"duration_minutes" json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	Price           *float64 `db:"price"            json:"price"            validate:"omitempty,min=0"`
	Active          *bool    `db:"active"           json:"active"`
}

type ServiceResponse struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Category            string  `json:"category"`
	DurationMinutes     int     `json:"duration_minutes"`
	Price               float64 `json:"price"`
	RequiresSpecialRoom bool    `json:"requires_special_room"`
	IsCouplesService    bool    `json:"is_couples_service"`
	Active              bool    `json:"active"`
	gDto.Metadata
}

func (r *ServiceResponse) FromModel(model model.Service) {
	r.ID = model.ID
	r.Name = model.Name
	r.Category = model.Category
	r.DurationMinutes = model.DurationMinutes
	r.Price = model.Price
	r.RequiresSpecialRoom = model.RequiresSpecialRoom
	r.IsCouplesService = model.IsCouplesService
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetServicesResponse struct {
	Services  []ServiceResponse `json:"services"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetServicesResponse) FromModels(models []model.Service, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Services = make([]ServiceResponse, len(models))
	for i, mod := range models {
		r.Services[i].FromModel(mod)
	}
}

type CreateStaffRequest struct {
	Name          string   `json:"name"            validate:"required,min=3,max=100"`
	Capabilities  []string `json:"capabilities"    validate:"required,min=1,dive,oneof=facial massage waxing body_treatment package special"`
	WorkDays      []int64  `json:"work_days"       validate:"required,min=1,dive,min=1,max=7"`
	DefaultRoomID string   `json:"default_room_id" validate:"omitempty,uuid"`
}

func (c *CreateStaffRequest) ToModel(user string) model.Staff {
	staff := model.Staff{
		ID:           uuid.NewString(),
		Name:         c.Name,
		Capabilities: pq.StringArray(c.Capabilities),
		WorkDays:     pq.Int64Array(c.WorkDays),
		Active:       true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}

	if c.DefaultRoomID != "" {
		staff.DefaultRoomID = &c.DefaultRoomID
	}

	return staff
}

type UpdateStaffRequest struct {
	Name          string         `db:"name"            json:"name"            validate:"omitempty,min=3,max=100"`
	Capabilities  pq.StringArray `db:"capabilities"    json:"capabilities"    validate:"omitempty,min=1,dive,oneof=facial massage waxing body_treatment package special"`
	WorkDays      pq.Int64Array  `db:"work_days"       json:"work_days"       validate:"omitempty,min=1,dive,min=1,max=7"`
	DefaultRoomID string         `db:"default_room_id" json:"default_room_id" validate:"omitempty,uuid"`
	Active        *bool          `db:"active"          json:"active"`
}

type StaffResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Capabilities  []string `json:"capabilities"`
	WorkDays      []int64  `json:"work_days"`
	DefaultRoomID string   `json:"default_room_id,omitempty"`
	Active        bool     `json:"active"`
	gDto.Metadata
}

func (r *StaffResponse) FromModel(model model.Staff) {
	r.ID = model.ID
	r.Name = model.Name
	r.Capabilities = model.Capabilities
	r.WorkDays = model.WorkDays
	r.Active = model.Active

	if model.DefaultRoomID != nil {
		r.DefaultRoomID = *model.DefaultRoomID
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetStaffResponse struct {
	Staff     []StaffResponse `json:"staff"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetStaffResponse) FromModels(models []model.Staff, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Staff = make([]StaffResponse, len(models))
	for i, mod := range models {
		r.Staff[i].FromModel(mod)
	}
}

type CreateRoomRequest struct {
	Name                string   `json:"name"                 validate:"required,min=3,max=100"`
	SupportedCategories []string `json:"supported_categories" validate:"required,min=1,dive,oneof=facial massage waxing body_treatment package special"`
	IsSpecialTreatment  bool     `json:"is_special_treatment"`
	IsCouplesRoom       bool     `json:"is_couples_room"`
}

func (c *CreateRoomRequest) ToModel(user string) model.Room {
	return model.Room{
		ID:                  uuid.NewString(),
		Name:                c.Name,
		SupportedCategories: pq.StringArray(c.SupportedCategories),
		IsSpecialTreatment:  c.IsSpecialTreatment,
		IsCouplesRoom:       c.IsCouplesRoom,
		Active:              true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateRoomRequest struct {
	Name                string         `db:"name"                 json:"name"                 validate:"omitempty,min=3,max=100"`
	SupportedCategories pq.StringArray `db:"supported_categories" json:"supported_categories" validate:"omitempty,min=1,dive,oneof=facial massage waxing body_treatment package special"`
	PhotoURL            string         `db:"photo_url"            json:"photo_url"            validate:"omitempty,url"`
	Active              *bool          `db:"active"               json:"active"`
}

type RoomResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	SupportedCategories []string `json:"supported_categories"`
	IsSpecialTreatment  bool     `json:"is_special_treatment"`
	IsCouplesRoom       bool     `json:"is_couples_room"`
	PhotoURL            string   `json:"photo_url,omitempty"`
	Active              bool     `json:"active"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.Name = model.Name
	r.SupportedCategories = model.SupportedCategories
	r.IsSpecialTreatment = model.IsSpecialTreatment
	r.IsCouplesRoom = model.IsCouplesRoom
	r.PhotoURL = model.PhotoURL
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}

type UploadRoomPhotoRequest struct {
	Photo     *multipart.FileHeader `json:"photo" swaggerignore:"true" validate:"required,mimetypes=image/png image/jpg image/jpeg"`
	PhotoFile multipart.File        `json:"-"`
}

type UploadRoomPhotoResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}
