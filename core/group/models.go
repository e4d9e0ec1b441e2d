package group

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
)

// Group is a class taught by one teacher over a period of days.
type Group struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"-"`
	Name           string           `json:"name"`
	TeacherID      string           `json:"teacher_id"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	Price          *decimal.Decimal `json:"price"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"` // UTC
	UpdatedAt      time.Time        `json:"updated_at"` // UTC
}

// Membership links a student to a group. There is at most one active membership per pair.
type Membership struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"-"`
	GroupID        string    `json:"group_id"`
	StudentID      string    `json:"student_id"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// ScheduleSlot is the weekly time a group meets on one day. There is one slot per day per group.
type ScheduleSlot struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"-"`
	GroupID        string    `json:"group_id"`
	DayOfWeek      string    `json:"day_of_week"`
	StartTime      string    `json:"start_time"` // HH:MM
	EndTime        string    `json:"end_time"`   // HH:MM
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name      string           `json:"name" validate:"required,notblank,max=100"`
	TeacherID string           `json:"teacher_id" validate:"required,uuid"`
	StartDate time.Time        `json:"start_date" validate:"required"`
	EndDate   time.Time        `json:"end_date" validate:"required"`
	Price     *decimal.Decimal `json:"price"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	ng.StartDate = core.Date(ng.StartDate)
	ng.EndDate = core.Date(ng.EndDate)
	return validate.Struct(ng)
}

// UpdateGroup defines what may be changed on a Group. Empty fields are left unchanged.
type UpdateGroup struct {
	Name      string           `json:"name" validate:"max=100"`
	TeacherID string           `json:"teacher_id" validate:"omitempty,uuid"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Price     *decimal.Decimal `json:"price"`
	IsActive  *bool            `json:"is_active"`
}

func (ug *UpdateGroup) Validate(validate *validator.Validate) error {
	ug.Name = core.CleanString(ug.Name)
	return validate.Struct(ug)
}

type NewMembership struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

func (nm *NewMembership) Validate(validate *validator.Validate) error {
	return validate.Struct(nm)
}

type NewScheduleSlot struct {
	DayOfWeek string `json:"day_of_week" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

func (ns *NewScheduleSlot) Validate(validate *validator.Validate) error {
	ns.DayOfWeek = core.CleanString(ns.DayOfWeek, true /* lower */)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Search    string `query:"search"`
	TeacherID string `query:"teacher_id"`
	IsActive  *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
