package lesson

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/markaz/core"
)

// Lesson is one numbered entry of a group's lesson plan.
type Lesson struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"-"`
	GroupID        string    `json:"group_id"`
	Number         int       `json:"lesson_number"`
	Title          string    `json:"title"`
	ScheduledDate  time.Time `json:"scheduled_date"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// Attendance records whether a student was present at a lesson.
type Attendance struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"-"`
	LessonID       string    `json:"lesson_id"`
	StudentID      string    `json:"student_id"`
	IsPresent      bool      `json:"is_present"`
	Notes          string    `json:"notes"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

type NewLesson struct {
	Number        int       `json:"lesson_number" validate:"required,gt=0"`
	Title         string    `json:"title" validate:"required,notblank,max=255"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	return validate.Struct(nl)
}

type UpdateLesson struct {
	Title         string    `json:"title" validate:"max=255"`
	ScheduledDate time.Time `json:"scheduled_date"`
	IsActive      *bool     `json:"is_active"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	ul.Title = core.CleanString(ul.Title)
	return validate.Struct(ul)
}

// MarkAttendance creates or replaces the attendance of a student at a lesson.
type MarkAttendance struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	IsPresent bool   `json:"is_present"`
	Notes     string `json:"notes" validate:"max=1000"`
}

func (ma *MarkAttendance) Validate(validate *validator.Validate) error {
	ma.Notes = core.CleanString(ma.Notes)
	return validate.Struct(ma)
}
