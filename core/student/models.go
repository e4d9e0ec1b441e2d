package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/markaz/core"
)

// Student may be enrolled in several organizations.
// IsActive is the state of the enrollment in the organization the student was read through.
type Student struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	MiddleName  string    `json:"middle_name"`
	PhoneNumber string    `json:"phone_number"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Bio         string    `json:"bio"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	FirstName   string    `json:"first_name" validate:"required,notblank,max=100"`
	LastName    string    `json:"last_name" validate:"required,notblank,max=100"`
	MiddleName  string    `json:"middle_name" validate:"max=100"`
	PhoneNumber string    `json:"phone_number" validate:"required,max=13"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"required"`
	Bio         string    `json:"bio"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.MiddleName = core.CleanString(ns.MiddleName)
	ns.PhoneNumber = core.CleanString(ns.PhoneNumber)
	ns.Bio = core.CleanString(ns.Bio)
	ns.DateOfBirth = core.Date(ns.DateOfBirth)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be changed on a Student. Empty fields are left unchanged.
type UpdateStudent struct {
	FirstName   string    `json:"first_name" validate:"max=100"`
	LastName    string    `json:"last_name" validate:"max=100"`
	MiddleName  *string   `json:"middle_name" validate:"omitempty,max=100"`
	PhoneNumber string    `json:"phone_number" validate:"max=13"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Bio         *string   `json:"bio"`
	IsActive    *bool     `json:"is_active"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.FirstName = core.CleanString(us.FirstName)
	us.LastName = core.CleanString(us.LastName)
	us.PhoneNumber = core.CleanString(us.PhoneNumber)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
	GroupID  string `query:"group_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
