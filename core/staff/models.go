package staff

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
)

// Roles
const (
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

type SalaryScheme int

const (
	SalaryMonthly SalaryScheme = iota + 1
	SalaryWorkly
	SalaryDaily
)

var salarySchemeNames = map[SalaryScheme]string{
	SalaryMonthly: "monthly",
	SalaryWorkly:  "workly",
	SalaryDaily:   "daily",
}

func (s SalaryScheme) String() string {
	return salarySchemeNames[s]
}

func (s SalaryScheme) IsValid() bool {
	_, ok := salarySchemeNames[s]
	return ok
}

type Specialty struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"-"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// Member is a staff member of an organization.
// Balance is only ever changed by the ledger.
type Member struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"-"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	PhoneNumber    string          `json:"phone_number"`
	Avatar         string          `json:"avatar"` // file key
	Gender         string          `json:"gender"`
	Experience     int             `json:"experience"`
	Role           string          `json:"role"`
	SpecialtyID    string          `json:"specialty_id"`
	SalaryScheme   SalaryScheme    `json:"salary_scheme"`
	SalaryAmount   decimal.Decimal `json:"salary_amount"`
	Balance        decimal.Decimal `json:"balance"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at"` // UTC
}

func (m Member) IsTeacher() bool {
	return m.Role == RoleTeacher
}

func (m Member) MarshalJSON() ([]byte, error) {
	type member Member
	return json.Marshal(struct {
		member
		SalarySchemeName string `json:"salary_scheme_name"`
	}{member(m), m.SalaryScheme.String()})
}

type NewSpecialty struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (ns *NewSpecialty) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type UpdateSpecialty struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	IsActive *bool  `json:"is_active"`
}

func (us *UpdateSpecialty) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	return validate.Struct(us)
}

// NewMember contains information needed to create a new staff Member.
type NewMember struct {
	UserID       string          `json:"user_id" validate:"omitempty,uuid"`
	Name         string          `json:"name" validate:"required,notblank,max=255"`
	PhoneNumber  string          `json:"phone_number" validate:"required,max=13"`
	Gender       string          `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	Experience   int             `json:"experience" validate:"min=0"`
	Role         string          `json:"role" validate:"required,oneof=teacher admin manager"`
	SpecialtyID  string          `json:"specialty_id" validate:"required,uuid"`
	SalaryScheme SalaryScheme    `json:"salary_scheme" validate:"required,min=1,max=3"`
	SalaryAmount decimal.Decimal `json:"salary_amount"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.PhoneNumber = core.CleanString(nm.PhoneNumber)
	nm.Gender = core.CleanString(nm.Gender)
	nm.Role = core.CleanString(nm.Role, true /* lower */)
	return validate.Struct(nm)
}

// UpdateMember defines what may be changed on a staff Member. The balance may not.
type UpdateMember struct {
	Name         string           `json:"name" validate:"max=255"`
	PhoneNumber  string           `json:"phone_number" validate:"max=13"`
	Gender       string           `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	Experience   *int             `json:"experience" validate:"omitempty,min=0"`
	Role         string           `json:"role" validate:"omitempty,oneof=teacher admin manager"`
	SpecialtyID  string           `json:"specialty_id" validate:"omitempty,uuid"`
	SalaryScheme SalaryScheme     `json:"salary_scheme" validate:"omitempty,min=1,max=3"`
	SalaryAmount *decimal.Decimal `json:"salary_amount"`
	IsActive     *bool            `json:"is_active"`
}

func (um *UpdateMember) Validate(validate *validator.Validate) error {
	um.Name = core.CleanString(um.Name)
	um.PhoneNumber = core.CleanString(um.PhoneNumber)
	um.Gender = core.CleanString(um.Gender)
	um.Role = core.CleanString(um.Role, true /* lower */)
	return validate.Struct(um)
}

type QueryFilter struct {
	Search      string `query:"search"`
	Role        string `query:"role"`
	SpecialtyID string `query:"specialty_id"`
	IsActive    *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
