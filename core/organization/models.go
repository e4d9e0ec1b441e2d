package organization

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/markaz/core"
)

// Organization is an education center; the tenant boundary of the system.
type Organization struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Logo       string    `json:"logo"` // file key
	StaffCount int       `json:"staff_count"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewOrganization contains information needed to create a new Organization.
type NewOrganization struct {
	Name    string `json:"name" validate:"required,notblank,max=200"`
	Address string `json:"address" validate:"max=250"`
	Phone   string `json:"phone" validate:"required,max=255"`
}

func (no *NewOrganization) Validate(validate *validator.Validate) error {
	no.Name = core.CleanString(no.Name)
	no.Address = core.CleanString(no.Address)
	no.Phone = core.CleanString(no.Phone)
	return validate.Struct(no)
}

// UpdateOrganization defines what information may be provided to modify an Organization.
// Empty fields are left unchanged.
type UpdateOrganization struct {
	Name    string `json:"name" validate:"max=200"`
	Address string `json:"address" validate:"max=250"`
	Phone   string `json:"phone" validate:"max=255"`
}

func (uo *UpdateOrganization) Validate(orig Organization, validate *validator.Validate) error {
	if name := core.CleanString(uo.Name); name != "" {
		uo.Name = name
	} else {
		uo.Name = orig.Name
	}
	if addr := core.CleanString(uo.Address); addr != "" {
		uo.Address = addr
	} else {
		uo.Address = orig.Address
	}
	if phone := core.CleanString(uo.Phone); phone != "" {
		uo.Phone = phone
	} else {
		uo.Phone = orig.Phone
	}
	return validate.Struct(uo)
}
