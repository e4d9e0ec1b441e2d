package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
)

// Type is an organization-defined way of paying (cash, card, transfer...).
type Type struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"-"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// Payment is a fee paid by a student for a group.
type Payment struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"-"`
	StudentID      string          `json:"student_id"`
	GroupID        string          `json:"group_id"`
	PaymentTypeID  string          `json:"payment_type_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	PaidAt         time.Time       `json:"paid_at"` // calendar day
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at"` // UTC
}

type NewType struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

func (nt *NewType) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}

type UpdateType struct {
	Name     string `json:"name" validate:"max=255"`
	IsActive *bool  `json:"is_active"`
}

func (ut *UpdateType) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanString(ut.Name)
	return validate.Struct(ut)
}

// NewPayment contains information needed to record a Payment. PaidAt defaults to today.
type NewPayment struct {
	StudentID     string          `json:"student_id" validate:"required,uuid"`
	GroupID       string          `json:"group_id" validate:"required,uuid"`
	PaymentTypeID string          `json:"payment_type_id" validate:"omitempty,uuid"`
	Amount        decimal.Decimal `json:"amount" validate:"dgt0"`
	PaidAt        time.Time       `json:"paid_at"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	return validate.Struct(np)
}

type QueryFilter struct {
	StudentID string    `query:"student_id"`
	GroupID   string    `query:"group_id"`
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
	IsActive  *bool     `query:"is_active"`
}
