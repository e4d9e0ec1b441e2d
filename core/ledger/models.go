package ledger

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
)

// Kind is the kind of a ledger entry. It decides the direction of its effect on the balance.
type Kind string

const (
	KindAssignment Kind = "assignment" // salary assigned to the staff member
	KindPayout     Kind = "payout"     // salary paid out
	KindFine       Kind = "fine"
)

var (
	Kinds = []Kind{KindAssignment, KindPayout, KindFine}

	plusOne  = decimal.NewFromInt(1)
	minusOne = decimal.NewFromInt(-1)
)

func (k Kind) IsValid() bool {
	return k == KindAssignment || k == KindPayout || k == KindFine
}

// sign is the direction an active entry of this kind moves the balance.
func (k Kind) sign() decimal.Decimal {
	if k == KindAssignment {
		return plusOne
	}
	return minusOne
}

// State is the lifecycle state of a ledger entry. Reversed is terminal.
type State string

const (
	StateActive   State = "active"
	StateReversed State = "reversed"
)

type Entry struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"-"`
	StaffID        string          `json:"staff_id"`
	Kind           Kind            `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	State          State           `json:"state"`
	PaymentTypeID  string          `json:"payment_type_id"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at"` // UTC
	ReversedAt     *time.Time      `json:"reversed_at"`
}

func (e Entry) IsActive() bool {
	return e.State == StateActive
}

// Effect returns the signed contribution of the entry to the staff balance.
func (e Entry) Effect() decimal.Decimal {
	if !e.IsActive() {
		return decimal.Zero
	}
	return e.Amount.Mul(e.Kind.sign())
}

// NewEntry contains information needed to record a new ledger Entry.
type NewEntry struct {
	StaffID       string          `json:"staff_id" validate:"required,uuid"`
	Kind          Kind            `json:"kind" validate:"required,oneof=assignment payout fine"`
	Amount        decimal.Decimal `json:"amount" validate:"dgt0"`
	PaymentTypeID string          `json:"payment_type_id" validate:"omitempty,uuid"`
	Description   string          `json:"description"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Description = core.CleanString(ne.Description)
	ne.Kind = Kind(core.CleanString(string(ne.Kind), true /* lower */))
	return validate.Struct(ne)
}

// UpdateEntry defines what may be changed on an active Entry.
type UpdateEntry struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
}

type QueryFilter struct {
	StaffID string    `query:"staff_id"`
	Kind    Kind      `query:"kind"`
	State   State     `query:"state"`
	From    time.Time `query:"from"`
	To      time.Time `query:"to"`
}

// Reconciliation compares the stored balance of a staff member with the one recomputed from its entries.
type Reconciliation struct {
	StaffID    string          `json:"staff_id"`
	StaffName  string          `json:"staff_name"`
	Stored     decimal.Decimal `json:"stored"`
	Computed   decimal.Decimal `json:"computed"`
	Consistent bool            `json:"consistent"`
	Repaired   bool            `json:"repaired"`
}

func newReconciliation(id, name string, stored, computed decimal.Decimal) Reconciliation {
	return Reconciliation{
		StaffID:    id,
		StaffName:  name,
		Stored:     stored,
		Computed:   computed,
		Consistent: stored.Equal(computed),
	}
}
