package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/payment"
)

type paymentTypeRow struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Name           string    `db:"name"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r paymentTypeRow) unwrap() payment.Type {
	return payment.Type{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type paymentRow struct {
	ID             string          `db:"id"`
	OrganizationID string          `db:"organization_id"`
	StudentID      string          `db:"student_id"`
	GroupID        string          `db:"group_id"`
	PaymentTypeID  null.String     `db:"payment_type_id"`
	Amount         decimal.Decimal `db:"amount"`
	PaidAt         time.Time       `db:"paid_at"`
	IsActive       bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r paymentRow) unwrap() payment.Payment {
	return payment.Payment{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		StudentID:      r.StudentID,
		GroupID:        r.GroupID,
		PaymentTypeID:  r.PaymentTypeID.String,
		Amount:         r.Amount,
		PaidAt:         core.Date(r.PaidAt),
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

const (
	paymentTypeSelect = `SELECT id, organization_id, name, is_active, created_at, updated_at FROM payment_type`
	paymentSelect     = `
SELECT id, organization_id, student_id, group_id, payment_type_id, amount, paid_at, is_active, created_at, updated_at
FROM payment`
)

type paymentRepository struct {
	baseRepository
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{baseRepository{db: db}}
}

// Types

func (repo *paymentRepository) CreateType(ctx context.Context, t payment.Type, exec ...core.DBExecutor) (payment.Type, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO payment_type (id, organization_id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.OrganizationID, t.Name, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return payment.Type{}, trapErr(err, payment.ErrTypeNotFound, "inserting payment type")
	}
	return t, nil
}

func (repo *paymentRepository) QueryTypes(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]payment.Type, error) {
	var rows []paymentTypeRow
	err := selectAll(ctx, repo.getExec(exec), &rows, paymentTypeSelect+" WHERE organization_id = $1 ORDER BY name, id", orgID)
	if err != nil {
		return nil, trapErr(err, payment.ErrTypeNotFound, "querying payment types")
	}
	types := make([]payment.Type, 0, len(rows))
	for _, r := range rows {
		types = append(types, r.unwrap())
	}
	return types, nil
}

func (repo *paymentRepository) GetPaymentType(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (payment.Type, error) {
	row, err := selectOne[paymentTypeRow](ctx, repo.getExec(exec), paymentTypeSelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return payment.Type{}, trapErr(err, payment.ErrTypeNotFound, "getting payment type")
	}
	return row.unwrap(), nil
}

func (repo *paymentRepository) UpdateType(ctx context.Context, t payment.Type, exec ...core.DBExecutor) (payment.Type, error) {
	err := execOne(ctx, repo.getExec(exec), payment.ErrTypeNotFound, `
		UPDATE payment_type SET name = $3, is_active = $4, updated_at = $5
		WHERE organization_id = $1 AND id = $2`,
		t.OrganizationID, t.ID, t.Name, t.IsActive, t.UpdatedAt)
	if err != nil {
		return payment.Type{}, trapErr(err, payment.ErrTypeNotFound, "updating payment type")
	}
	return t, nil
}

// Payments

func (repo *paymentRepository) CreatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO payment (id, organization_id, student_id, group_id, payment_type_id, amount, paid_at, is_active,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OrganizationID, p.StudentID, p.GroupID, null.NewString(p.PaymentTypeID, p.PaymentTypeID != ""),
		p.Amount, p.PaidAt, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return payment.Payment{}, trapErr(err, payment.ErrNotFound, "inserting payment")
	}
	return p, nil
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, orgID string, qf *payment.QueryFilter, exec ...core.DBExecutor) ([]payment.Payment, error) {
	var f filter
	f.where("organization_id = ?", orgID)
	if qf != nil {
		if qf.StudentID != "" {
			f.where("student_id = ?", qf.StudentID)
		}
		if qf.GroupID != "" {
			f.where("group_id = ?", qf.GroupID)
		}
		if !qf.From.IsZero() {
			f.where("paid_at >= ?", core.Date(qf.From))
		}
		if !qf.To.IsZero() {
			f.where("paid_at <= ?", core.Date(qf.To))
		}
		if qf.IsActive != nil {
			f.where("is_active = ?", *qf.IsActive)
		}
	}
	q, args := f.build(paymentSelect, "ORDER BY paid_at DESC, created_at DESC")

	var rows []paymentRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, trapErr(err, payment.ErrNotFound, "querying payments")
	}
	payments := make([]payment.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.unwrap())
	}
	return payments, nil
}

func (repo *paymentRepository) GetPayment(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (payment.Payment, error) {
	row, err := selectOne[paymentRow](ctx, repo.getExec(exec), paymentSelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return payment.Payment{}, trapErr(err, payment.ErrNotFound, "getting payment")
	}
	return row.unwrap(), nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	err := execOne(ctx, repo.getExec(exec), payment.ErrNotFound, `
		UPDATE payment SET payment_type_id = $3, amount = $4, paid_at = $5, is_active = $6, updated_at = $7
		WHERE organization_id = $1 AND id = $2`,
		p.OrganizationID, p.ID, null.NewString(p.PaymentTypeID, p.PaymentTypeID != ""), p.Amount, p.PaidAt,
		p.IsActive, p.UpdatedAt)
	if err != nil {
		return payment.Payment{}, trapErr(err, payment.ErrNotFound, "updating payment")
	}
	return p, nil
}
