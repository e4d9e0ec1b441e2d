package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/ledger"
)

type entryRow struct {
	ID             string          `db:"id"`
	OrganizationID string          `db:"organization_id"`
	StaffID        string          `db:"staff_id"`
	Kind           string          `db:"kind"`
	Amount         decimal.Decimal `db:"amount"`
	State          string          `db:"state"`
	PaymentTypeID  null.String     `db:"payment_type_id"`
	Description    null.String     `db:"description"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
	ReversedAt     null.Time       `db:"reversed_at"`
}

func (r entryRow) unwrap() ledger.Entry {
	e := ledger.Entry{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		StaffID:        r.StaffID,
		Kind:           ledger.Kind(r.Kind),
		Amount:         r.Amount,
		State:          ledger.State(r.State),
		PaymentTypeID:  r.PaymentTypeID.String,
		Description:    r.Description.String,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.ReversedAt.Valid {
		t := r.ReversedAt.Time.UTC()
		e.ReversedAt = &t
	}
	return e
}

const entrySelect = `
SELECT id, organization_id, staff_id, kind, amount, state, payment_type_id, description,
       created_at, updated_at, reversed_at
FROM ledger_entry`

type ledgerRepository struct {
	baseRepository
}

var _ ledger.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *sqlx.DB) *ledgerRepository {
	return &ledgerRepository{baseRepository{db: db}}
}

func (repo *ledgerRepository) CreateEntry(ctx context.Context, e ledger.Entry, exec ...core.DBExecutor) (ledger.Entry, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO ledger_entry (id, organization_id, staff_id, kind, amount, state, payment_type_id, description,
		                          created_at, updated_at, reversed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.OrganizationID, e.StaffID, string(e.Kind), e.Amount, string(e.State),
		null.NewString(e.PaymentTypeID, e.PaymentTypeID != ""), null.NewString(e.Description, e.Description != ""),
		e.CreatedAt, e.UpdatedAt, null.TimeFromPtr(e.ReversedAt))
	if err != nil {
		return ledger.Entry{}, trapErr(err, ledger.ErrNotFound, "inserting ledger entry")
	}
	return e, nil
}

func (repo *ledgerRepository) GetEntry(ctx context.Context, orgID, id string, forUpdate bool, exec ...core.DBExecutor) (ledger.Entry, error) {
	q := entrySelect + " WHERE organization_id = $1 AND id = $2"
	if forUpdate {
		q += " FOR UPDATE"
	}
	row, err := selectOne[entryRow](ctx, repo.getExec(exec), q, orgID, id)
	if err != nil {
		return ledger.Entry{}, trapErr(err, ledger.ErrNotFound, "getting ledger entry")
	}
	return row.unwrap(), nil
}

func (repo *ledgerRepository) UpdateEntry(ctx context.Context, e ledger.Entry, exec ...core.DBExecutor) (ledger.Entry, error) {
	err := execOne(ctx, repo.getExec(exec), ledger.ErrNotFound, `
		UPDATE ledger_entry SET amount = $3, state = $4, description = $5, updated_at = $6, reversed_at = $7
		WHERE organization_id = $1 AND id = $2`,
		e.OrganizationID, e.ID, e.Amount, string(e.State), null.NewString(e.Description, e.Description != ""),
		e.UpdatedAt, null.TimeFromPtr(e.ReversedAt))
	if err != nil {
		return ledger.Entry{}, trapErr(err, ledger.ErrNotFound, "updating ledger entry")
	}
	return e, nil
}

func (repo *ledgerRepository) QueryEntries(ctx context.Context, orgID string, qf *ledger.QueryFilter, exec ...core.DBExecutor) ([]ledger.Entry, error) {
	var f filter
	f.where("organization_id = ?", orgID)
	if qf != nil {
		if qf.StaffID != "" {
			f.where("staff_id = ?", qf.StaffID)
		}
		if qf.Kind != "" {
			f.where("kind = ?", string(qf.Kind))
		}
		if qf.State != "" {
			f.where("state = ?", string(qf.State))
		}
		if !qf.From.IsZero() {
			f.where("created_at >= ?", qf.From.UTC())
		}
		if !qf.To.IsZero() {
			f.where("created_at <= ?", qf.To.UTC())
		}
	}
	q, args := f.build(entrySelect, "ORDER BY created_at, id")

	var rows []entryRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, trapErr(err, ledger.ErrNotFound, "querying ledger entries")
	}
	entries := make([]ledger.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.unwrap())
	}
	return entries, nil
}
