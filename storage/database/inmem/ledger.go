package inmemdb

import (
	"context"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/staff"
)

type ledgerRepository struct {
	db *DB
}

var (
	_ ledger.Repository      = (*ledgerRepository)(nil) // interface compliance check
	_ ledger.StaffRepository = (*staffRepository)(nil)  // interface compliance check
)

func NewLedgerRepository(db *DB) *ledgerRepository {
	return &ledgerRepository{db: db}
}

func (repo *ledgerRepository) CreateEntry(ctx context.Context, e ledger.Entry, exec ...core.DBExecutor) (ledger.Entry, error) {
	defer repo.db.lock(exec)()

	if m, ok := repo.db.t.staff[e.StaffID]; !ok || m.OrganizationID != e.OrganizationID {
		return ledger.Entry{}, staff.ErrNotFound
	}
	repo.db.t.ledgerEntry[e.ID] = e
	return e, nil
}

// GetEntry ignores forUpdate: transactions already run one at a time.
func (repo *ledgerRepository) GetEntry(ctx context.Context, orgID, id string, forUpdate bool, exec ...core.DBExecutor) (ledger.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	e, ok := repo.db.t.ledgerEntry[id]
	if !ok || e.OrganizationID != orgID {
		return ledger.Entry{}, ledger.ErrNotFound
	}
	return e, nil
}

func (repo *ledgerRepository) UpdateEntry(ctx context.Context, e ledger.Entry, exec ...core.DBExecutor) (ledger.Entry, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.ledgerEntry[e.ID]; !ok || orig.OrganizationID != e.OrganizationID {
		return ledger.Entry{}, ledger.ErrNotFound
	}
	repo.db.t.ledgerEntry[e.ID] = e
	return e, nil
}

func (repo *ledgerRepository) QueryEntries(ctx context.Context, orgID string, filter *ledger.QueryFilter, exec ...core.DBExecutor) ([]ledger.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := values(repo.db.t.ledgerEntry, func(e ledger.Entry) bool {
		if e.OrganizationID != orgID {
			return false
		}
		if filter == nil {
			return true
		}
		if filter.StaffID != "" && e.StaffID != filter.StaffID {
			return false
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			return false
		}
		if filter.State != "" && e.State != filter.State {
			return false
		}
		return inPeriod(e.CreatedAt, filter.From, filter.To)
	})
	order(entries, nil, nil, func(a, b ledger.Entry) int {
		if c := compareTimes(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(a.ID, b.ID)
	})
	return entries, nil
}
