package inmemdb

import (
	"context"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreateType(ctx context.Context, t payment.Type, exec ...core.DBExecutor) (payment.Type, error) {
	defer repo.db.lock(exec)()

	repo.db.t.paymentType[t.ID] = t
	return t, nil
}

func (repo *paymentRepository) QueryTypes(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]payment.Type, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	types := values(repo.db.t.paymentType, func(t payment.Type) bool { return t.OrganizationID == orgID })
	order(types, nil, nil, func(a, b payment.Type) int { return compareStrings(a.Name, b.Name) })
	return types, nil
}

func (repo *paymentRepository) GetPaymentType(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (payment.Type, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	t, ok := repo.db.t.paymentType[id]
	if !ok || t.OrganizationID != orgID {
		return payment.Type{}, payment.ErrTypeNotFound
	}
	return t, nil
}

func (repo *paymentRepository) UpdateType(ctx context.Context, t payment.Type, exec ...core.DBExecutor) (payment.Type, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.paymentType[t.ID]; !ok || orig.OrganizationID != t.OrganizationID {
		return payment.Type{}, payment.ErrTypeNotFound
	}
	repo.db.t.paymentType[t.ID] = t
	return t, nil
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	defer repo.db.lock(exec)()

	repo.db.t.payment[p.ID] = p
	return p, nil
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, orgID string, filter *payment.QueryFilter, exec ...core.DBExecutor) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := values(repo.db.t.payment, func(p payment.Payment) bool {
		if p.OrganizationID != orgID {
			return false
		}
		if filter == nil {
			return true
		}
		if filter.StudentID != "" && p.StudentID != filter.StudentID {
			return false
		}
		if filter.GroupID != "" && p.GroupID != filter.GroupID {
			return false
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			return false
		}
		return inPeriod(p.PaidAt, filter.From, filter.To)
	})
	order(payments, nil, nil, func(a, b payment.Payment) int {
		if c := compareTimes(b.PaidAt, a.PaidAt); c != 0 {
			return c
		}
		return compareTimes(b.CreatedAt, a.CreatedAt)
	})
	return payments, nil
}

func (repo *paymentRepository) GetPayment(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	p, ok := repo.db.t.payment[id]
	if !ok || p.OrganizationID != orgID {
		return payment.Payment{}, payment.ErrNotFound
	}
	return p, nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.payment[p.ID]; !ok || orig.OrganizationID != p.OrganizationID {
		return payment.Payment{}, payment.ErrNotFound
	}
	repo.db.t.payment[p.ID] = p
	return p, nil
}
