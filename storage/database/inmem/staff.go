package inmemdb

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/staff"
)

type staffRepository struct {
	db *DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db}
}

var memberColumns = map[string]comparer[staff.Member]{
	"name":       func(a, b staff.Member) int { return compareStrings(a.Name, b.Name) },
	"experience": func(a, b staff.Member) int { return compareInts(a.Experience, b.Experience) },
	"balance":    func(a, b staff.Member) int { return a.Balance.Cmp(b.Balance) },
	"created_at": func(a, b staff.Member) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

// Specialties

func (repo *staffRepository) CreateSpecialty(ctx context.Context, sp staff.Specialty, exec ...core.DBExecutor) (staff.Specialty, error) {
	defer repo.db.lock(exec)()

	repo.db.t.specialty[sp.ID] = sp
	return sp, nil
}

func (repo *staffRepository) QuerySpecialties(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]staff.Specialty, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sps := values(repo.db.t.specialty, func(sp staff.Specialty) bool { return sp.OrganizationID == orgID })
	order(sps, nil, nil, func(a, b staff.Specialty) int { return compareStrings(a.Name, b.Name) })
	return sps, nil
}

func (repo *staffRepository) GetSpecialty(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (staff.Specialty, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sp, ok := repo.db.t.specialty[id]
	if !ok || sp.OrganizationID != orgID {
		return staff.Specialty{}, staff.ErrSpecialtyNotFound
	}
	return sp, nil
}

func (repo *staffRepository) UpdateSpecialty(ctx context.Context, sp staff.Specialty, exec ...core.DBExecutor) (staff.Specialty, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.specialty[sp.ID]; !ok || orig.OrganizationID != sp.OrganizationID {
		return staff.Specialty{}, staff.ErrSpecialtyNotFound
	}
	repo.db.t.specialty[sp.ID] = sp
	return sp, nil
}

func (repo *staffRepository) DeleteSpecialty(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	sp, ok := repo.db.t.specialty[id]
	if !ok || sp.OrganizationID != orgID {
		return staff.ErrSpecialtyNotFound
	}
	for _, m := range repo.db.t.staff {
		if m.SpecialtyID == id {
			return staff.ErrSpecialtyInUse
		}
	}
	delete(repo.db.t.specialty, id)
	return nil
}

// Members

func (repo *staffRepository) CreateMember(ctx context.Context, m staff.Member, exec ...core.DBExecutor) (staff.Member, error) {
	defer repo.db.lock(exec)()

	if m.UserID != "" {
		for _, other := range repo.db.t.staff {
			if other.UserID == m.UserID {
				return staff.Member{}, core.NewConstraintError("staff_user_id_key", "user is already a staff member")
			}
		}
	}
	repo.db.t.staff[m.ID] = m
	return m, nil
}

func (repo *staffRepository) QueryMembers(ctx context.Context, orgID string, filter *staff.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]staff.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := values(repo.db.t.staff, func(m staff.Member) bool {
		if m.OrganizationID != orgID {
			return false
		}
		if filter == nil {
			return true
		}
		if filter.Search != "" && !contains(filter.Search, m.Name, m.PhoneNumber) {
			return false
		}
		if filter.Role != "" && m.Role != filter.Role {
			return false
		}
		if filter.SpecialtyID != "" && m.SpecialtyID != filter.SpecialtyID {
			return false
		}
		return filter.IsActive == nil || m.IsActive == *filter.IsActive
	})
	order(members, ordering, memberColumns, func(a, b staff.Member) int { return compareTimes(a.CreatedAt, b.CreatedAt) })
	return members, nil
}

func (repo *staffRepository) GetMember(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (staff.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	m, ok := repo.db.t.staff[id]
	if !ok || m.OrganizationID != orgID {
		return staff.Member{}, staff.ErrNotFound
	}
	return m, nil
}

func (repo *staffRepository) UpdateMember(ctx context.Context, m staff.Member, exec ...core.DBExecutor) (staff.Member, error) {
	defer repo.db.lock(exec)()

	orig, ok := repo.db.t.staff[m.ID]
	if !ok || orig.OrganizationID != m.OrganizationID {
		return staff.Member{}, staff.ErrNotFound
	}
	m.Balance = orig.Balance
	repo.db.t.staff[m.ID] = m
	return m, nil
}

func (repo *staffRepository) AdjustBalance(ctx context.Context, orgID, id string, delta decimal.Decimal, exec ...core.DBExecutor) (decimal.Decimal, error) {
	defer repo.db.lock(exec)()

	m, ok := repo.db.t.staff[id]
	if !ok || m.OrganizationID != orgID {
		return decimal.Zero, staff.ErrNotFound
	}
	m.Balance = m.Balance.Add(delta)
	repo.db.t.staff[id] = m
	return m.Balance, nil
}
