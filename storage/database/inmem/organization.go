package inmemdb

import (
	"context"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/organization"
)

type organizationRepository struct {
	db *DB
}

var _ organization.Repository = (*organizationRepository)(nil) // interface compliance check

func NewOrganizationRepository(db *DB) *organizationRepository {
	return &organizationRepository{db: db}
}

func (repo *organizationRepository) withStaffCount(org organization.Organization) organization.Organization {
	org.StaffCount = 0
	for _, m := range repo.db.t.staff {
		if m.OrganizationID == org.ID && m.IsActive {
			org.StaffCount++
		}
	}
	return org
}

func (repo *organizationRepository) CreateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	defer repo.db.lock(exec)()

	repo.db.t.organization[org.ID] = org
	return org, nil
}

func (repo *organizationRepository) QueryOrganizations(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]organization.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	orgs := values(repo.db.t.organization, func(org organization.Organization) bool {
		return !activeOnly || org.IsActive
	})
	for i := range orgs {
		orgs[i] = repo.withStaffCount(orgs[i])
	}
	order(orgs, nil, nil, func(a, b organization.Organization) int { return compareStrings(a.Name, b.Name) })
	return orgs, nil
}

func (repo *organizationRepository) GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (organization.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	org, ok := repo.db.t.organization[id]
	if !ok {
		return organization.Organization{}, organization.ErrNotFound
	}
	return repo.withStaffCount(org), nil
}

func (repo *organizationRepository) UpdateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	defer repo.db.lock(exec)()

	if _, ok := repo.db.t.organization[org.ID]; !ok {
		return organization.Organization{}, organization.ErrNotFound
	}
	repo.db.t.organization[org.ID] = org
	return repo.withStaffCount(org), nil
}
