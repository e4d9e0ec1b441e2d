package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/organization"
)

type organizationRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Address    null.String `db:"address"`
	Phone      string      `db:"phone"`
	Logo       null.String `db:"logo"`
	StaffCount int         `db:"staff_count"`
	IsActive   bool        `db:"is_active"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func (r organizationRow) unwrap() organization.Organization {
	return organization.Organization{
		ID:         r.ID,
		Name:       r.Name,
		Address:    r.Address.String,
		Phone:      r.Phone,
		Logo:       r.Logo.String,
		StaffCount: r.StaffCount,
		IsActive:   r.IsActive,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

const organizationSelect = `
SELECT o.id, o.name, o.address, o.phone, o.logo, o.is_active, o.created_at, o.updated_at,
       (SELECT COUNT(*) FROM staff s WHERE s.organization_id = o.id AND s.is_active) AS staff_count
FROM organization o`

type organizationRepository struct {
	baseRepository
}

var _ organization.Repository = (*organizationRepository)(nil) // interface compliance check

func NewOrganizationRepository(db *sqlx.DB) *organizationRepository {
	return &organizationRepository{baseRepository{db: db}}
}

func (repo *organizationRepository) CreateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO organization (id, name, address, phone, logo, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		org.ID, org.Name, null.NewString(org.Address, org.Address != ""), org.Phone,
		null.NewString(org.Logo, org.Logo != ""), org.IsActive, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return organization.Organization{}, trapErr(err, organization.ErrNotFound, "inserting organization")
	}
	return org, nil
}

func (repo *organizationRepository) QueryOrganizations(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]organization.Organization, error) {
	var f filter
	if activeOnly {
		f.where("o.is_active")
	}
	q, args := f.build(organizationSelect, "ORDER BY o.name, o.id")

	var rows []organizationRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, trapErr(err, organization.ErrNotFound, "querying organizations")
	}
	orgs := make([]organization.Organization, 0, len(rows))
	for _, r := range rows {
		orgs = append(orgs, r.unwrap())
	}
	return orgs, nil
}

func (repo *organizationRepository) GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (organization.Organization, error) {
	row, err := selectOne[organizationRow](ctx, repo.getExec(exec), organizationSelect+" WHERE o.id = $1", id)
	if err != nil {
		return organization.Organization{}, trapErr(err, organization.ErrNotFound, "getting organization")
	}
	return row.unwrap(), nil
}

func (repo *organizationRepository) UpdateOrganization(ctx context.Context, org organization.Organization, exec ...core.DBExecutor) (organization.Organization, error) {
	ex := repo.getExec(exec)
	err := execOne(ctx, ex, organization.ErrNotFound, `
		UPDATE organization SET name = $2, address = $3, phone = $4, logo = $5, is_active = $6, updated_at = $7
		WHERE id = $1`,
		org.ID, org.Name, null.NewString(org.Address, org.Address != ""), org.Phone,
		null.NewString(org.Logo, org.Logo != ""), org.IsActive, org.UpdatedAt)
	if err != nil {
		return organization.Organization{}, trapErr(err, organization.ErrNotFound, "updating organization")
	}
	return repo.GetOrganization(ctx, org.ID, ex)
}
