package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/staff"
)

var (
	errStaffUserTaken = core.NewConstraintError("staff_user_id_key", "user is already a staff member")

	memberOrderings = map[string]string{
		"name":       "name",
		"experience": "experience",
		"balance":    "balance",
		"created_at": "created_at",
	}
)

type specialtyRow struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Name           string    `db:"name"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r specialtyRow) unwrap() staff.Specialty {
	return staff.Specialty{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type memberRow struct {
	ID             string          `db:"id"`
	OrganizationID string          `db:"organization_id"`
	UserID         null.String     `db:"user_id"`
	Name           string          `db:"name"`
	PhoneNumber    string          `db:"phone_number"`
	Avatar         null.String     `db:"avatar"`
	Gender         null.String     `db:"gender"`
	Experience     int             `db:"experience"`
	Role           string          `db:"role"`
	SpecialtyID    string          `db:"specialty_id"`
	SalaryScheme   int             `db:"salary_scheme"`
	SalaryAmount   decimal.Decimal `db:"salary_amount"`
	Balance        decimal.Decimal `db:"balance"`
	IsActive       bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r memberRow) unwrap() staff.Member {
	return staff.Member{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		UserID:         r.UserID.String,
		Name:           r.Name,
		PhoneNumber:    r.PhoneNumber,
		Avatar:         r.Avatar.String,
		Gender:         r.Gender.String,
		Experience:     r.Experience,
		Role:           r.Role,
		SpecialtyID:    r.SpecialtyID,
		SalaryScheme:   staff.SalaryScheme(r.SalaryScheme),
		SalaryAmount:   r.SalaryAmount,
		Balance:        r.Balance,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

const (
	specialtySelect = `SELECT id, organization_id, name, is_active, created_at, updated_at FROM specialty`
	memberSelect    = `
SELECT id, organization_id, user_id, name, phone_number, avatar, gender, experience, role, specialty_id,
       salary_scheme, salary_amount, balance, is_active, created_at, updated_at
FROM staff`
)

type staffRepository struct {
	baseRepository
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *sqlx.DB) *staffRepository {
	return &staffRepository{baseRepository{db: db}}
}

// Specialties

func (repo *staffRepository) CreateSpecialty(ctx context.Context, sp staff.Specialty, exec ...core.DBExecutor) (staff.Specialty, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO specialty (id, organization_id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sp.ID, sp.OrganizationID, sp.Name, sp.IsActive, sp.CreatedAt, sp.UpdatedAt)
	if err != nil {
		return staff.Specialty{}, trapErr(err, staff.ErrSpecialtyNotFound, "inserting specialty")
	}
	return sp, nil
}

func (repo *staffRepository) QuerySpecialties(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]staff.Specialty, error) {
	var rows []specialtyRow
	err := selectAll(ctx, repo.getExec(exec), &rows, specialtySelect+" WHERE organization_id = $1 ORDER BY name, id", orgID)
	if err != nil {
		return nil, trapErr(err, staff.ErrSpecialtyNotFound, "querying specialties")
	}
	sps := make([]staff.Specialty, 0, len(rows))
	for _, r := range rows {
		sps = append(sps, r.unwrap())
	}
	return sps, nil
}

func (repo *staffRepository) GetSpecialty(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (staff.Specialty, error) {
	row, err := selectOne[specialtyRow](ctx, repo.getExec(exec), specialtySelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return staff.Specialty{}, trapErr(err, staff.ErrSpecialtyNotFound, "getting specialty")
	}
	return row.unwrap(), nil
}

func (repo *staffRepository) UpdateSpecialty(ctx context.Context, sp staff.Specialty, exec ...core.DBExecutor) (staff.Specialty, error) {
	err := execOne(ctx, repo.getExec(exec), staff.ErrSpecialtyNotFound, `
		UPDATE specialty SET name = $3, is_active = $4, updated_at = $5
		WHERE organization_id = $1 AND id = $2`,
		sp.OrganizationID, sp.ID, sp.Name, sp.IsActive, sp.UpdatedAt)
	if err != nil {
		return staff.Specialty{}, trapErr(err, staff.ErrSpecialtyNotFound, "updating specialty")
	}
	return sp, nil
}

func (repo *staffRepository) DeleteSpecialty(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	err := execOne(ctx, repo.getExec(exec), staff.ErrSpecialtyNotFound,
		`DELETE FROM specialty WHERE organization_id = $1 AND id = $2`, orgID, id)
	return trapErr(err, staff.ErrSpecialtyNotFound, "deleting specialty", staff.ErrSpecialtyInUse)
}

// Members

func (repo *staffRepository) CreateMember(ctx context.Context, m staff.Member, exec ...core.DBExecutor) (staff.Member, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO staff (id, organization_id, user_id, name, phone_number, avatar, gender, experience, role,
		                   specialty_id, salary_scheme, salary_amount, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		m.ID, m.OrganizationID, null.NewString(m.UserID, m.UserID != ""), m.Name, m.PhoneNumber,
		null.NewString(m.Avatar, m.Avatar != ""), null.NewString(m.Gender, m.Gender != ""), m.Experience, m.Role,
		m.SpecialtyID, int(m.SalaryScheme), m.SalaryAmount, m.Balance, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return staff.Member{}, trapErr(err, staff.ErrNotFound, "inserting staff member", errStaffUserTaken)
	}
	return m, nil
}

func (repo *staffRepository) QueryMembers(ctx context.Context, orgID string, qf *staff.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]staff.Member, error) {
	var f filter
	f.where("organization_id = ?", orgID)
	if qf != nil {
		f.search(qf.Search, "name", "phone_number")
		if qf.Role != "" {
			f.where("role = ?", qf.Role)
		}
		if qf.SpecialtyID != "" {
			f.where("specialty_id = ?", qf.SpecialtyID)
		}
		if qf.IsActive != nil {
			f.where("is_active = ?", *qf.IsActive)
		}
	}
	q, args := f.build(memberSelect, orderBy(ordering, memberOrderings, "created_at, id"))

	var rows []memberRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, trapErr(err, staff.ErrNotFound, "querying staff members")
	}
	members := make([]staff.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.unwrap())
	}
	return members, nil
}

func (repo *staffRepository) GetMember(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (staff.Member, error) {
	row, err := selectOne[memberRow](ctx, repo.getExec(exec), memberSelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return staff.Member{}, trapErr(err, staff.ErrNotFound, "getting staff member")
	}
	return row.unwrap(), nil
}

func (repo *staffRepository) UpdateMember(ctx context.Context, m staff.Member, exec ...core.DBExecutor) (staff.Member, error) {
	row, err := selectOne[memberRow](ctx, repo.getExec(exec), `
		UPDATE staff SET user_id = $3, name = $4, phone_number = $5, avatar = $6, gender = $7, experience = $8,
		                 role = $9, specialty_id = $10, salary_scheme = $11, salary_amount = $12, is_active = $13,
		                 updated_at = $14
		WHERE organization_id = $1 AND id = $2
		RETURNING id, organization_id, user_id, name, phone_number, avatar, gender, experience, role, specialty_id,
		          salary_scheme, salary_amount, balance, is_active, created_at, updated_at`,
		m.OrganizationID, m.ID, null.NewString(m.UserID, m.UserID != ""), m.Name, m.PhoneNumber,
		null.NewString(m.Avatar, m.Avatar != ""), null.NewString(m.Gender, m.Gender != ""), m.Experience,
		m.Role, m.SpecialtyID, int(m.SalaryScheme), m.SalaryAmount, m.IsActive, m.UpdatedAt)
	if err != nil {
		return staff.Member{}, trapErr(err, staff.ErrNotFound, "updating staff member", errStaffUserTaken)
	}
	return row.unwrap(), nil
}

// AdjustBalance updates the balance in one statement; the row stays locked until the end of the transaction.
func (repo *staffRepository) AdjustBalance(ctx context.Context, orgID, id string, delta decimal.Decimal, exec ...core.DBExecutor) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := repo.getExec(exec).QueryRowContext(ctx, `
		UPDATE staff SET balance = balance + $3
		WHERE organization_id = $1 AND id = $2
		RETURNING balance`, orgID, id, delta).Scan(&balance)
	if err != nil {
		return decimal.Zero, trapErr(err, staff.ErrNotFound, "adjusting staff balance")
	}
	return balance, nil
}
