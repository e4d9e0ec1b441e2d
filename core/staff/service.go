package staff

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
)

var (
	ErrNotFound          = core.NewNotFoundError("staff member")
	ErrSpecialtyNotFound = core.NewNotFoundError("specialty")
	ErrSpecialtyInUse    = core.NewConstraintError("staff_specialty_id_fkey", "specialty is still referenced by staff members")
)

type (
	Repository interface {
		CreateSpecialty(ctx context.Context, sp Specialty, exec ...core.DBExecutor) (Specialty, error)
		QuerySpecialties(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]Specialty, error)
		GetSpecialty(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Specialty, error)
		UpdateSpecialty(ctx context.Context, sp Specialty, exec ...core.DBExecutor) (Specialty, error)
		// DeleteSpecialty fails with a core.ConstraintError while a staff member references the specialty.
		DeleteSpecialty(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error

		CreateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		QueryMembers(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Member, error)
		GetMember(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Member, error)
		// UpdateMember saves every field except the balance.
		UpdateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		// AdjustBalance atomically adds delta to the balance of the member and returns the new balance.
		AdjustBalance(ctx context.Context, orgID, id string, delta decimal.Decimal, exec ...core.DBExecutor) (decimal.Decimal, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Specialties

func (svc *Service) CreateSpecialty(ctx context.Context, orgID string, ns NewSpecialty) (Specialty, error) {
	now := core.Now()
	sp, err := svc.repo.CreateSpecialty(ctx, Specialty{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           ns.Name,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return sp, errors.Wrap(err, "creating specialty")
}

func (svc *Service) QuerySpecialties(ctx context.Context, orgID string) ([]Specialty, error) {
	return svc.repo.QuerySpecialties(ctx, orgID)
}

func (svc *Service) GetSpecialty(ctx context.Context, orgID, id string) (Specialty, error) {
	if !core.IsID(id) {
		return Specialty{}, ErrSpecialtyNotFound
	}
	return svc.repo.GetSpecialty(ctx, orgID, id)
}

func (svc *Service) UpdateSpecialty(ctx context.Context, sp Specialty, us UpdateSpecialty) (Specialty, error) {
	sp.Name = us.Name
	if us.IsActive != nil {
		sp.IsActive = *us.IsActive
	}
	sp.UpdatedAt = core.Now()
	sp, err := svc.repo.UpdateSpecialty(ctx, sp)
	return sp, errors.Wrap(err, "updating specialty")
}

func (svc *Service) DeleteSpecialty(ctx context.Context, orgID, id string) error {
	if _, err := svc.GetSpecialty(ctx, orgID, id); err != nil {
		return err
	}
	return svc.repo.DeleteSpecialty(ctx, orgID, id)
}

// Members

func (svc *Service) checkSpecialty(ctx context.Context, orgID, id string) error {
	if _, err := svc.GetSpecialty(ctx, orgID, id); err != nil {
		if core.IsNotFound(err) {
			return core.NewFieldError("specialty_id", "specialty not found")
		}
		return errors.Wrap(err, "finding specialty")
	}
	return nil
}

func checkSalary(scheme SalaryScheme, amount decimal.Decimal) error {
	if !scheme.IsValid() {
		return core.NewFieldError("salary_scheme", "invalid salary scheme")
	}
	if amount.IsNegative() {
		return core.NewFieldError("salary_amount", "salary amount cannot be negative")
	}
	if !core.IsMoney(amount) {
		return core.NewFieldError("salary_amount", "salary amount must have at most 2 decimal places")
	}
	return nil
}

func (svc *Service) CreateMember(ctx context.Context, orgID string, nm NewMember) (Member, error) {
	if err := checkSalary(nm.SalaryScheme, nm.SalaryAmount); err != nil {
		return Member{}, err
	}
	if err := svc.checkSpecialty(ctx, orgID, nm.SpecialtyID); err != nil {
		return Member{}, err
	}

	now := core.Now()
	m, err := svc.repo.CreateMember(ctx, Member{
		ID:             core.NewID(),
		OrganizationID: orgID,
		UserID:         nm.UserID,
		Name:           nm.Name,
		PhoneNumber:    nm.PhoneNumber,
		Gender:         nm.Gender,
		Experience:     nm.Experience,
		Role:           nm.Role,
		SpecialtyID:    nm.SpecialtyID,
		SalaryScheme:   nm.SalaryScheme,
		SalaryAmount:   nm.SalaryAmount,
		Balance:        decimal.Zero,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return m, errors.Wrap(err, "creating staff member")
}

func (svc *Service) QueryMembers(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error) {
	return svc.repo.QueryMembers(ctx, orgID, filter, ordering)
}

func (svc *Service) GetMember(ctx context.Context, orgID, id string) (Member, error) {
	if !core.IsID(id) {
		return Member{}, ErrNotFound
	}
	return svc.repo.GetMember(ctx, orgID, id)
}

func (svc *Service) UpdateMember(ctx context.Context, m Member, um UpdateMember) (Member, error) {
	if um.Name != "" {
		m.Name = um.Name
	}
	if um.PhoneNumber != "" {
		m.PhoneNumber = um.PhoneNumber
	}
	if um.Gender != "" {
		m.Gender = um.Gender
	}
	if um.Experience != nil {
		m.Experience = *um.Experience
	}
	if um.Role != "" {
		m.Role = um.Role
	}
	if um.SpecialtyID != "" && um.SpecialtyID != m.SpecialtyID {
		if err := svc.checkSpecialty(ctx, m.OrganizationID, um.SpecialtyID); err != nil {
			return Member{}, err
		}
		m.SpecialtyID = um.SpecialtyID
	}
	if um.SalaryScheme != 0 {
		m.SalaryScheme = um.SalaryScheme
	}
	if um.SalaryAmount != nil {
		m.SalaryAmount = *um.SalaryAmount
	}
	if um.IsActive != nil {
		m.IsActive = *um.IsActive
	}
	if err := checkSalary(m.SalaryScheme, m.SalaryAmount); err != nil {
		return Member{}, err
	}

	m.UpdatedAt = core.Now()
	m, err := svc.repo.UpdateMember(ctx, m)
	return m, errors.Wrap(err, "updating staff member")
}

// SetAvatar replaces the avatar of the member and returns the key of the previous one.
func (svc *Service) SetAvatar(ctx context.Context, orgID, id, key string) (Member, string, error) {
	m, err := svc.GetMember(ctx, orgID, id)
	if err != nil {
		return Member{}, "", err
	}
	old := m.Avatar
	m.Avatar = key
	m.UpdatedAt = core.Now()
	if m, err = svc.repo.UpdateMember(ctx, m); err != nil {
		return Member{}, "", errors.Wrap(err, "setting staff avatar")
	}
	return m, old, nil
}

// Deactivate soft deletes the member. Its ledger history is kept.
func (svc *Service) Deactivate(ctx context.Context, orgID, id string) error {
	m, err := svc.GetMember(ctx, orgID, id)
	if err != nil {
		return err
	}
	m.IsActive = false
	m.UpdatedAt = core.Now()
	_, err = svc.repo.UpdateMember(ctx, m)
	return errors.Wrap(err, "deactivating staff member")
}
