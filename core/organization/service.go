package organization

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
)

var ErrNotFound = core.NewNotFoundError("organization")

type (
	Repository interface {
		CreateOrganization(ctx context.Context, org Organization, exec ...core.DBExecutor) (Organization, error)
		QueryOrganizations(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]Organization, error)
		// GetOrganization also counts the active staff members of the organization.
		GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (Organization, error)
		UpdateOrganization(ctx context.Context, org Organization, exec ...core.DBExecutor) (Organization, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, no NewOrganization) (Organization, error) {
	now := core.Now()
	org, err := svc.repo.CreateOrganization(ctx, Organization{
		ID:        core.NewID(),
		Name:      no.Name,
		Address:   no.Address,
		Phone:     no.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return org, errors.Wrap(err, "creating organization")
}

func (svc *Service) Query(ctx context.Context, activeOnly bool) ([]Organization, error) {
	return svc.repo.QueryOrganizations(ctx, activeOnly)
}

func (svc *Service) Get(ctx context.Context, id string) (Organization, error) {
	if !core.IsID(id) {
		return Organization{}, ErrNotFound
	}
	return svc.repo.GetOrganization(ctx, id)
}

func (svc *Service) Update(ctx context.Context, org Organization, uo UpdateOrganization) (Organization, error) {
	org.Name = uo.Name
	org.Address = uo.Address
	org.Phone = uo.Phone
	org.UpdatedAt = core.Now()
	updated, err := svc.repo.UpdateOrganization(ctx, org)
	return updated, errors.Wrap(err, "updating organization")
}

// SetLogo replaces the logo of the organization and returns the key of the previous one.
func (svc *Service) SetLogo(ctx context.Context, id, key string) (Organization, string, error) {
	org, err := svc.Get(ctx, id)
	if err != nil {
		return Organization{}, "", err
	}
	old := org.Logo
	org.Logo = key
	org.UpdatedAt = core.Now()
	if org, err = svc.repo.UpdateOrganization(ctx, org); err != nil {
		return Organization{}, "", errors.Wrap(err, "setting organization logo")
	}
	return org, old, nil
}
