package payment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
)

var (
	ErrNotFound     = core.NewNotFoundError("payment")
	ErrTypeNotFound = core.NewNotFoundError("payment type")
)

type (
	Repository interface {
		CreateType(ctx context.Context, t Type, exec ...core.DBExecutor) (Type, error)
		QueryTypes(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]Type, error)
		GetPaymentType(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Type, error)
		UpdateType(ctx context.Context, t Type, exec ...core.DBExecutor) (Type, error)

		CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		// QueryPayments returns payments ordered by most recent payment day first.
		QueryPayments(ctx context.Context, orgID string, filter *QueryFilter, exec ...core.DBExecutor) ([]Payment, error)
		GetPayment(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Payment, error)
		UpdatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
	}

	GroupRepository interface {
		GetGroup(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (group.Group, error)
		GetActiveMembership(ctx context.Context, orgID, groupID, studentID string, exec ...core.DBExecutor) (group.Membership, error)
	}

	Service struct {
		conf      *core.Config
		repo      Repository
		groupRepo GroupRepository
	}
)

func NewService(conf *core.Config, repo Repository, groupRepo GroupRepository) *Service {
	return &Service{
		conf:      conf,
		repo:      repo,
		groupRepo: groupRepo,
	}
}

// Types

func (svc *Service) CreateType(ctx context.Context, orgID string, nt NewType) (Type, error) {
	now := core.Now()
	t, err := svc.repo.CreateType(ctx, Type{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           nt.Name,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return t, errors.Wrap(err, "creating payment type")
}

func (svc *Service) QueryTypes(ctx context.Context, orgID string) ([]Type, error) {
	return svc.repo.QueryTypes(ctx, orgID)
}

func (svc *Service) GetType(ctx context.Context, orgID, id string) (Type, error) {
	if !core.IsID(id) {
		return Type{}, ErrTypeNotFound
	}
	return svc.repo.GetPaymentType(ctx, orgID, id)
}

func (svc *Service) UpdateType(ctx context.Context, t Type, ut UpdateType) (Type, error) {
	if ut.Name != "" {
		t.Name = ut.Name
	}
	if ut.IsActive != nil {
		t.IsActive = *ut.IsActive
	}
	t.UpdatedAt = core.Now()
	t, err := svc.repo.UpdateType(ctx, t)
	return t, errors.Wrap(err, "updating payment type")
}

// Payments

// Create records a payment of a student for a group the student is an active member of.
func (svc *Service) Create(ctx context.Context, orgID string, np NewPayment) (Payment, error) {
	if err := core.CheckAmount("amount", np.Amount); err != nil {
		return Payment{}, err
	}
	if !core.IsID(np.GroupID) {
		return Payment{}, core.NewFieldError("group_id", "group not found")
	}
	if _, err := svc.groupRepo.GetGroup(ctx, orgID, np.GroupID); err != nil {
		if core.IsNotFound(err) {
			return Payment{}, core.NewFieldError("group_id", "group not found")
		}
		return Payment{}, errors.Wrap(err, "finding group")
	}
	if !core.IsID(np.StudentID) {
		return Payment{}, core.NewFieldError("student_id", "student is not a member of this group")
	}
	if _, err := svc.groupRepo.GetActiveMembership(ctx, orgID, np.GroupID, np.StudentID); err != nil {
		if core.IsNotFound(err) {
			return Payment{}, core.NewFieldError("student_id", "student is not a member of this group")
		}
		return Payment{}, errors.Wrap(err, "finding membership")
	}
	if np.PaymentTypeID != "" {
		if _, err := svc.GetType(ctx, orgID, np.PaymentTypeID); err != nil {
			if core.IsNotFound(err) {
				return Payment{}, core.NewFieldError("payment_type_id", "payment type not found")
			}
			return Payment{}, errors.Wrap(err, "finding payment type")
		}
	}

	paidAt := core.Date(np.PaidAt)
	if np.PaidAt.IsZero() {
		paidAt = svc.conf.Today()
	}

	now := core.Now()
	p, err := svc.repo.CreatePayment(ctx, Payment{
		ID:             core.NewID(),
		OrganizationID: orgID,
		StudentID:      np.StudentID,
		GroupID:        np.GroupID,
		PaymentTypeID:  np.PaymentTypeID,
		Amount:         np.Amount,
		PaidAt:         paidAt,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return p, errors.Wrap(err, "creating payment")
}

func (svc *Service) Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, orgID, filter)
}

func (svc *Service) Get(ctx context.Context, orgID, id string) (Payment, error) {
	if !core.IsID(id) {
		return Payment{}, ErrNotFound
	}
	return svc.repo.GetPayment(ctx, orgID, id)
}

// Deactivate cancels a payment. Inactive payments are left out of the dashboard totals.
func (svc *Service) Deactivate(ctx context.Context, orgID, id string) error {
	p, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	p.IsActive = false
	p.UpdatedAt = core.Now()
	_, err = svc.repo.UpdatePayment(ctx, p)
	return errors.Wrap(err, "deactivating payment")
}
