package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/payment"
	"github.com/trezcool/markaz/core/staff"
)

var (
	ErrNotFound = core.NewNotFoundError("ledger entry")

	errEntryReversed = errors.New("ledger entry has been reversed")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		// GetEntry locks the entry row until the end of the transaction when forUpdate is set.
		GetEntry(ctx context.Context, orgID, id string, forUpdate bool, exec ...core.DBExecutor) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		// QueryEntries returns entries ordered by creation time.
		QueryEntries(ctx context.Context, orgID string, filter *QueryFilter, exec ...core.DBExecutor) ([]Entry, error)
	}

	StaffRepository interface {
		GetMember(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (staff.Member, error)
		QueryMembers(ctx context.Context, orgID string, filter *staff.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]staff.Member, error)
		AdjustBalance(ctx context.Context, orgID, id string, delta decimal.Decimal, exec ...core.DBExecutor) (decimal.Decimal, error)
	}

	PaymentTypeRepository interface {
		GetPaymentType(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (payment.Type, error)
	}

	// Service applies ledger entries to staff balances.
	// Every write persists the entry and adjusts the balance within one transaction.
	Service struct {
		tx          core.Transactor
		repo        Repository
		staffRepo   StaffRepository
		payTypeRepo PaymentTypeRepository
	}
)

func NewService(tx core.Transactor, repo Repository, staffRepo StaffRepository, payTypeRepo PaymentTypeRepository) *Service {
	return &Service{
		tx:          tx,
		repo:        repo,
		staffRepo:   staffRepo,
		payTypeRepo: payTypeRepo,
	}
}

func checkAmount(amount decimal.Decimal) error {
	return core.CheckAmount("amount", amount)
}

// Create records a new active entry and applies its effect to the staff balance.
func (svc *Service) Create(ctx context.Context, orgID string, ne NewEntry) (Entry, error) {
	if !ne.Kind.IsValid() {
		return Entry{}, core.NewFieldError("kind", "invalid ledger entry kind")
	}
	if err := checkAmount(ne.Amount); err != nil {
		return Entry{}, err
	}
	if ne.PaymentTypeID != "" && ne.Kind != KindPayout {
		return Entry{}, core.NewFieldError("payment_type_id", "payment type is only allowed on payouts")
	}
	if !core.IsID(ne.StaffID) {
		return Entry{}, staff.ErrNotFound
	}

	var entry Entry
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		member, err := svc.staffRepo.GetMember(ctx, orgID, ne.StaffID, exec)
		if err != nil {
			return err
		}
		if !member.IsActive {
			return core.NewFieldError("staff_id", "staff member is inactive")
		}
		if ne.PaymentTypeID != "" {
			if _, err = svc.payTypeRepo.GetPaymentType(ctx, orgID, ne.PaymentTypeID, exec); err != nil {
				if core.IsNotFound(err) {
					return core.NewFieldError("payment_type_id", "payment type not found")
				}
				return errors.Wrap(err, "finding payment type")
			}
		}

		now := core.Now()
		entry, err = svc.repo.CreateEntry(ctx, Entry{
			ID:             core.NewID(),
			OrganizationID: orgID,
			StaffID:        member.ID,
			Kind:           ne.Kind,
			Amount:         ne.Amount,
			State:          StateActive,
			PaymentTypeID:  ne.PaymentTypeID,
			Description:    ne.Description,
			CreatedAt:      now,
			UpdatedAt:      now,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "creating ledger entry")
		}
		_, err = svc.staffRepo.AdjustBalance(ctx, orgID, member.ID, entry.Effect(), exec)
		return errors.Wrap(err, "adjusting staff balance")
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Update changes an active entry. A new amount only applies its difference with the old one.
func (svc *Service) Update(ctx context.Context, orgID, id string, ue UpdateEntry) (Entry, error) {
	if ue.Amount != nil {
		if err := checkAmount(*ue.Amount); err != nil {
			return Entry{}, err
		}
	}
	if !core.IsID(id) {
		return Entry{}, ErrNotFound
	}

	var entry Entry
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if entry, err = svc.repo.GetEntry(ctx, orgID, id, true /* forUpdate */, exec); err != nil {
			return err
		}
		if !entry.IsActive() {
			return core.NewValidationError(errEntryReversed)
		}

		before := entry.Effect()
		if ue.Amount != nil {
			entry.Amount = *ue.Amount
		}
		if ue.Description != nil {
			entry.Description = core.CleanString(*ue.Description)
		}
		entry.UpdatedAt = core.Now()
		if entry, err = svc.repo.UpdateEntry(ctx, entry, exec); err != nil {
			return errors.Wrap(err, "updating ledger entry")
		}

		if delta := entry.Effect().Sub(before); !delta.IsZero() {
			_, err = svc.staffRepo.AdjustBalance(ctx, orgID, entry.StaffID, delta, exec)
			return errors.Wrap(err, "adjusting staff balance")
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Reverse moves an active entry to the reversed state and undoes its effect on the balance.
func (svc *Service) Reverse(ctx context.Context, orgID, id string) (Entry, error) {
	if !core.IsID(id) {
		return Entry{}, ErrNotFound
	}

	var entry Entry
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if entry, err = svc.repo.GetEntry(ctx, orgID, id, true /* forUpdate */, exec); err != nil {
			return err
		}
		if !entry.IsActive() {
			return core.NewValidationError(errEntryReversed)
		}

		undo := entry.Effect().Neg()
		now := core.Now()
		entry.State = StateReversed
		entry.ReversedAt = &now
		entry.UpdatedAt = now
		if entry, err = svc.repo.UpdateEntry(ctx, entry, exec); err != nil {
			return errors.Wrap(err, "reversing ledger entry")
		}
		_, err = svc.staffRepo.AdjustBalance(ctx, orgID, entry.StaffID, undo, exec)
		return errors.Wrap(err, "adjusting staff balance")
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (svc *Service) Get(ctx context.Context, orgID, id string) (Entry, error) {
	if !core.IsID(id) {
		return Entry{}, ErrNotFound
	}
	return svc.repo.GetEntry(ctx, orgID, id, false)
}

func (svc *Service) Query(ctx context.Context, orgID string, filter *QueryFilter) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, orgID, filter)
}

func sumEffects(entries []Entry) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, e := range entries {
		sums[e.StaffID] = sums[e.StaffID].Add(e.Effect())
	}
	return sums
}

// Reconcile recomputes the balance of a staff member from its active entries.
func (svc *Service) Reconcile(ctx context.Context, orgID, staffID string) (Reconciliation, error) {
	if !core.IsID(staffID) {
		return Reconciliation{}, staff.ErrNotFound
	}
	member, err := svc.staffRepo.GetMember(ctx, orgID, staffID)
	if err != nil {
		return Reconciliation{}, err
	}
	entries, err := svc.repo.QueryEntries(ctx, orgID, &QueryFilter{StaffID: staffID, State: StateActive})
	if err != nil {
		return Reconciliation{}, errors.Wrap(err, "querying ledger entries")
	}
	return newReconciliation(member.ID, member.Name, member.Balance, sumEffects(entries)[member.ID]), nil
}

// ReconcileOrganization reconciles every staff member of the organization.
func (svc *Service) ReconcileOrganization(ctx context.Context, orgID string) ([]Reconciliation, error) {
	members, err := svc.staffRepo.QueryMembers(ctx, orgID, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying staff members")
	}
	entries, err := svc.repo.QueryEntries(ctx, orgID, &QueryFilter{State: StateActive})
	if err != nil {
		return nil, errors.Wrap(err, "querying ledger entries")
	}

	sums := sumEffects(entries)
	recs := make([]Reconciliation, 0, len(members))
	for _, m := range members {
		recs = append(recs, newReconciliation(m.ID, m.Name, m.Balance, sums[m.ID]))
	}
	return recs, nil
}

// Repair reconciles a staff member and, when inconsistent, moves the stored balance to the computed one.
func (svc *Service) Repair(ctx context.Context, orgID, staffID string) (Reconciliation, error) {
	if !core.IsID(staffID) {
		return Reconciliation{}, staff.ErrNotFound
	}

	var rec Reconciliation
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		member, err := svc.staffRepo.GetMember(ctx, orgID, staffID, exec)
		if err != nil {
			return err
		}
		// a zero adjustment locks the staff row and reads the stored balance
		stored, err := svc.staffRepo.AdjustBalance(ctx, orgID, staffID, decimal.Zero, exec)
		if err != nil {
			return errors.Wrap(err, "locking staff balance")
		}
		entries, err := svc.repo.QueryEntries(ctx, orgID, &QueryFilter{StaffID: staffID, State: StateActive}, exec)
		if err != nil {
			return errors.Wrap(err, "querying ledger entries")
		}

		rec = newReconciliation(member.ID, member.Name, stored, sumEffects(entries)[member.ID])
		if rec.Consistent {
			return nil
		}
		if _, err = svc.staffRepo.AdjustBalance(ctx, orgID, staffID, rec.Computed.Sub(rec.Stored), exec); err != nil {
			return errors.Wrap(err, "repairing staff balance")
		}
		rec.Repaired = true
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}
	return rec, nil
}
