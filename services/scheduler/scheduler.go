package schedulersvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/organization"
)

type (
	OrganizationLister interface {
		Query(ctx context.Context, activeOnly bool) ([]organization.Organization, error)
	}

	Reconciler interface {
		ReconcileOrganization(ctx context.Context, orgID string) ([]ledger.Reconciliation, error)
	}

	// Scheduler runs the periodic ledger reconciliation. It only reports inconsistencies, it never repairs them.
	Scheduler struct {
		cron       *cron.Cron
		orgs       OrganizationLister
		reconciler Reconciler
		logger     core.Logger
		timeout    time.Duration
	}
)

func New(conf *core.Config, orgs OrganizationLister, reconciler Reconciler, logger core.Logger) (*Scheduler, error) {
	loc := conf.Timezone
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		orgs:       orgs,
		reconciler: reconciler,
		logger:     logger,
		timeout:    10 * time.Minute,
	}
	if _, err := s.cron.AddFunc(conf.Scheduler.ReconcileSpec, s.runReconcile); err != nil {
		return nil, errors.Wrapf(err, "scheduling reconciliation %q", conf.Scheduler.ReconcileSpec)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling new runs and waits for the running ones.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.Reconcile(ctx); err != nil {
		s.logger.Error("scheduled reconciliation failed", err)
	}
}

// Reconcile checks the balances of all active organizations and returns the number of inconsistent ones.
func (s *Scheduler) Reconcile(ctx context.Context) (int, error) {
	orgs, err := s.orgs.Query(ctx, true)
	if err != nil {
		return 0, errors.Wrap(err, "querying organizations")
	}

	var inconsistent int
	for _, org := range orgs {
		recs, err := s.reconciler.ReconcileOrganization(ctx, org.ID)
		if err != nil {
			s.logger.Error("reconciling organization", err, map[string]interface{}{"organization_id": org.ID})
			continue
		}
		for _, rec := range recs {
			if rec.Consistent {
				continue
			}
			inconsistent++
			s.logger.Warn("staff balance is inconsistent with the ledger", map[string]interface{}{
				"organization_id": org.ID,
				"staff_id":        rec.StaffID,
				"stored":          rec.Stored.String(),
				"computed":        rec.Computed.String(),
			})
		}
	}
	s.logger.Info("ledger reconciliation done", map[string]interface{}{"organizations": len(orgs), "inconsistent": inconsistent})
	return inconsistent, nil
}
