package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
)

// Summary holds the headline numbers of an organization for one day.
type Summary struct {
	Day            time.Time       `json:"day" boil:"-"`
	ActiveStudents int             `json:"active_students" boil:"active_students"`
	ActiveTeachers int             `json:"active_teachers" boil:"active_teachers"`
	ActiveGroups   int             `json:"active_groups" boil:"active_groups"`
	TodayPayments  decimal.Decimal `json:"today_payments" boil:"today_payments"`
}

type (
	Repository interface {
		// Summary counts active students, teachers and groups of the organization and sums
		// its active payments paid on `day`. The sum is zero when there are none.
		Summary(ctx context.Context, orgID string, day time.Time, exec ...core.DBExecutor) (Summary, error)
	}

	// Cache stores summaries for a short time. A miss is reported with found == false.
	Cache interface {
		GetSummary(ctx context.Context, orgID string, day time.Time) (s Summary, found bool, err error)
		SetSummary(ctx context.Context, orgID string, s Summary) error
	}

	Service struct {
		conf   *core.Config
		repo   Repository
		cache  Cache
		logger core.Logger
	}
)

// NewService creates the dashboard service. cache may be nil.
func NewService(conf *core.Config, repo Repository, cache Cache, logger core.Logger) *Service {
	return &Service{
		conf:   conf,
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Get returns the summary of today, in the configured timezone.
func (svc *Service) Get(ctx context.Context, orgID string) (Summary, error) {
	day := svc.conf.Today()

	if svc.cache != nil {
		s, found, err := svc.cache.GetSummary(ctx, orgID, day)
		if err != nil {
			svc.logger.Warn("dashboard cache read failed", err, map[string]interface{}{"organization_id": orgID})
		} else if found {
			return s, nil
		}
	}

	s, err := svc.repo.Summary(ctx, orgID, day)
	if err != nil {
		return Summary{}, errors.Wrap(err, "computing dashboard summary")
	}
	s.Day = day

	if svc.cache != nil {
		if err := svc.cache.SetSummary(ctx, orgID, s); err != nil {
			svc.logger.Warn("dashboard cache write failed", err, map[string]interface{}{"organization_id": orgID})
		}
	}
	return s, nil
}
