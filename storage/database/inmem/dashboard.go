package inmemdb

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/dashboard"
)

type dashboardRepository struct {
	db *DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(db *DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

func (repo *dashboardRepository) Summary(ctx context.Context, orgID string, day time.Time, exec ...core.DBExecutor) (dashboard.Summary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	s := dashboard.Summary{TodayPayments: decimal.Zero}
	for _, orgs := range repo.db.t.enrollment {
		if orgs[orgID] {
			s.ActiveStudents++
		}
	}
	for _, m := range repo.db.t.staff {
		if m.OrganizationID == orgID && m.IsActive && m.IsTeacher() {
			s.ActiveTeachers++
		}
	}
	for _, g := range repo.db.t.group {
		if g.OrganizationID == orgID && g.IsActive {
			s.ActiveGroups++
		}
	}
	day = core.Date(day)
	for _, p := range repo.db.t.payment {
		if p.OrganizationID == orgID && p.IsActive && core.Date(p.PaidAt).Equal(day) {
			s.TodayPayments = s.TodayPayments.Add(p.Amount)
		}
	}
	return s, nil
}
