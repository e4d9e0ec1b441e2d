package boiledrepos

import (
	"context"
	"time"

	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/dashboard"
	"github.com/trezcool/markaz/core/staff"
)

const summaryQuery = `
SELECT
    (SELECT COUNT(*) FROM student_organization
      WHERE organization_id = $1 AND is_active) AS active_students,
    (SELECT COUNT(*) FROM staff
      WHERE organization_id = $1 AND is_active AND role = $3) AS active_teachers,
    (SELECT COUNT(*) FROM "group"
      WHERE organization_id = $1 AND is_active) AS active_groups,
    (SELECT COALESCE(SUM(amount), 0) FROM payment
      WHERE organization_id = $1 AND is_active AND paid_at = $2) AS today_payments`

type dashboardRepository struct {
	exec core.DBExecutor
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(exec core.DBExecutor) *dashboardRepository {
	return &dashboardRepository{exec: exec}
}

func (repo dashboardRepository) Summary(ctx context.Context, orgID string, day time.Time, exec ...core.DBExecutor) (dashboard.Summary, error) {
	var s dashboard.Summary
	err := queries.Raw(summaryQuery, orgID, core.Date(day), staff.RoleTeacher).Bind(ctx, getExec(exec, repo.exec), &s)
	if err != nil {
		return dashboard.Summary{}, trapErr(err, core.NewNotFoundError("organization"), "computing dashboard summary")
	}
	return s, nil
}
