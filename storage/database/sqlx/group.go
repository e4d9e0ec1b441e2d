package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
)

var (
	groupOrderings = map[string]string{
		"name":       "name",
		"start_date": "start_date",
		"end_date":   "end_date",
		"created_at": "created_at",
	}

	// schedule slots are ordered by day of the week, monday first
	weekdays = pq.StringArray(core.Weekdays)
)

type groupRow struct {
	ID             string              `db:"id"`
	OrganizationID string              `db:"organization_id"`
	Name           string              `db:"name"`
	TeacherID      string              `db:"teacher_id"`
	StartDate      time.Time           `db:"start_date"`
	EndDate        time.Time           `db:"end_date"`
	Price          decimal.NullDecimal `db:"price"`
	IsActive       bool                `db:"is_active"`
	CreatedAt      time.Time           `db:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at"`
}

func (r groupRow) unwrap() group.Group {
	g := group.Group{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		TeacherID:      r.TeacherID,
		StartDate:      core.Date(r.StartDate),
		EndDate:        core.Date(r.EndDate),
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.Price.Valid {
		price := r.Price.Decimal
		g.Price = &price
	}
	return g
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

type membershipRow struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	GroupID        string    `db:"group_id"`
	StudentID      string    `db:"student_id"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r membershipRow) unwrap() group.Membership {
	return group.Membership{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		GroupID:        r.GroupID,
		StudentID:      r.StudentID,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type slotRow struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	GroupID        string    `db:"group_id"`
	DayOfWeek      string    `db:"day_of_week"`
	StartTime      string    `db:"start_time"`
	EndTime        string    `db:"end_time"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r slotRow) unwrap() group.ScheduleSlot {
	return group.ScheduleSlot{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		GroupID:        r.GroupID,
		DayOfWeek:      r.DayOfWeek,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

const (
	groupSelect = `
SELECT id, organization_id, name, teacher_id, start_date, end_date, price, is_active, created_at, updated_at
FROM "group"`
	membershipSelect = `SELECT id, organization_id, group_id, student_id, is_active, created_at, updated_at FROM membership`
	slotSelect       = `
SELECT id, organization_id, group_id, day_of_week,
       to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time,
       is_active, created_at, updated_at
FROM schedule_slot`
)

type groupRepository struct {
	baseRepository
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{baseRepository{db: db}}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO "group" (id, organization_id, name, teacher_id, start_date, end_date, price, is_active,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.OrganizationID, g.Name, g.TeacherID, g.StartDate, g.EndDate, nullDecimal(g.Price), g.IsActive,
		g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return group.Group{}, trapErr(err, group.ErrNotFound, "inserting group")
	}
	return g, nil
}

func (repo *groupRepository) QueryGroups(ctx context.Context, orgID string, qf *group.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]group.Group, error) {
	var f filter
	f.where("organization_id = ?", orgID)
	if qf != nil {
		f.search(qf.Search, "name")
		if qf.TeacherID != "" {
			f.where("teacher_id = ?", qf.TeacherID)
		}
		if qf.IsActive != nil {
			f.where("is_active = ?", *qf.IsActive)
		}
	}
	q, args := f.build(groupSelect, orderBy(ordering, groupOrderings, "created_at, id"))

	var rows []groupRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, trapErr(err, group.ErrNotFound, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.unwrap())
	}
	return groups, nil
}

func (repo *groupRepository) GetGroup(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (group.Group, error) {
	row, err := selectOne[groupRow](ctx, repo.getExec(exec), groupSelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return group.Group{}, trapErr(err, group.ErrNotFound, "getting group")
	}
	return row.unwrap(), nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	err := execOne(ctx, repo.getExec(exec), group.ErrNotFound, `
		UPDATE "group" SET name = $3, teacher_id = $4, start_date = $5, end_date = $6, price = $7, is_active = $8,
		                   updated_at = $9
		WHERE organization_id = $1 AND id = $2`,
		g.OrganizationID, g.ID, g.Name, g.TeacherID, g.StartDate, g.EndDate, nullDecimal(g.Price), g.IsActive,
		g.UpdatedAt)
	if err != nil {
		return group.Group{}, trapErr(err, group.ErrNotFound, "updating group")
	}
	return g, nil
}

// Memberships

func (repo *groupRepository) CreateMembership(ctx context.Context, m group.Membership, exec ...core.DBExecutor) (group.Membership, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO membership (id, organization_id, group_id, student_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.OrganizationID, m.GroupID, m.StudentID, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return group.Membership{}, trapErr(err, group.ErrMembershipNotFound, "inserting membership", group.ErrAlreadyMember)
	}
	return m, nil
}

func (repo *groupRepository) GetActiveMembership(ctx context.Context, orgID, groupID, studentID string, exec ...core.DBExecutor) (group.Membership, error) {
	row, err := selectOne[membershipRow](ctx, repo.getExec(exec),
		membershipSelect+" WHERE organization_id = $1 AND group_id = $2 AND student_id = $3 AND is_active",
		orgID, groupID, studentID)
	if err != nil {
		return group.Membership{}, trapErr(err, group.ErrMembershipNotFound, "getting membership")
	}
	return row.unwrap(), nil
}

func (repo *groupRepository) QueryMemberships(ctx context.Context, orgID, groupID string, activeOnly bool, exec ...core.DBExecutor) ([]group.Membership, error) {
	var f filter
	f.where("organization_id = ?", orgID)
	f.where("group_id = ?", groupID)
	if activeOnly {
		f.where("is_active")
	}
	q, args := f.build(membershipSelect, "ORDER BY created_at, id")

	var rows []membershipRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, trapErr(err, group.ErrMembershipNotFound, "querying memberships")
	}
	ms := make([]group.Membership, 0, len(rows))
	for _, r := range rows {
		ms = append(ms, r.unwrap())
	}
	return ms, nil
}

func (repo *groupRepository) UpdateMembership(ctx context.Context, m group.Membership, exec ...core.DBExecutor) (group.Membership, error) {
	err := execOne(ctx, repo.getExec(exec), group.ErrMembershipNotFound, `
		UPDATE membership SET is_active = $3, updated_at = $4
		WHERE organization_id = $1 AND id = $2`,
		m.OrganizationID, m.ID, m.IsActive, m.UpdatedAt)
	if err != nil {
		return group.Membership{}, trapErr(err, group.ErrMembershipNotFound, "updating membership", group.ErrAlreadyMember)
	}
	return m, nil
}

// Schedule

func (repo *groupRepository) CreateScheduleSlot(ctx context.Context, s group.ScheduleSlot, exec ...core.DBExecutor) (group.ScheduleSlot, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO schedule_slot (id, organization_id, group_id, day_of_week, start_time, end_time, is_active,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.OrganizationID, s.GroupID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsActive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return group.ScheduleSlot{}, trapErr(err, group.ErrSlotNotFound, "inserting schedule slot", group.ErrDayTaken)
	}
	return s, nil
}

func (repo *groupRepository) QueryScheduleSlots(ctx context.Context, orgID, groupID string, exec ...core.DBExecutor) ([]group.ScheduleSlot, error) {
	var rows []slotRow
	err := selectAll(ctx, repo.getExec(exec), &rows, slotSelect+`
		WHERE organization_id = $1 AND group_id = $2
		ORDER BY array_position($3::text[], day_of_week::text), start_time`,
		orgID, groupID, weekdays)
	if err != nil {
		return nil, trapErr(err, group.ErrSlotNotFound, "querying schedule slots")
	}
	slots := make([]group.ScheduleSlot, 0, len(rows))
	for _, r := range rows {
		slots = append(slots, r.unwrap())
	}
	return slots, nil
}

func (repo *groupRepository) DeleteScheduleSlot(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	err := execOne(ctx, repo.getExec(exec), group.ErrSlotNotFound,
		`DELETE FROM schedule_slot WHERE organization_id = $1 AND id = $2`, orgID, id)
	return trapErr(err, group.ErrSlotNotFound, "deleting schedule slot")
}
