package inmemdb

import (
	"context"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db}
}

var groupColumns = map[string]comparer[group.Group]{
	"name":       func(a, b group.Group) int { return compareStrings(a.Name, b.Name) },
	"start_date": func(a, b group.Group) int { return compareTimes(a.StartDate, b.StartDate) },
	"end_date":   func(a, b group.Group) int { return compareTimes(a.EndDate, b.EndDate) },
	"created_at": func(a, b group.Group) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

var weekdayIndex = func() map[string]int {
	idx := make(map[string]int, len(core.Weekdays))
	for i, day := range core.Weekdays {
		idx[day] = i
	}
	return idx
}()

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	defer repo.db.lock(exec)()

	repo.db.t.group[g.ID] = g
	return g, nil
}

func (repo *groupRepository) QueryGroups(ctx context.Context, orgID string, filter *group.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := values(repo.db.t.group, func(g group.Group) bool {
		if g.OrganizationID != orgID {
			return false
		}
		if filter == nil {
			return true
		}
		if filter.Search != "" && !contains(filter.Search, g.Name) {
			return false
		}
		if filter.TeacherID != "" && g.TeacherID != filter.TeacherID {
			return false
		}
		return filter.IsActive == nil || g.IsActive == *filter.IsActive
	})
	order(groups, ordering, groupColumns, func(a, b group.Group) int { return compareTimes(a.CreatedAt, b.CreatedAt) })
	return groups, nil
}

func (repo *groupRepository) GetGroup(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	g, ok := repo.db.t.group[id]
	if !ok || g.OrganizationID != orgID {
		return group.Group{}, group.ErrNotFound
	}
	return g, nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.group[g.ID]; !ok || orig.OrganizationID != g.OrganizationID {
		return group.Group{}, group.ErrNotFound
	}
	repo.db.t.group[g.ID] = g
	return g, nil
}

// Memberships

func (repo *groupRepository) CreateMembership(ctx context.Context, m group.Membership, exec ...core.DBExecutor) (group.Membership, error) {
	defer repo.db.lock(exec)()

	for _, other := range repo.db.t.membership {
		if other.IsActive && other.GroupID == m.GroupID && other.StudentID == m.StudentID {
			return group.Membership{}, group.ErrAlreadyMember
		}
	}
	repo.db.t.membership[m.ID] = m
	return m, nil
}

func (repo *groupRepository) GetActiveMembership(ctx context.Context, orgID, groupID, studentID string, exec ...core.DBExecutor) (group.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, m := range repo.db.t.membership {
		if m.IsActive && m.OrganizationID == orgID && m.GroupID == groupID && m.StudentID == studentID {
			return m, nil
		}
	}
	return group.Membership{}, group.ErrMembershipNotFound
}

func (repo *groupRepository) QueryMemberships(ctx context.Context, orgID, groupID string, activeOnly bool, exec ...core.DBExecutor) ([]group.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ms := values(repo.db.t.membership, func(m group.Membership) bool {
		return m.OrganizationID == orgID && m.GroupID == groupID && (!activeOnly || m.IsActive)
	})
	order(ms, nil, nil, func(a, b group.Membership) int { return compareTimes(a.CreatedAt, b.CreatedAt) })
	return ms, nil
}

func (repo *groupRepository) UpdateMembership(ctx context.Context, m group.Membership, exec ...core.DBExecutor) (group.Membership, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.membership[m.ID]; !ok || orig.OrganizationID != m.OrganizationID {
		return group.Membership{}, group.ErrMembershipNotFound
	}
	repo.db.t.membership[m.ID] = m
	return m, nil
}

// Schedule

func (repo *groupRepository) CreateScheduleSlot(ctx context.Context, s group.ScheduleSlot, exec ...core.DBExecutor) (group.ScheduleSlot, error) {
	defer repo.db.lock(exec)()

	for _, other := range repo.db.t.scheduleSlot {
		if other.GroupID == s.GroupID && other.DayOfWeek == s.DayOfWeek {
			return group.ScheduleSlot{}, group.ErrDayTaken
		}
	}
	repo.db.t.scheduleSlot[s.ID] = s
	return s, nil
}

func (repo *groupRepository) QueryScheduleSlots(ctx context.Context, orgID, groupID string, exec ...core.DBExecutor) ([]group.ScheduleSlot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	slots := values(repo.db.t.scheduleSlot, func(s group.ScheduleSlot) bool {
		return s.OrganizationID == orgID && s.GroupID == groupID
	})
	order(slots, nil, nil, func(a, b group.ScheduleSlot) int {
		return compareInts(weekdayIndex[a.DayOfWeek], weekdayIndex[b.DayOfWeek])
	})
	return slots, nil
}

func (repo *groupRepository) DeleteScheduleSlot(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	s, ok := repo.db.t.scheduleSlot[id]
	if !ok || s.OrganizationID != orgID {
		return group.ErrSlotNotFound
	}
	delete(repo.db.t.scheduleSlot, id)
	return nil
}
