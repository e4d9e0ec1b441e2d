package group

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/staff"
	"github.com/trezcool/markaz/core/student"
)

var (
	ErrNotFound           = core.NewNotFoundError("group")
	ErrMembershipNotFound = core.NewNotFoundError("membership")
	ErrSlotNotFound       = core.NewNotFoundError("schedule slot")
	ErrAlreadyMember      = core.NewConstraintError("membership_active_uniq", "student is already a member of this group")
	ErrDayTaken           = core.NewConstraintError("schedule_slot_group_id_day_of_week_key", "group already has a schedule slot on this day")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g Group, exec ...core.DBExecutor) (Group, error)
		QueryGroups(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Group, error)
		GetGroup(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Group, error)
		UpdateGroup(ctx context.Context, g Group, exec ...core.DBExecutor) (Group, error)

		// CreateMembership fails with ErrAlreadyMember when an active membership of the pair exists.
		CreateMembership(ctx context.Context, m Membership, exec ...core.DBExecutor) (Membership, error)
		GetActiveMembership(ctx context.Context, orgID, groupID, studentID string, exec ...core.DBExecutor) (Membership, error)
		QueryMemberships(ctx context.Context, orgID, groupID string, activeOnly bool, exec ...core.DBExecutor) ([]Membership, error)
		UpdateMembership(ctx context.Context, m Membership, exec ...core.DBExecutor) (Membership, error)

		// CreateScheduleSlot fails with ErrDayTaken when the group already meets on that day.
		CreateScheduleSlot(ctx context.Context, s ScheduleSlot, exec ...core.DBExecutor) (ScheduleSlot, error)
		QueryScheduleSlots(ctx context.Context, orgID, groupID string, exec ...core.DBExecutor) ([]ScheduleSlot, error)
		DeleteScheduleSlot(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error
	}

	StaffRepository interface {
		GetMember(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (staff.Member, error)
	}

	StudentRepository interface {
		GetStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (student.Student, error)
	}

	Service struct {
		repo        Repository
		staffRepo   StaffRepository
		studentRepo StudentRepository
	}
)

func NewService(repo Repository, staffRepo StaffRepository, studentRepo StudentRepository) *Service {
	return &Service{
		repo:        repo,
		staffRepo:   staffRepo,
		studentRepo: studentRepo,
	}
}

// checkTeacher checks that id is an active teacher of the organization.
func (svc *Service) checkTeacher(ctx context.Context, orgID, id string) error {
	if !core.IsID(id) {
		return core.NewFieldError("teacher_id", "teacher not found")
	}
	m, err := svc.staffRepo.GetMember(ctx, orgID, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewFieldError("teacher_id", "teacher not found")
		}
		return errors.Wrap(err, "finding teacher")
	}
	if !m.IsActive || !m.IsTeacher() {
		return core.NewFieldError("teacher_id", "staff member is not an active teacher")
	}
	return nil
}

func checkPeriod(start, end time.Time) error {
	if end.Before(start) {
		return core.NewFieldError("end_date", "end date cannot be before start date")
	}
	return nil
}

func checkPrice(price *decimal.Decimal) error {
	if price == nil {
		return nil
	}
	if price.IsNegative() {
		return core.NewFieldError("price", "price cannot be negative")
	}
	if !core.IsMoney(*price) {
		return core.NewFieldError("price", "price must be an amount with at most 2 decimal places")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, orgID string, ng NewGroup) (Group, error) {
	if err := checkPeriod(ng.StartDate, ng.EndDate); err != nil {
		return Group{}, err
	}
	if err := checkPrice(ng.Price); err != nil {
		return Group{}, err
	}
	if err := svc.checkTeacher(ctx, orgID, ng.TeacherID); err != nil {
		return Group{}, err
	}

	now := core.Now()
	g, err := svc.repo.CreateGroup(ctx, Group{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           ng.Name,
		TeacherID:      ng.TeacherID,
		StartDate:      core.Date(ng.StartDate),
		EndDate:        core.Date(ng.EndDate),
		Price:          ng.Price,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return g, errors.Wrap(err, "creating group")
}

func (svc *Service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, orgID, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, orgID, id string) (Group, error) {
	if !core.IsID(id) {
		return Group{}, ErrNotFound
	}
	return svc.repo.GetGroup(ctx, orgID, id)
}

func (svc *Service) Update(ctx context.Context, g Group, ug UpdateGroup) (Group, error) {
	if ug.Name != "" {
		g.Name = ug.Name
	}
	if ug.TeacherID != "" && ug.TeacherID != g.TeacherID {
		if err := svc.checkTeacher(ctx, g.OrganizationID, ug.TeacherID); err != nil {
			return Group{}, err
		}
		g.TeacherID = ug.TeacherID
	}
	if !ug.StartDate.IsZero() {
		g.StartDate = core.Date(ug.StartDate)
	}
	if !ug.EndDate.IsZero() {
		g.EndDate = core.Date(ug.EndDate)
	}
	if ug.Price != nil {
		g.Price = ug.Price
	}
	if ug.IsActive != nil {
		g.IsActive = *ug.IsActive
	}
	if err := checkPeriod(g.StartDate, g.EndDate); err != nil {
		return Group{}, err
	}
	if err := checkPrice(g.Price); err != nil {
		return Group{}, err
	}

	g.UpdatedAt = core.Now()
	g, err := svc.repo.UpdateGroup(ctx, g)
	return g, errors.Wrap(err, "updating group")
}

func (svc *Service) Deactivate(ctx context.Context, orgID, id string) error {
	g, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	g.IsActive = false
	g.UpdatedAt = core.Now()
	_, err = svc.repo.UpdateGroup(ctx, g)
	return errors.Wrap(err, "deactivating group")
}

// Memberships

// AddStudent makes a student of the organization a member of the group.
func (svc *Service) AddStudent(ctx context.Context, orgID, groupID, studentID string) (Membership, error) {
	g, err := svc.Get(ctx, orgID, groupID)
	if err != nil {
		return Membership{}, err
	}
	if !core.IsID(studentID) {
		return Membership{}, core.NewFieldError("student_id", "student not found")
	}
	if _, err = svc.studentRepo.GetStudent(ctx, orgID, studentID); err != nil {
		if core.IsNotFound(err) {
			return Membership{}, core.NewFieldError("student_id", "student not found")
		}
		return Membership{}, errors.Wrap(err, "finding student")
	}

	now := core.Now()
	m, err := svc.repo.CreateMembership(ctx, Membership{
		ID:             core.NewID(),
		OrganizationID: orgID,
		GroupID:        g.ID,
		StudentID:      studentID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if core.IsConstraint(err) {
			return Membership{}, err
		}
		return Membership{}, errors.Wrap(err, "creating membership")
	}
	return m, nil
}

// RemoveStudent deactivates the active membership of the student in the group.
func (svc *Service) RemoveStudent(ctx context.Context, orgID, groupID, studentID string) error {
	if !core.IsID(groupID) || !core.IsID(studentID) {
		return ErrMembershipNotFound
	}
	m, err := svc.repo.GetActiveMembership(ctx, orgID, groupID, studentID)
	if err != nil {
		return err
	}
	m.IsActive = false
	m.UpdatedAt = core.Now()
	_, err = svc.repo.UpdateMembership(ctx, m)
	return errors.Wrap(err, "deactivating membership")
}

func (svc *Service) Memberships(ctx context.Context, orgID, groupID string) ([]Membership, error) {
	if _, err := svc.Get(ctx, orgID, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMemberships(ctx, orgID, groupID, true)
}

// IsMember reports whether the student has an active membership in the group.
func (svc *Service) IsMember(ctx context.Context, orgID, groupID, studentID string) (bool, error) {
	if !core.IsID(groupID) || !core.IsID(studentID) {
		return false, nil
	}
	if _, err := svc.repo.GetActiveMembership(ctx, orgID, groupID, studentID); err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Schedule

func (svc *Service) AddScheduleSlot(ctx context.Context, orgID, groupID string, ns NewScheduleSlot) (ScheduleSlot, error) {
	if !core.IsWeekday(ns.DayOfWeek) {
		return ScheduleSlot{}, core.NewFieldError("day_of_week", "day_of_week must be a day of the week")
	}
	start, err := time.Parse(core.ClockLayout, ns.StartTime)
	if err != nil {
		return ScheduleSlot{}, core.NewFieldError("start_time", "start_time must be a time of day (HH:MM)")
	}
	end, err := time.Parse(core.ClockLayout, ns.EndTime)
	if err != nil {
		return ScheduleSlot{}, core.NewFieldError("end_time", "end_time must be a time of day (HH:MM)")
	}
	if !end.After(start) {
		return ScheduleSlot{}, core.NewFieldError("end_time", "end time must be after start time")
	}

	g, err := svc.Get(ctx, orgID, groupID)
	if err != nil {
		return ScheduleSlot{}, err
	}

	now := core.Now()
	s, err := svc.repo.CreateScheduleSlot(ctx, ScheduleSlot{
		ID:             core.NewID(),
		OrganizationID: orgID,
		GroupID:        g.ID,
		DayOfWeek:      ns.DayOfWeek,
		StartTime:      start.Format(core.ClockLayout),
		EndTime:        end.Format(core.ClockLayout),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if core.IsConstraint(err) {
			return ScheduleSlot{}, err
		}
		return ScheduleSlot{}, errors.Wrap(err, "creating schedule slot")
	}
	return s, nil
}

func (svc *Service) Schedule(ctx context.Context, orgID, groupID string) ([]ScheduleSlot, error) {
	if _, err := svc.Get(ctx, orgID, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryScheduleSlots(ctx, orgID, groupID)
}

func (svc *Service) RemoveScheduleSlot(ctx context.Context, orgID, id string) error {
	if !core.IsID(id) {
		return ErrSlotNotFound
	}
	return svc.repo.DeleteScheduleSlot(ctx, orgID, id)
}
