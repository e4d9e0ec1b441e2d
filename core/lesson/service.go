package lesson

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
)

var (
	ErrNotFound     = core.NewNotFoundError("lesson")
	ErrNumberExists = core.NewConstraintError("lesson_group_id_lesson_number_key", "group already has a lesson with this number")
)

type (
	Repository interface {
		// CreateLesson fails with ErrNumberExists when the group already has a lesson with the same number.
		CreateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)
		// QueryLessons returns the lesson plan of a group ordered by lesson number.
		QueryLessons(ctx context.Context, orgID, groupID string, exec ...core.DBExecutor) ([]Lesson, error)
		GetLesson(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)

		// SaveAttendance inserts the attendance or updates the existing one of the same lesson and student.
		SaveAttendance(ctx context.Context, a Attendance, exec ...core.DBExecutor) (Attendance, error)
		QueryAttendance(ctx context.Context, orgID, lessonID string, exec ...core.DBExecutor) ([]Attendance, error)
	}

	GroupRepository interface {
		GetGroup(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (group.Group, error)
		GetActiveMembership(ctx context.Context, orgID, groupID, studentID string, exec ...core.DBExecutor) (group.Membership, error)
	}

	Service struct {
		repo      Repository
		groupRepo GroupRepository
	}
)

func NewService(repo Repository, groupRepo GroupRepository) *Service {
	return &Service{
		repo:      repo,
		groupRepo: groupRepo,
	}
}

func (svc *Service) Create(ctx context.Context, orgID, groupID string, nl NewLesson) (Lesson, error) {
	if nl.Number <= 0 {
		return Lesson{}, core.NewFieldError("lesson_number", "lesson_number must be greater than 0")
	}
	if !core.IsID(groupID) {
		return Lesson{}, group.ErrNotFound
	}
	g, err := svc.groupRepo.GetGroup(ctx, orgID, groupID)
	if err != nil {
		return Lesson{}, err
	}

	now := core.Now()
	l, err := svc.repo.CreateLesson(ctx, Lesson{
		ID:             core.NewID(),
		OrganizationID: orgID,
		GroupID:        g.ID,
		Number:         nl.Number,
		Title:          nl.Title,
		ScheduledDate:  core.Date(nl.ScheduledDate),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if core.IsConstraint(err) {
			return Lesson{}, err
		}
		return Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return l, nil
}

func (svc *Service) Plan(ctx context.Context, orgID, groupID string) ([]Lesson, error) {
	if !core.IsID(groupID) {
		return nil, group.ErrNotFound
	}
	if _, err := svc.groupRepo.GetGroup(ctx, orgID, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryLessons(ctx, orgID, groupID)
}

func (svc *Service) Get(ctx context.Context, orgID, id string) (Lesson, error) {
	if !core.IsID(id) {
		return Lesson{}, ErrNotFound
	}
	return svc.repo.GetLesson(ctx, orgID, id)
}

func (svc *Service) Update(ctx context.Context, l Lesson, ul UpdateLesson) (Lesson, error) {
	if ul.Title != "" {
		l.Title = ul.Title
	}
	if !ul.ScheduledDate.IsZero() {
		l.ScheduledDate = core.Date(ul.ScheduledDate)
	}
	if ul.IsActive != nil {
		l.IsActive = *ul.IsActive
	}
	l.UpdatedAt = core.Now()
	l, err := svc.repo.UpdateLesson(ctx, l)
	return l, errors.Wrap(err, "updating lesson")
}

// MarkAttendance records the attendance of a member of the lesson's group.
func (svc *Service) MarkAttendance(ctx context.Context, orgID, lessonID string, ma MarkAttendance) (Attendance, error) {
	l, err := svc.Get(ctx, orgID, lessonID)
	if err != nil {
		return Attendance{}, err
	}
	if !core.IsID(ma.StudentID) {
		return Attendance{}, core.NewFieldError("student_id", "student is not a member of this group")
	}
	if _, err = svc.groupRepo.GetActiveMembership(ctx, orgID, l.GroupID, ma.StudentID); err != nil {
		if core.IsNotFound(err) {
			return Attendance{}, core.NewFieldError("student_id", "student is not a member of this group")
		}
		return Attendance{}, errors.Wrap(err, "finding membership")
	}

	now := core.Now()
	a, err := svc.repo.SaveAttendance(ctx, Attendance{
		ID:             core.NewID(),
		OrganizationID: orgID,
		LessonID:       l.ID,
		StudentID:      ma.StudentID,
		IsPresent:      ma.IsPresent,
		Notes:          ma.Notes,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return a, errors.Wrap(err, "saving attendance")
}

func (svc *Service) Attendance(ctx context.Context, orgID, lessonID string) ([]Attendance, error) {
	l, err := svc.Get(ctx, orgID, lessonID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendance(ctx, orgID, l.ID)
}
