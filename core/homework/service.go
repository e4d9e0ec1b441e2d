package homework

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
	"github.com/trezcool/markaz/core/lesson"
	"github.com/trezcool/markaz/core/staff"
)

var (
	ErrNotFound           = core.NewNotFoundError("homework")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")
)

type (
	Repository interface {
		CreateHomework(ctx context.Context, h Homework, exec ...core.DBExecutor) (Homework, error)
		QueryHomework(ctx context.Context, orgID, lessonID string, exec ...core.DBExecutor) ([]Homework, error)
		GetHomework(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Homework, error)
		UpdateHomework(ctx context.Context, h Homework, exec ...core.DBExecutor) (Homework, error)

		CreateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Submission, error)
		// GetStudentSubmission returns the submission of a student for a homework, if any.
		GetStudentSubmission(ctx context.Context, orgID, homeworkID, studentID string, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissions(ctx context.Context, orgID, homeworkID string, exec ...core.DBExecutor) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
	}

	LessonRepository interface {
		GetLesson(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (lesson.Lesson, error)
	}

	GroupRepository interface {
		GetActiveMembership(ctx context.Context, orgID, groupID, studentID string, exec ...core.DBExecutor) (group.Membership, error)
	}

	StaffRepository interface {
		GetMember(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (staff.Member, error)
	}

	Service struct {
		tx         core.Transactor
		repo       Repository
		lessonRepo LessonRepository
		groupRepo  GroupRepository
		staffRepo  StaffRepository
	}
)

func NewService(tx core.Transactor, repo Repository, lessonRepo LessonRepository, groupRepo GroupRepository, staffRepo StaffRepository) *Service {
	return &Service{
		tx:         tx,
		repo:       repo,
		lessonRepo: lessonRepo,
		groupRepo:  groupRepo,
		staffRepo:  staffRepo,
	}
}

func checkPeriod(start, end time.Time) error {
	if !end.After(start) {
		return core.NewFieldError("end_time", "end time must be after start time")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, orgID, lessonID string, nh NewHomework) (Homework, error) {
	if err := checkPeriod(nh.StartTime, nh.EndTime); err != nil {
		return Homework{}, err
	}
	if !core.IsID(lessonID) {
		return Homework{}, lesson.ErrNotFound
	}
	l, err := svc.lessonRepo.GetLesson(ctx, orgID, lessonID)
	if err != nil {
		return Homework{}, err
	}
	if !core.IsID(nh.TeacherID) {
		return Homework{}, core.NewFieldError("teacher_id", "teacher not found")
	}
	teacher, err := svc.staffRepo.GetMember(ctx, orgID, nh.TeacherID)
	if err != nil {
		if core.IsNotFound(err) {
			return Homework{}, core.NewFieldError("teacher_id", "teacher not found")
		}
		return Homework{}, errors.Wrap(err, "finding teacher")
	}
	if !teacher.IsActive || !teacher.IsTeacher() {
		return Homework{}, core.NewFieldError("teacher_id", "staff member is not an active teacher")
	}

	now := core.Now()
	h, err := svc.repo.CreateHomework(ctx, Homework{
		ID:             core.NewID(),
		OrganizationID: orgID,
		LessonID:       l.ID,
		TeacherID:      teacher.ID,
		Title:          nh.Title,
		Description:    nh.Description,
		StartTime:      nh.StartTime.UTC(),
		EndTime:        nh.EndTime.UTC(),
		Attachment:     nh.Attachment,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return h, errors.Wrap(err, "creating homework")
}

func (svc *Service) Query(ctx context.Context, orgID, lessonID string) ([]Homework, error) {
	return svc.repo.QueryHomework(ctx, orgID, lessonID)
}

func (svc *Service) Get(ctx context.Context, orgID, id string) (Homework, error) {
	if !core.IsID(id) {
		return Homework{}, ErrNotFound
	}
	return svc.repo.GetHomework(ctx, orgID, id)
}

func (svc *Service) Update(ctx context.Context, h Homework, uh UpdateHomework) (Homework, error) {
	if uh.Title != "" {
		h.Title = uh.Title
	}
	if uh.Description != nil {
		h.Description = core.CleanString(*uh.Description)
	}
	if !uh.StartTime.IsZero() {
		h.StartTime = uh.StartTime.UTC()
	}
	if !uh.EndTime.IsZero() {
		h.EndTime = uh.EndTime.UTC()
	}
	if uh.IsActive != nil {
		h.IsActive = *uh.IsActive
	}
	if err := checkPeriod(h.StartTime, h.EndTime); err != nil {
		return Homework{}, err
	}

	h.UpdatedAt = core.Now()
	h, err := svc.repo.UpdateHomework(ctx, h)
	return h, errors.Wrap(err, "updating homework")
}

// SetAttachment replaces the attachment of a homework and returns the key of the previous one.
func (svc *Service) SetAttachment(ctx context.Context, orgID, id, key string) (Homework, string, error) {
	h, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return Homework{}, "", err
	}
	old := h.Attachment
	h.Attachment = key
	h.UpdatedAt = core.Now()
	h, err = svc.repo.UpdateHomework(ctx, h)
	if err != nil {
		return Homework{}, "", errors.Wrap(err, "updating homework attachment")
	}
	return h, old, nil
}

// Submissions

// Submit saves the work of a student of the homework's group.
// The submission is created on first call; submitted_at is set once, when work is first present.
func (svc *Service) Submit(ctx context.Context, orgID, homeworkID string, sw SubmitWork) (Submission, error) {
	h, err := svc.Get(ctx, orgID, homeworkID)
	if err != nil {
		return Submission{}, err
	}
	l, err := svc.lessonRepo.GetLesson(ctx, orgID, h.LessonID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "finding lesson")
	}
	if !core.IsID(sw.StudentID) {
		return Submission{}, core.NewFieldError("student_id", "student is not a member of this group")
	}
	if _, err = svc.groupRepo.GetActiveMembership(ctx, orgID, l.GroupID, sw.StudentID); err != nil {
		if core.IsNotFound(err) {
			return Submission{}, core.NewFieldError("student_id", "student is not a member of this group")
		}
		return Submission{}, errors.Wrap(err, "finding membership")
	}

	var sub Submission
	err = svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		now := core.Now()
		existing, err := svc.repo.GetStudentSubmission(ctx, orgID, h.ID, sw.StudentID, exec)
		switch {
		case err == nil:
			existing.apply(sw.Text, sw.File, now)
			existing.UpdatedAt = now
			sub, err = svc.repo.UpdateSubmission(ctx, existing, exec)
			return errors.Wrap(err, "updating submission")
		case core.IsNotFound(err):
			s := Submission{
				ID:             core.NewID(),
				OrganizationID: orgID,
				HomeworkID:     h.ID,
				StudentID:      sw.StudentID,
				IsActive:       true,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			s.apply(sw.Text, sw.File, now)
			sub, err = svc.repo.CreateSubmission(ctx, s, exec)
			return errors.Wrap(err, "creating submission")
		default:
			return errors.Wrap(err, "finding submission")
		}
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Grade marks a submitted submission. The mark must be within [MinMark, MaxMark].
func (svc *Service) Grade(ctx context.Context, orgID, submissionID string, gs GradeSubmission) (Submission, error) {
	if !validMark(gs.Mark) {
		return Submission{}, core.NewFieldError("mark", "mark must be between 1 and 5")
	}
	s, err := svc.GetSubmission(ctx, orgID, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if !s.IsSubmitted() {
		return Submission{}, core.NewFieldError("mark", "submission has not been submitted yet")
	}

	mark := gs.Mark
	s.Mark = &mark
	s.TeacherComment = gs.Comment
	s.UpdatedAt = core.Now()
	s, err = svc.repo.UpdateSubmission(ctx, s)
	return s, errors.Wrap(err, "grading submission")
}

func (svc *Service) GetSubmission(ctx context.Context, orgID, id string) (Submission, error) {
	if !core.IsID(id) {
		return Submission{}, ErrSubmissionNotFound
	}
	return svc.repo.GetSubmission(ctx, orgID, id)
}

func (svc *Service) QuerySubmissions(ctx context.Context, orgID, homeworkID string) ([]Submission, error) {
	h, err := svc.Get(ctx, orgID, homeworkID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QuerySubmissions(ctx, orgID, h.ID)
}
