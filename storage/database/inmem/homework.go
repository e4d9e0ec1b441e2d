package inmemdb

import (
	"context"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/homework"
)

type homeworkRepository struct {
	db *DB
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

func (repo *homeworkRepository) CreateHomework(ctx context.Context, h homework.Homework, exec ...core.DBExecutor) (homework.Homework, error) {
	defer repo.db.lock(exec)()

	repo.db.t.homework[h.ID] = h
	return h, nil
}

func (repo *homeworkRepository) QueryHomework(ctx context.Context, orgID, lessonID string, exec ...core.DBExecutor) ([]homework.Homework, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	hws := values(repo.db.t.homework, func(h homework.Homework) bool {
		return h.OrganizationID == orgID && (lessonID == "" || h.LessonID == lessonID)
	})
	order(hws, nil, nil, func(a, b homework.Homework) int { return compareTimes(a.StartTime, b.StartTime) })
	return hws, nil
}

func (repo *homeworkRepository) GetHomework(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (homework.Homework, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	h, ok := repo.db.t.homework[id]
	if !ok || h.OrganizationID != orgID {
		return homework.Homework{}, homework.ErrNotFound
	}
	return h, nil
}

func (repo *homeworkRepository) UpdateHomework(ctx context.Context, h homework.Homework, exec ...core.DBExecutor) (homework.Homework, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.homework[h.ID]; !ok || orig.OrganizationID != h.OrganizationID {
		return homework.Homework{}, homework.ErrNotFound
	}
	repo.db.t.homework[h.ID] = h
	return h, nil
}

func (repo *homeworkRepository) CreateSubmission(ctx context.Context, s homework.Submission, exec ...core.DBExecutor) (homework.Submission, error) {
	defer repo.db.lock(exec)()

	for _, other := range repo.db.t.submission {
		if other.HomeworkID == s.HomeworkID && other.StudentID == s.StudentID {
			return homework.Submission{}, core.NewConstraintError("submission_homework_id_student_id_key", "student already has a submission for this homework")
		}
	}
	repo.db.t.submission[s.ID] = s
	return s, nil
}

func (repo *homeworkRepository) GetSubmission(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (homework.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	s, ok := repo.db.t.submission[id]
	if !ok || s.OrganizationID != orgID {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	return s, nil
}

func (repo *homeworkRepository) GetStudentSubmission(ctx context.Context, orgID, homeworkID, studentID string, exec ...core.DBExecutor) (homework.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.t.submission {
		if s.OrganizationID == orgID && s.HomeworkID == homeworkID && s.StudentID == studentID {
			return s, nil
		}
	}
	return homework.Submission{}, homework.ErrSubmissionNotFound
}

func (repo *homeworkRepository) QuerySubmissions(ctx context.Context, orgID, homeworkID string, exec ...core.DBExecutor) ([]homework.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := values(repo.db.t.submission, func(s homework.Submission) bool {
		return s.OrganizationID == orgID && s.HomeworkID == homeworkID
	})
	order(subs, nil, nil, func(a, b homework.Submission) int { return compareTimes(a.CreatedAt, b.CreatedAt) })
	return subs, nil
}

func (repo *homeworkRepository) UpdateSubmission(ctx context.Context, s homework.Submission, exec ...core.DBExecutor) (homework.Submission, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.submission[s.ID]; !ok || orig.OrganizationID != s.OrganizationID {
		return homework.Submission{}, homework.ErrSubmissionNotFound
	}
	repo.db.t.submission[s.ID] = s
	return s, nil
}
