package inmemdb

import (
	"context"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/lesson"
)

type lessonRepository struct {
	db *DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, l lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	defer repo.db.lock(exec)()

	for _, other := range repo.db.t.lesson {
		if other.GroupID == l.GroupID && other.Number == l.Number {
			return lesson.Lesson{}, lesson.ErrNumberExists
		}
	}
	repo.db.t.lesson[l.ID] = l
	return l, nil
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, orgID, groupID string, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := values(repo.db.t.lesson, func(l lesson.Lesson) bool {
		return l.OrganizationID == orgID && l.GroupID == groupID
	})
	order(lessons, nil, nil, func(a, b lesson.Lesson) int { return compareInts(a.Number, b.Number) })
	return lessons, nil
}

func (repo *lessonRepository) GetLesson(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	l, ok := repo.db.t.lesson[id]
	if !ok || l.OrganizationID != orgID {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	return l, nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, l lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	defer repo.db.lock(exec)()

	if orig, ok := repo.db.t.lesson[l.ID]; !ok || orig.OrganizationID != l.OrganizationID {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	repo.db.t.lesson[l.ID] = l
	return l, nil
}

func (repo *lessonRepository) SaveAttendance(ctx context.Context, a lesson.Attendance, exec ...core.DBExecutor) (lesson.Attendance, error) {
	defer repo.db.lock(exec)()

	for id, existing := range repo.db.t.attendance {
		if existing.LessonID == a.LessonID && existing.StudentID == a.StudentID {
			existing.IsPresent = a.IsPresent
			existing.Notes = a.Notes
			existing.IsActive = true
			existing.UpdatedAt = a.UpdatedAt
			repo.db.t.attendance[id] = existing
			return existing, nil
		}
	}
	repo.db.t.attendance[a.ID] = a
	return a, nil
}

func (repo *lessonRepository) QueryAttendance(ctx context.Context, orgID, lessonID string, exec ...core.DBExecutor) ([]lesson.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := values(repo.db.t.attendance, func(a lesson.Attendance) bool {
		return a.OrganizationID == orgID && a.LessonID == lessonID
	})
	order(records, nil, nil, func(a, b lesson.Attendance) int { return compareTimes(a.CreatedAt, b.CreatedAt) })
	return records, nil
}
