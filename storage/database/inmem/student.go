package inmemdb

import (
	"context"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

var studentColumns = map[string]comparer[student.Student]{
	"first_name":    func(a, b student.Student) int { return compareStrings(a.FirstName, b.FirstName) },
	"last_name":     func(a, b student.Student) int { return compareStrings(a.LastName, b.LastName) },
	"date_of_birth": func(a, b student.Student) int { return compareTimes(a.DateOfBirth, b.DateOfBirth) },
	"created_at":    func(a, b student.Student) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

// enrollment returns the student's enrollment state in orgID.
func (repo *studentRepository) enrollment(orgID, id string) (active, ok bool) {
	active, ok = repo.db.t.enrollment[id][orgID]
	return active, ok
}

func (repo *studentRepository) CreateStudent(ctx context.Context, orgID string, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	defer repo.db.lock(exec)()

	repo.db.t.student[s.ID] = s
	if repo.db.t.enrollment[s.ID] == nil {
		repo.db.t.enrollment[s.ID] = make(map[string]bool)
	}
	repo.db.t.enrollment[s.ID][orgID] = s.IsActive
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, orgID string, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var inGroup map[string]bool
	if filter != nil && filter.GroupID != "" {
		inGroup = make(map[string]bool)
		for _, m := range repo.db.t.membership {
			if m.OrganizationID == orgID && m.GroupID == filter.GroupID && m.IsActive {
				inGroup[m.StudentID] = true
			}
		}
	}

	students := make([]student.Student, 0)
	for id, s := range repo.db.t.student {
		active, ok := repo.enrollment(orgID, id)
		if !ok {
			continue
		}
		s.IsActive = active
		if filter != nil {
			if filter.Search != "" && !contains(filter.Search, s.FirstName, s.LastName, s.MiddleName, s.PhoneNumber) {
				continue
			}
			if inGroup != nil && !inGroup[s.ID] {
				continue
			}
			if filter.IsActive != nil && s.IsActive != *filter.IsActive {
				continue
			}
		}
		students = append(students, s)
	}
	order(students, ordering, studentColumns, func(a, b student.Student) int { return compareTimes(a.CreatedAt, b.CreatedAt) })
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	s, ok := repo.db.t.student[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	active, ok := repo.enrollment(orgID, id)
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	s.IsActive = active
	return s, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, orgID string, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	defer repo.db.lock(exec)()

	if _, ok := repo.db.t.student[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	if _, ok := repo.enrollment(orgID, s.ID); !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.t.enrollment[s.ID][orgID] = s.IsActive
	repo.db.t.student[s.ID] = s
	return s, nil
}

func (repo *studentRepository) EnrollStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	if _, ok := repo.db.t.student[id]; !ok {
		return student.ErrNotFound
	}
	if _, ok := repo.enrollment(orgID, id); ok {
		return student.ErrAlreadyEnrolled
	}
	if repo.db.t.enrollment[id] == nil {
		repo.db.t.enrollment[id] = make(map[string]bool)
	}
	repo.db.t.enrollment[id][orgID] = true
	return nil
}

func (repo *studentRepository) UnenrollStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	if _, ok := repo.enrollment(orgID, id); !ok {
		return student.ErrNotFound
	}
	for _, m := range repo.db.t.membership {
		if m.OrganizationID == orgID && m.StudentID == id && m.IsActive {
			return student.ErrStillMember
		}
	}
	delete(repo.db.t.enrollment[id], orgID)
	return nil
}
