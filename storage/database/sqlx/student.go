package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/student"
)

var studentOrderings = map[string]string{
	"first_name":    "s.first_name",
	"last_name":     "s.last_name",
	"date_of_birth": "s.date_of_birth",
	"created_at":    "s.created_at",
}

type studentRow struct {
	ID          string    `db:"id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	MiddleName  string    `db:"middle_name"`
	PhoneNumber string    `db:"phone_number"`
	DateOfBirth time.Time `db:"date_of_birth"`
	Bio         string    `db:"bio"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r studentRow) unwrap() student.Student {
	return student.Student{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		MiddleName:  r.MiddleName,
		PhoneNumber: r.PhoneNumber,
		DateOfBirth: core.Date(r.DateOfBirth),
		Bio:         r.Bio,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// studentSelect reads students through their enrollment; is_active is the enrollment's.
const studentSelect = `
SELECT s.id, s.first_name, s.last_name, s.middle_name, s.phone_number, s.date_of_birth, s.bio, so.is_active,
       s.created_at, s.updated_at
FROM student s
JOIN student_organization so ON so.student_id = s.id`

type studentRepository struct {
	baseRepository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{baseRepository{db: db}}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, orgID string, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	ex := repo.getExec(exec)
	_, err := ex.ExecContext(ctx, `
		INSERT INTO student (id, first_name, last_name, middle_name, phone_number, date_of_birth, bio,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.FirstName, s.LastName, s.MiddleName, s.PhoneNumber, s.DateOfBirth, s.Bio, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "inserting student")
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO student_organization (student_id, organization_id, is_active, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, orgID, s.IsActive, s.CreatedAt)
	if err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "enrolling student")
	}
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, orgID string, qf *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	var f filter
	f.where("so.organization_id = ?", orgID)
	if qf != nil {
		f.search(qf.Search, "s.first_name", "s.last_name", "s.middle_name", "s.phone_number")
		if qf.IsActive != nil {
			f.where("so.is_active = ?", *qf.IsActive)
		}
		if qf.GroupID != "" {
			f.where(`s.id IN (SELECT student_id FROM membership
			                  WHERE organization_id = ? AND group_id = ? AND is_active)`, orgID, qf.GroupID)
		}
	}
	q, args := f.build(studentSelect, orderBy(ordering, studentOrderings, "s.created_at, s.id"))

	var rows []studentRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, trapErr(err, student.ErrNotFound, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.unwrap())
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (student.Student, error) {
	var f filter
	f.where("s.id = ?", id)
	f.where("so.organization_id = ?", orgID)
	q, args := f.build(studentSelect, "")

	row, err := selectOne[studentRow](ctx, repo.getExec(exec), q, args...)
	if err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "getting student")
	}
	return row.unwrap(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, orgID string, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	ex := repo.getExec(exec)
	err := execOne(ctx, ex, student.ErrNotFound, `
		UPDATE student_organization SET is_active = $3
		WHERE student_id = $1 AND organization_id = $2`,
		s.ID, orgID, s.IsActive)
	if err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "updating student enrollment")
	}
	err = execOne(ctx, ex, student.ErrNotFound, `
		UPDATE student SET first_name = $2, last_name = $3, middle_name = $4, phone_number = $5, date_of_birth = $6,
		                   bio = $7, updated_at = $8
		WHERE id = $1`,
		s.ID, s.FirstName, s.LastName, s.MiddleName, s.PhoneNumber, s.DateOfBirth, s.Bio, s.UpdatedAt)
	if err != nil {
		return student.Student{}, trapErr(err, student.ErrNotFound, "updating student")
	}
	return s, nil
}

func (repo *studentRepository) EnrollStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	var found bool
	if err := ex.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM student WHERE id = $1)", id).Scan(&found); err != nil {
		return trapErr(err, student.ErrNotFound, "checking student")
	}
	if !found {
		return student.ErrNotFound
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO student_organization (student_id, organization_id, is_active, created_at) VALUES ($1, $2, TRUE, $3)`,
		id, orgID, core.Now())
	return trapErr(err, student.ErrNotFound, "enrolling student", student.ErrAlreadyEnrolled)
}

func (repo *studentRepository) UnenrollStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	if _, err := repo.GetStudent(ctx, orgID, id, ex); err != nil {
		return err
	}
	// the delete is skipped while an active membership remains
	return execOne(ctx, ex, student.ErrStillMember, `
		DELETE FROM student_organization
		WHERE student_id = $1 AND organization_id = $2
		  AND NOT EXISTS (SELECT 1 FROM membership
		                  WHERE organization_id = $2 AND student_id = $1 AND is_active)`,
		id, orgID)
}
