package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/lesson"
)

type lessonRow struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	GroupID        string    `db:"group_id"`
	Number         int       `db:"lesson_number"`
	Title          string    `db:"title"`
	ScheduledDate  time.Time `db:"scheduled_date"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r lessonRow) unwrap() lesson.Lesson {
	return lesson.Lesson{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		GroupID:        r.GroupID,
		Number:         r.Number,
		Title:          r.Title,
		ScheduledDate:  core.Date(r.ScheduledDate),
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type attendanceRow struct {
	ID             string      `db:"id"`
	OrganizationID string      `db:"organization_id"`
	LessonID       string      `db:"lesson_id"`
	StudentID      string      `db:"student_id"`
	IsPresent      bool        `db:"is_present"`
	Notes          null.String `db:"notes"`
	IsActive       bool        `db:"is_active"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r attendanceRow) unwrap() lesson.Attendance {
	return lesson.Attendance{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		LessonID:       r.LessonID,
		StudentID:      r.StudentID,
		IsPresent:      r.IsPresent,
		Notes:          r.Notes.String,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

const (
	lessonSelect = `
SELECT id, organization_id, group_id, lesson_number, title, scheduled_date, is_active, created_at, updated_at
FROM lesson`
	attendanceColumns = `id, organization_id, lesson_id, student_id, is_present, notes, is_active, created_at, updated_at`
)

type lessonRepository struct {
	baseRepository
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{baseRepository{db: db}}
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, l lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO lesson (id, organization_id, group_id, lesson_number, title, scheduled_date, is_active,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.OrganizationID, l.GroupID, l.Number, l.Title, l.ScheduledDate, l.IsActive, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return lesson.Lesson{}, trapErr(err, lesson.ErrNotFound, "inserting lesson", lesson.ErrNumberExists)
	}
	return l, nil
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, orgID, groupID string, exec ...core.DBExecutor) ([]lesson.Lesson, error) {
	var rows []lessonRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		lessonSelect+" WHERE organization_id = $1 AND group_id = $2 ORDER BY lesson_number", orgID, groupID)
	if err != nil {
		return nil, trapErr(err, lesson.ErrNotFound, "querying lessons")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.unwrap())
	}
	return lessons, nil
}

func (repo *lessonRepository) GetLesson(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (lesson.Lesson, error) {
	row, err := selectOne[lessonRow](ctx, repo.getExec(exec), lessonSelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return lesson.Lesson{}, trapErr(err, lesson.ErrNotFound, "getting lesson")
	}
	return row.unwrap(), nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, l lesson.Lesson, exec ...core.DBExecutor) (lesson.Lesson, error) {
	err := execOne(ctx, repo.getExec(exec), lesson.ErrNotFound, `
		UPDATE lesson SET lesson_number = $3, title = $4, scheduled_date = $5, is_active = $6, updated_at = $7
		WHERE organization_id = $1 AND id = $2`,
		l.OrganizationID, l.ID, l.Number, l.Title, l.ScheduledDate, l.IsActive, l.UpdatedAt)
	if err != nil {
		return lesson.Lesson{}, trapErr(err, lesson.ErrNotFound, "updating lesson", lesson.ErrNumberExists)
	}
	return l, nil
}

func (repo *lessonRepository) SaveAttendance(ctx context.Context, a lesson.Attendance, exec ...core.DBExecutor) (lesson.Attendance, error) {
	row, err := selectOne[attendanceRow](ctx, repo.getExec(exec), `
		INSERT INTO attendance (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (lesson_id, student_id) DO UPDATE
		SET is_present = EXCLUDED.is_present, notes = EXCLUDED.notes, is_active = TRUE, updated_at = EXCLUDED.updated_at
		RETURNING `+attendanceColumns,
		a.ID, a.OrganizationID, a.LessonID, a.StudentID, a.IsPresent, null.NewString(a.Notes, a.Notes != ""),
		true, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return lesson.Attendance{}, trapErr(err, lesson.ErrNotFound, "saving attendance")
	}
	return row.unwrap(), nil
}

func (repo *lessonRepository) QueryAttendance(ctx context.Context, orgID, lessonID string, exec ...core.DBExecutor) ([]lesson.Attendance, error) {
	var rows []attendanceRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		"SELECT "+attendanceColumns+" FROM attendance WHERE organization_id = $1 AND lesson_id = $2 ORDER BY created_at, id",
		orgID, lessonID)
	if err != nil {
		return nil, trapErr(err, lesson.ErrNotFound, "querying attendance")
	}
	records := make([]lesson.Attendance, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.unwrap())
	}
	return records, nil
}
