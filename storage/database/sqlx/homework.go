package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/homework"
)

type homeworkRow struct {
	ID             string      `db:"id"`
	OrganizationID string      `db:"organization_id"`
	LessonID       string      `db:"lesson_id"`
	TeacherID      string      `db:"teacher_id"`
	Title          string      `db:"title"`
	Description    string      `db:"description"`
	StartTime      time.Time   `db:"start_time"`
	EndTime        time.Time   `db:"end_time"`
	Attachment     null.String `db:"attachment"`
	IsActive       bool        `db:"is_active"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r homeworkRow) unwrap() homework.Homework {
	return homework.Homework{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		LessonID:       r.LessonID,
		TeacherID:      r.TeacherID,
		Title:          r.Title,
		Description:    r.Description,
		StartTime:      r.StartTime.UTC(),
		EndTime:        r.EndTime.UTC(),
		Attachment:     r.Attachment.String,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type submissionRow struct {
	ID             string      `db:"id"`
	OrganizationID string      `db:"organization_id"`
	HomeworkID     string      `db:"homework_id"`
	StudentID      string      `db:"student_id"`
	SubmittedText  null.String `db:"submitted_text"`
	SubmittedFile  null.String `db:"submitted_file"`
	SubmittedAt    null.Time   `db:"submitted_at"`
	Mark           null.Int    `db:"mark"`
	TeacherComment null.String `db:"teacher_comment"`
	IsActive       bool        `db:"is_active"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r submissionRow) unwrap() homework.Submission {
	s := homework.Submission{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		HomeworkID:     r.HomeworkID,
		StudentID:      r.StudentID,
		SubmittedText:  r.SubmittedText.String,
		SubmittedFile:  r.SubmittedFile.String,
		Mark:           r.Mark.Ptr(),
		TeacherComment: r.TeacherComment.String,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.SubmittedAt.Valid {
		t := r.SubmittedAt.Time.UTC()
		s.SubmittedAt = &t
	}
	return s
}

const (
	homeworkSelect = `
SELECT id, organization_id, lesson_id, teacher_id, title, description, start_time, end_time, attachment,
       is_active, created_at, updated_at
FROM homework`
	submissionSelect = `
SELECT id, organization_id, homework_id, student_id, submitted_text, submitted_file, submitted_at, mark,
       teacher_comment, is_active, created_at, updated_at
FROM submission`
)

var errSubmissionExists = core.NewConstraintError("submission_homework_id_student_id_key", "student already has a submission for this homework")

type homeworkRepository struct {
	baseRepository
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *sqlx.DB) *homeworkRepository {
	return &homeworkRepository{baseRepository{db: db}}
}

func (repo *homeworkRepository) CreateHomework(ctx context.Context, h homework.Homework, exec ...core.DBExecutor) (homework.Homework, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO homework (id, organization_id, lesson_id, teacher_id, title, description, start_time, end_time,
		                      attachment, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		h.ID, h.OrganizationID, h.LessonID, h.TeacherID, h.Title, h.Description, h.StartTime, h.EndTime,
		null.NewString(h.Attachment, h.Attachment != ""), h.IsActive, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return homework.Homework{}, trapErr(err, homework.ErrNotFound, "inserting homework")
	}
	return h, nil
}

func (repo *homeworkRepository) QueryHomework(ctx context.Context, orgID, lessonID string, exec ...core.DBExecutor) ([]homework.Homework, error) {
	var rows []homeworkRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		homeworkSelect+" WHERE organization_id = $1 AND lesson_id = $2 ORDER BY start_time, id", orgID, lessonID)
	if err != nil {
		return nil, trapErr(err, homework.ErrNotFound, "querying homework")
	}
	hws := make([]homework.Homework, 0, len(rows))
	for _, r := range rows {
		hws = append(hws, r.unwrap())
	}
	return hws, nil
}

func (repo *homeworkRepository) GetHomework(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (homework.Homework, error) {
	row, err := selectOne[homeworkRow](ctx, repo.getExec(exec), homeworkSelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return homework.Homework{}, trapErr(err, homework.ErrNotFound, "getting homework")
	}
	return row.unwrap(), nil
}

func (repo *homeworkRepository) UpdateHomework(ctx context.Context, h homework.Homework, exec ...core.DBExecutor) (homework.Homework, error) {
	err := execOne(ctx, repo.getExec(exec), homework.ErrNotFound, `
		UPDATE homework SET title = $3, description = $4, start_time = $5, end_time = $6, attachment = $7,
		                    is_active = $8, updated_at = $9
		WHERE organization_id = $1 AND id = $2`,
		h.OrganizationID, h.ID, h.Title, h.Description, h.StartTime, h.EndTime,
		null.NewString(h.Attachment, h.Attachment != ""), h.IsActive, h.UpdatedAt)
	if err != nil {
		return homework.Homework{}, trapErr(err, homework.ErrNotFound, "updating homework")
	}
	return h, nil
}

// Submissions

func (repo *homeworkRepository) CreateSubmission(ctx context.Context, s homework.Submission, exec ...core.DBExecutor) (homework.Submission, error) {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO submission (id, organization_id, homework_id, student_id, submitted_text, submitted_file,
		                        submitted_at, mark, teacher_comment, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.OrganizationID, s.HomeworkID, s.StudentID,
		null.NewString(s.SubmittedText, s.SubmittedText != ""), null.NewString(s.SubmittedFile, s.SubmittedFile != ""),
		null.TimeFromPtr(s.SubmittedAt), null.IntFromPtr(s.Mark),
		null.NewString(s.TeacherComment, s.TeacherComment != ""), s.IsActive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return homework.Submission{}, trapErr(err, homework.ErrSubmissionNotFound, "inserting submission", errSubmissionExists)
	}
	return s, nil
}

func (repo *homeworkRepository) GetSubmission(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (homework.Submission, error) {
	row, err := selectOne[submissionRow](ctx, repo.getExec(exec), submissionSelect+" WHERE organization_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return homework.Submission{}, trapErr(err, homework.ErrSubmissionNotFound, "getting submission")
	}
	return row.unwrap(), nil
}

func (repo *homeworkRepository) GetStudentSubmission(ctx context.Context, orgID, homeworkID, studentID string, exec ...core.DBExecutor) (homework.Submission, error) {
	row, err := selectOne[submissionRow](ctx, repo.getExec(exec),
		submissionSelect+" WHERE organization_id = $1 AND homework_id = $2 AND student_id = $3 FOR UPDATE",
		orgID, homeworkID, studentID)
	if err != nil {
		return homework.Submission{}, trapErr(err, homework.ErrSubmissionNotFound, "getting student submission")
	}
	return row.unwrap(), nil
}

func (repo *homeworkRepository) QuerySubmissions(ctx context.Context, orgID, homeworkID string, exec ...core.DBExecutor) ([]homework.Submission, error) {
	var rows []submissionRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		submissionSelect+" WHERE organization_id = $1 AND homework_id = $2 ORDER BY created_at, id", orgID, homeworkID)
	if err != nil {
		return nil, trapErr(err, homework.ErrSubmissionNotFound, "querying submissions")
	}
	subs := make([]homework.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.unwrap())
	}
	return subs, nil
}

func (repo *homeworkRepository) UpdateSubmission(ctx context.Context, s homework.Submission, exec ...core.DBExecutor) (homework.Submission, error) {
	err := execOne(ctx, repo.getExec(exec), homework.ErrSubmissionNotFound, `
		UPDATE submission SET submitted_text = $3, submitted_file = $4, submitted_at = $5, mark = $6,
		                      teacher_comment = $7, is_active = $8, updated_at = $9
		WHERE organization_id = $1 AND id = $2`,
		s.OrganizationID, s.ID,
		null.NewString(s.SubmittedText, s.SubmittedText != ""), null.NewString(s.SubmittedFile, s.SubmittedFile != ""),
		null.TimeFromPtr(s.SubmittedAt), null.IntFromPtr(s.Mark),
		null.NewString(s.TeacherComment, s.TeacherComment != ""), s.IsActive, s.UpdatedAt)
	if err != nil {
		return homework.Submission{}, trapErr(err, homework.ErrSubmissionNotFound, "updating submission")
	}
	return s, nil
}
