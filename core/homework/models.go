package homework

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/markaz/core"
)

const (
	MinMark = 1
	MaxMark = 5
)

// Homework is an assignment given by a teacher for a lesson.
type Homework struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"-"`
	LessonID       string    `json:"lesson_id"`
	TeacherID      string    `json:"teacher_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Attachment     string    `json:"attachment,omitempty"` // file key
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// Submission is the work of one student for one homework.
// It becomes submitted once text or a file is present; SubmittedAt is never changed afterwards.
type Submission struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"-"`
	HomeworkID     string     `json:"homework_id"`
	StudentID      string     `json:"student_id"`
	SubmittedText  string     `json:"submitted_text"`
	SubmittedFile  string     `json:"submitted_file,omitempty"` // file key
	SubmittedAt    *time.Time `json:"submitted_at"`
	Mark           *int       `json:"mark"`
	TeacherComment string     `json:"teacher_comment"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
}

func (s Submission) IsSubmitted() bool {
	return s.SubmittedAt != nil
}

// apply sets the submitted work, stamping SubmittedAt the first time work is present.
func (s *Submission) apply(text, file string, now time.Time) {
	if text != "" {
		s.SubmittedText = text
	}
	if file != "" {
		s.SubmittedFile = file
	}
	if s.SubmittedAt == nil && (s.SubmittedText != "" || s.SubmittedFile != "") {
		s.SubmittedAt = &now
	}
}

func validMark(mark int) bool {
	return mark >= MinMark && mark <= MaxMark
}

type NewHomework struct {
	TeacherID   string    `json:"teacher_id" validate:"required,uuid"`
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Attachment  string    `json:"-"`
}

func (nh *NewHomework) Validate(validate *validator.Validate) error {
	nh.Title = core.CleanString(nh.Title)
	nh.Description = core.CleanString(nh.Description)
	return validate.Struct(nh)
}

type UpdateHomework struct {
	Title       string    `json:"title" validate:"max=255"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsActive    *bool     `json:"is_active"`
}

func (uh *UpdateHomework) Validate(validate *validator.Validate) error {
	uh.Title = core.CleanString(uh.Title)
	return validate.Struct(uh)
}

// SubmitWork carries the work of a student. File is the key of an already stored file.
type SubmitWork struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Text      string `json:"submitted_text"`
	File      string `json:"-"`
}

func (sw *SubmitWork) Validate(validate *validator.Validate) error {
	sw.Text = core.CleanString(sw.Text)
	return validate.Struct(sw)
}

type GradeSubmission struct {
	Mark    int    `json:"mark" validate:"required,min=1,max=5"`
	Comment string `json:"teacher_comment"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Comment = core.CleanString(gs.Comment)
	return validate.Struct(gs)
}
