package homework_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/homework"
	"github.com/trezcool/markaz/core/staff"
	inmemdb "github.com/trezcool/markaz/storage/database/inmem"
	testutil "github.com/trezcool/markaz/tests"
)

type homeworkTest struct {
	db        *inmemdb.DB
	svc       *homework.Service
	orgID     string
	teacher   staff.Member
	lessonID  string
	hw        homework.Homework
	studentID string
}

func setUp(t *testing.T) homeworkTest {
	db := inmemdb.Open()
	staffRepo := inmemdb.NewStaffRepository(db)
	groupRepo := inmemdb.NewGroupRepository(db)
	lessonRepo := inmemdb.NewLessonRepository(db)
	hwRepo := inmemdb.NewHomeworkRepository(db)

	org := testutil.CreateOrganization(t, inmemdb.NewOrganizationRepository(db), "Markaz")
	sp := testutil.CreateSpecialty(t, staffRepo, org.ID, "Math")
	teacher := testutil.CreateStaff(t, staffRepo, org.ID, sp.ID, "Teacher", staff.RoleTeacher, true)
	grp := testutil.CreateGroup(t, groupRepo, org.ID, teacher.ID, "Algebra", true)
	stu := testutil.CreateStudent(t, inmemdb.NewStudentRepository(db), org.ID, "Ali", "Valiyev", true)
	testutil.AddMember(t, groupRepo, org.ID, grp.ID, stu.ID)
	l := testutil.CreateLesson(t, lessonRepo, org.ID, grp.ID, 1)
	hw := testutil.CreateHomework(t, hwRepo, org.ID, l.ID, teacher.ID)

	return homeworkTest{
		db:        db,
		svc:       homework.NewService(db, hwRepo, lessonRepo, groupRepo, staffRepo),
		orgID:     org.ID,
		teacher:   teacher,
		lessonID:  l.ID,
		hw:        hw,
		studentID: stu.ID,
	}
}

func TestService_Create(t *testing.T) {
	ht := setUp(t)
	ctx := context.Background()
	start := time.Date(2023, time.May, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		nh        homework.NewHomework
		wantField string
	}{
		{
			name: "valid",
			nh:   homework.NewHomework{TeacherID: ht.teacher.ID, Title: "Ex. 1-5", StartTime: start, EndTime: start.Add(time.Hour)},
		},
		{
			name:      "end before start",
			nh:        homework.NewHomework{TeacherID: ht.teacher.ID, Title: "Ex. 1-5", StartTime: start, EndTime: start},
			wantField: "end_time",
		},
		{
			name:      "unknown teacher",
			nh:        homework.NewHomework{TeacherID: core.NewID(), Title: "Ex. 1-5", StartTime: start, EndTime: start.Add(time.Hour)},
			wantField: "teacher_id",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, err := ht.svc.Create(ctx, ht.orgID, ht.lessonID, tc.nh)
			if tc.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, ht.lessonID, h.LessonID)
				assert.True(t, h.IsActive)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Fields[0].Field)
		})
	}
}

func TestService_Submit(t *testing.T) {
	ht := setUp(t)
	ctx := context.Background()

	// created without work: not submitted
	sub, err := ht.svc.Submit(ctx, ht.orgID, ht.hw.ID, homework.SubmitWork{StudentID: ht.studentID})
	require.NoError(t, err)
	assert.False(t, sub.IsSubmitted())

	sub, err = ht.svc.Submit(ctx, ht.orgID, ht.hw.ID, homework.SubmitWork{StudentID: ht.studentID, Text: "x = 42"})
	require.NoError(t, err)
	require.True(t, sub.IsSubmitted())
	submittedAt := *sub.SubmittedAt

	time.Sleep(2 * time.Millisecond)

	// later changes never move the first submission time
	sub, err = ht.svc.Submit(ctx, ht.orgID, ht.hw.ID, homework.SubmitWork{StudentID: ht.studentID, Text: "x = 43", File: "homeworks/answer.pdf"})
	require.NoError(t, err)
	assert.Equal(t, submittedAt, *sub.SubmittedAt)
	assert.Equal(t, "x = 43", sub.SubmittedText)
	assert.Equal(t, "homeworks/answer.pdf", sub.SubmittedFile)

	subs, err := ht.svc.QuerySubmissions(ctx, ht.orgID, ht.hw.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	// not a member of the group
	outsider := testutil.CreateStudent(t, inmemdb.NewStudentRepository(ht.db), ht.orgID, "Vali", "Aliyev", true)
	_, err = ht.svc.Submit(ctx, ht.orgID, ht.hw.ID, homework.SubmitWork{StudentID: outsider.ID, Text: "hi"})
	assert.True(t, core.IsValidation(err))

	_, err = ht.svc.Submit(ctx, ht.orgID, core.NewID(), homework.SubmitWork{StudentID: ht.studentID, Text: "hi"})
	assert.True(t, core.IsNotFound(err))
}

func TestService_Grade(t *testing.T) {
	ht := setUp(t)
	ctx := context.Background()

	empty, err := ht.svc.Submit(ctx, ht.orgID, ht.hw.ID, homework.SubmitWork{StudentID: ht.studentID})
	require.NoError(t, err)

	// nothing submitted yet
	_, err = ht.svc.Grade(ctx, ht.orgID, empty.ID, homework.GradeSubmission{Mark: 4})
	assert.True(t, core.IsValidation(err))

	sub, err := ht.svc.Submit(ctx, ht.orgID, ht.hw.ID, homework.SubmitWork{StudentID: ht.studentID, Text: "done"})
	require.NoError(t, err)

	tests := []struct {
		mark    int
		wantErr bool
	}{
		{mark: 0, wantErr: true},
		{mark: 6, wantErr: true},
		{mark: -1, wantErr: true},
		{mark: 1},
		{mark: 5},
	}

	for _, tc := range tests {
		graded, err := ht.svc.Grade(ctx, ht.orgID, sub.ID, homework.GradeSubmission{Mark: tc.mark, Comment: "ok"})
		if tc.wantErr {
			assert.True(t, core.IsValidation(err), "mark %d", tc.mark)
			continue
		}
		require.NoError(t, err, "mark %d", tc.mark)
		require.NotNil(t, graded.Mark)
		assert.Equal(t, tc.mark, *graded.Mark)
		assert.Equal(t, "ok", graded.TeacherComment)
	}

	_, err = ht.svc.Grade(ctx, ht.orgID, core.NewID(), homework.GradeSubmission{Mark: 3})
	assert.True(t, core.IsNotFound(err))
}
