package lesson_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/lesson"
	"github.com/trezcool/markaz/core/staff"
	inmemdb "github.com/trezcool/markaz/storage/database/inmem"
	testutil "github.com/trezcool/markaz/tests"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	staffRepo := inmemdb.NewStaffRepository(db)
	groupRepo := inmemdb.NewGroupRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	svc := lesson.NewService(inmemdb.NewLessonRepository(db), groupRepo)

	org := testutil.CreateOrganization(t, inmemdb.NewOrganizationRepository(db), "Markaz")
	sp := testutil.CreateSpecialty(t, staffRepo, org.ID, "Math")
	teacher := testutil.CreateStaff(t, staffRepo, org.ID, sp.ID, "T", staff.RoleTeacher, true)
	grp := testutil.CreateGroup(t, groupRepo, org.ID, teacher.ID, "G", true)
	member := testutil.CreateStudent(t, studentRepo, org.ID, "Ali", "Karimov", true)
	outsider := testutil.CreateStudent(t, studentRepo, org.ID, "Vali", "Aliyev", true)
	testutil.AddMember(t, groupRepo, org.ID, grp.ID, member.ID)

	day := time.Date(2023, time.May, 2, 0, 0, 0, 0, time.UTC)
	for _, n := range []int{3, 1, 2} {
		_, err := svc.Create(ctx, org.ID, grp.ID, lesson.NewLesson{Number: n, Title: "Lesson", ScheduledDate: day.AddDate(0, 0, n)})
		require.NoError(t, err)
	}

	// numbers are unique per group
	_, err := svc.Create(ctx, org.ID, grp.ID, lesson.NewLesson{Number: 2, Title: "Again", ScheduledDate: day})
	assert.True(t, core.IsConstraint(err))

	_, err = svc.Create(ctx, org.ID, core.NewID(), lesson.NewLesson{Number: 1, Title: "Lost", ScheduledDate: day})
	assert.True(t, core.IsNotFound(err))

	plan, err := svc.Plan(ctx, org.ID, grp.ID)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	for i, l := range plan {
		assert.Equal(t, i+1, l.Number)
	}

	first := plan[0]
	_, err = svc.MarkAttendance(ctx, org.ID, first.ID, lesson.MarkAttendance{StudentID: member.ID, IsPresent: false})
	require.NoError(t, err)
	// marking again replaces the record
	a, err := svc.MarkAttendance(ctx, org.ID, first.ID, lesson.MarkAttendance{StudentID: member.ID, IsPresent: true, Notes: "late"})
	require.NoError(t, err)
	assert.True(t, a.IsPresent)

	_, err = svc.MarkAttendance(ctx, org.ID, first.ID, lesson.MarkAttendance{StudentID: outsider.ID, IsPresent: true})
	assert.True(t, core.IsValidation(err))

	records, err := svc.Attendance(ctx, org.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsPresent)
	assert.Equal(t, "late", records[0].Notes)
}
