package group_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
	"github.com/trezcool/markaz/core/staff"
	inmemdb "github.com/trezcool/markaz/storage/database/inmem"
	testutil "github.com/trezcool/markaz/tests"
)

type groupTest struct {
	db      *inmemdb.DB
	svc     *group.Service
	orgID   string
	teacher staff.Member
	manager staff.Member
}

func setUp(t *testing.T) groupTest {
	db := inmemdb.Open()
	staffRepo := inmemdb.NewStaffRepository(db)
	org := testutil.CreateOrganization(t, inmemdb.NewOrganizationRepository(db), "Markaz")
	sp := testutil.CreateSpecialty(t, staffRepo, org.ID, "Math")

	return groupTest{
		db:      db,
		svc:     group.NewService(inmemdb.NewGroupRepository(db), staffRepo, inmemdb.NewStudentRepository(db)),
		orgID:   org.ID,
		teacher: testutil.CreateStaff(t, staffRepo, org.ID, sp.ID, "Teacher", staff.RoleTeacher, true),
		manager: testutil.CreateStaff(t, staffRepo, org.ID, sp.ID, "Manager", staff.RoleManager, true),
	}
}

func TestService_Create(t *testing.T) {
	gt := setUp(t)
	ctx := context.Background()
	start := time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		ng        group.NewGroup
		wantField string
	}{
		{
			name: "valid",
			ng:   group.NewGroup{Name: "Algebra", TeacherID: gt.teacher.ID, StartDate: start, EndDate: start.AddDate(0, 3, 0)},
		},
		{
			name: "one day",
			ng:   group.NewGroup{Name: "Workshop", TeacherID: gt.teacher.ID, StartDate: start, EndDate: start},
		},
		{
			name:      "ends before start",
			ng:        group.NewGroup{Name: "Algebra", TeacherID: gt.teacher.ID, StartDate: start, EndDate: start.AddDate(0, 0, -1)},
			wantField: "end_date",
		},
		{
			name:      "not a teacher",
			ng:        group.NewGroup{Name: "Algebra", TeacherID: gt.manager.ID, StartDate: start, EndDate: start},
			wantField: "teacher_id",
		},
		{
			name:      "unknown teacher",
			ng:        group.NewGroup{Name: "Algebra", TeacherID: core.NewID(), StartDate: start, EndDate: start},
			wantField: "teacher_id",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := gt.svc.Create(ctx, gt.orgID, tc.ng)
			if tc.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.ng.Name, g.Name)
				assert.True(t, g.IsActive)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Fields[0].Field)
		})
	}
}

func TestService_memberships(t *testing.T) {
	gt := setUp(t)
	ctx := context.Background()
	studentRepo := inmemdb.NewStudentRepository(gt.db)

	g := testutil.CreateGroup(t, inmemdb.NewGroupRepository(gt.db), gt.orgID, gt.teacher.ID, "Algebra", true)
	s := testutil.CreateStudent(t, studentRepo, gt.orgID, "Ali", "Karimov", true)
	other := testutil.CreateOrganization(t, inmemdb.NewOrganizationRepository(gt.db), "Other")
	stranger := testutil.CreateStudent(t, studentRepo, other.ID, "Vali", "Aliyev", true)

	_, err := gt.svc.AddStudent(ctx, gt.orgID, g.ID, s.ID)
	require.NoError(t, err)

	ok, err := gt.svc.IsMember(ctx, gt.orgID, g.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// one active membership per pair
	_, err = gt.svc.AddStudent(ctx, gt.orgID, g.ID, s.ID)
	assert.True(t, core.IsConstraint(err))

	// students of other organizations are not visible
	_, err = gt.svc.AddStudent(ctx, gt.orgID, g.ID, stranger.ID)
	assert.True(t, core.IsValidation(err))

	require.NoError(t, gt.svc.RemoveStudent(ctx, gt.orgID, g.ID, s.ID))
	ok, err = gt.svc.IsMember(ctx, gt.orgID, g.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// may join again once the previous membership ended
	_, err = gt.svc.AddStudent(ctx, gt.orgID, g.ID, s.ID)
	require.NoError(t, err)
	ms, err := gt.svc.Memberships(ctx, gt.orgID, g.ID)
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	err = gt.svc.RemoveStudent(ctx, gt.orgID, g.ID, stranger.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_schedule(t *testing.T) {
	gt := setUp(t)
	ctx := context.Background()
	g := testutil.CreateGroup(t, inmemdb.NewGroupRepository(gt.db), gt.orgID, gt.teacher.ID, "Algebra", true)

	tests := []struct {
		name       string
		slot       group.NewScheduleSlot
		wantField  string
		constraint bool
	}{
		{name: "wednesday", slot: group.NewScheduleSlot{DayOfWeek: "wednesday", StartTime: "14:00", EndTime: "15:30"}},
		{name: "monday", slot: group.NewScheduleSlot{DayOfWeek: "monday", StartTime: "9:00", EndTime: "10:00"}},
		{name: "same day", slot: group.NewScheduleSlot{DayOfWeek: "monday", StartTime: "16:00", EndTime: "17:00"}, constraint: true},
		{name: "ends before start", slot: group.NewScheduleSlot{DayOfWeek: "friday", StartTime: "16:00", EndTime: "15:00"}, wantField: "end_time"},
		{name: "empty slot", slot: group.NewScheduleSlot{DayOfWeek: "friday", StartTime: "16:00", EndTime: "16:00"}, wantField: "end_time"},
		{name: "bad day", slot: group.NewScheduleSlot{DayOfWeek: "someday", StartTime: "16:00", EndTime: "17:00"}, wantField: "day_of_week"},
		{name: "bad time", slot: group.NewScheduleSlot{DayOfWeek: "friday", StartTime: "25:00", EndTime: "17:00"}, wantField: "start_time"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := gt.svc.AddScheduleSlot(ctx, gt.orgID, g.ID, tc.slot)
			switch {
			case tc.constraint:
				assert.True(t, core.IsConstraint(err), "want constraint error, got %v", err)
			case tc.wantField != "":
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tc.wantField, verr.Fields[0].Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.slot.DayOfWeek, s.DayOfWeek)
			}
		})
	}

	slots, err := gt.svc.Schedule(ctx, gt.orgID, g.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "monday", slots[0].DayOfWeek)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "wednesday", slots[1].DayOfWeek)

	require.NoError(t, gt.svc.RemoveScheduleSlot(ctx, gt.orgID, slots[0].ID))
	_, err = gt.svc.AddScheduleSlot(ctx, gt.orgID, g.ID, group.NewScheduleSlot{DayOfWeek: "monday", StartTime: "16:00", EndTime: "17:00"})
	assert.NoError(t, err)
}
