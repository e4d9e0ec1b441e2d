package echoapi

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core/dashboard"
	"github.com/trezcool/markaz/core/group"
	"github.com/trezcool/markaz/core/payment"
	"github.com/trezcool/markaz/core/staff"
	testutil "github.com/trezcool/markaz/tests"
)

func Test_groupApi_members(t *testing.T) {
	at := setUp(t)
	sp := testutil.CreateSpecialty(t, at.staffRepo, at.org.ID, "Math")
	teacher := testutil.CreateStaff(t, at.staffRepo, at.org.ID, sp.ID, "Teacher", staff.RoleTeacher, true)
	grp := testutil.CreateGroup(t, at.groupRepo, at.org.ID, teacher.ID, "Algebra", true)
	st := testutil.CreateStudent(t, at.studentRepo, at.org.ID, "Ali", "Valiyev", true)

	other := testutil.CreateOrganization(t, at.orgRepo, "Other")
	otherSp := testutil.CreateSpecialty(t, at.staffRepo, other.ID, "Math")
	otherTeacher := testutil.CreateStaff(t, at.staffRepo, other.ID, otherSp.ID, "Teacher", staff.RoleTeacher, true)
	otherGrp := testutil.CreateGroup(t, at.groupRepo, other.ID, otherTeacher.ID, "Geometry", true)
	stranger := testutil.CreateStudent(t, at.studentRepo, other.ID, "Stranger", "Danger", true)

	member := marshallObj(t, group.NewMembership{StudentID: st.ID})

	tests := []httpTest{
		{
			name:     "add",
			method:   http.MethodPost,
			path:     "/v1/groups/" + grp.ID + "/members",
			body:     member,
			token:    at.adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "add twice",
			method:   http.MethodPost,
			path:     "/v1/groups/" + grp.ID + "/members",
			body:     member,
			token:    at.adminToken,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: "student is already a member of this group"}),
		},
		{
			name:     "student of another organization",
			method:   http.MethodPost,
			path:     "/v1/groups/" + grp.ID + "/members",
			body:     marshallObj(t, group.NewMembership{StudentID: stranger.ID}),
			token:    at.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"student_id": "student not found"}),
		},
		{
			name:     "group of another organization",
			method:   http.MethodGet,
			path:     "/v1/groups/" + otherGrp.ID,
			token:    at.adminToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "group not found"}),
		},
		{
			name:     "remove",
			method:   http.MethodDelete,
			path:     "/v1/groups/" + grp.ID + "/members/" + st.ID,
			token:    at.adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "add again after removal",
			method:   http.MethodPost,
			path:     "/v1/groups/" + grp.ID + "/members",
			body:     member,
			token:    at.adminToken,
			wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, at, tests)

	req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID+"/members", at.adminToken)
	at.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ms []group.Membership
	decode(t, rec, &ms)
	active := 0
	for _, m := range ms {
		if m.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func Test_groupApi_schedule(t *testing.T) {
	at := setUp(t)
	sp := testutil.CreateSpecialty(t, at.staffRepo, at.org.ID, "Math")
	teacher := testutil.CreateStaff(t, at.staffRepo, at.org.ID, sp.ID, "Teacher", staff.RoleTeacher, true)
	grp := testutil.CreateGroup(t, at.groupRepo, at.org.ID, teacher.ID, "Algebra", true)
	path := "/v1/groups/" + grp.ID + "/schedule"

	req, rec := newAuthRequest(http.MethodPost, path, at.adminToken, marshallObj(t, group.NewScheduleSlot{
		DayOfWeek: "Monday",
		StartTime: "09:00",
		EndTime:   "10:30",
	}))
	at.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var slot group.ScheduleSlot
	decode(t, rec, &slot)

	tests := []httpTest{
		{
			name:   "invalid day",
			method: http.MethodPost,
			path:   path,
			body: marshallObj(t, group.NewScheduleSlot{
				DayOfWeek: "someday",
				StartTime: "09:00",
				EndTime:   "10:30",
			}),
			token:    at.adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "remove unknown slot",
			method:   http.MethodDelete,
			path:     path + "/" + grp.ID,
			token:    at.adminToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "schedule slot not found"}),
		},
		{
			name:     "remove",
			method:   http.MethodDelete,
			path:     path + "/" + slot.ID,
			token:    at.adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "empty schedule",
			method:   http.MethodGet,
			path:     path,
			token:    at.adminToken,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	runHTTPTests(t, at, tests)
}

func Test_dashboardApi(t *testing.T) {
	at := setUp(t)

	summary := func(t *testing.T) dashboard.Summary {
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", at.adminToken)
		at.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var s dashboard.Summary
		decode(t, rec, &s)
		return s
	}

	empty := summary(t)
	assert.Zero(t, empty.ActiveStudents)
	assert.Zero(t, empty.ActiveTeachers)
	assert.Zero(t, empty.ActiveGroups)
	assert.True(t, empty.TodayPayments.IsZero())
	assert.True(t, at.conf.Today().Equal(empty.Day))

	sp := testutil.CreateSpecialty(t, at.staffRepo, at.org.ID, "Math")
	teacher := testutil.CreateStaff(t, at.staffRepo, at.org.ID, sp.ID, "Teacher", staff.RoleTeacher, true)
	grp := testutil.CreateGroup(t, at.groupRepo, at.org.ID, teacher.ID, "Algebra", true)
	st := testutil.CreateStudent(t, at.studentRepo, at.org.ID, "Ali", "Valiyev", true)

	newPayment := marshallObj(t, payment.NewPayment{StudentID: st.ID, GroupID: grp.ID, Amount: decimal.NewFromInt(250)})

	// not a member yet
	runHTTPTests(t, at, []httpTest{{
		name:     "payment of a non member",
		method:   http.MethodPost,
		path:     "/v1/payments",
		body:     newPayment,
		token:    at.adminToken,
		wantCode: http.StatusBadRequest,
		wantData: marshallObj(t, map[string]string{"student_id": "student is not a member of this group"}),
	}})

	testutil.AddMember(t, at.groupRepo, at.org.ID, grp.ID, st.ID)
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments", at.adminToken, newPayment)
	at.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p payment.Payment
	decode(t, rec, &p)
	assert.True(t, at.conf.Today().Equal(p.PaidAt))

	s := summary(t)
	assert.Equal(t, 1, s.ActiveStudents)
	assert.Equal(t, 1, s.ActiveTeachers)
	assert.Equal(t, 1, s.ActiveGroups)
	assert.True(t, decimal.NewFromInt(250).Equal(s.TodayPayments))

	// cancelled payments are not counted
	req, rec = newAuthRequest(http.MethodDelete, "/v1/payments/"+p.ID, at.adminToken)
	at.do(req, rec)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.True(t, summary(t).TodayPayments.IsZero())
}
