package echoapi

import (
	"bytes"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core/homework"
	"github.com/trezcool/markaz/core/staff"
	testutil "github.com/trezcool/markaz/tests"
)

func Test_homeworkApi_submitAndGrade(t *testing.T) {
	at := setUp(t)
	sp := testutil.CreateSpecialty(t, at.staffRepo, at.org.ID, "Math")
	teacher := testutil.CreateStaff(t, at.staffRepo, at.org.ID, sp.ID, "Teacher", staff.RoleTeacher, true)
	grp := testutil.CreateGroup(t, at.groupRepo, at.org.ID, teacher.ID, "Algebra", true)
	st := testutil.CreateStudent(t, at.studentRepo, at.org.ID, "Ali", "Valiyev", true)
	outsider := testutil.CreateStudent(t, at.studentRepo, at.org.ID, "Vali", "Aliyev", true)
	testutil.AddMember(t, at.groupRepo, at.org.ID, grp.ID, st.ID)
	l := testutil.CreateLesson(t, at.lessonRepo, at.org.ID, grp.ID, 1)
	hw := testutil.CreateHomework(t, at.homeworkRepo, at.org.ID, l.ID, teacher.ID)
	submitPath := "/v1/homework/" + hw.ID + "/submissions"

	// an empty submission is registered but not submitted
	req, rec := newAuthRequest(http.MethodPost, submitPath, at.adminToken, marshallObj(t, homework.SubmitWork{StudentID: st.ID}))
	at.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sub homework.Submission
	decode(t, rec, &sub)
	assert.False(t, sub.IsSubmitted())
	gradePath := "/v1/submissions/" + sub.ID + "/grade"

	runHTTPTests(t, at, []httpTest{
		{
			name:     "grade before submission",
			method:   http.MethodPut,
			path:     gradePath,
			body:     marshallObj(t, homework.GradeSubmission{Mark: 5}),
			token:    at.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"mark": "submission has not been submitted yet"}),
		},
		{
			name:     "not a member",
			method:   http.MethodPost,
			path:     submitPath,
			body:     marshallObj(t, homework.SubmitWork{StudentID: outsider.ID, Text: "42"}),
			token:    at.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"student_id": "student is not a member of this group"}),
		},
	})

	t.Run("forbidden file", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, submitPath, at.adminToken,
			map[string]string{"student_id": st.ID}, "virus.exe", strings.NewReader("x"))
		at.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	// submitting a file
	req, rec = newMultipartRequest(t, http.MethodPost, submitPath, at.adminToken,
		map[string]string{"student_id": st.ID, "submitted_text": "see file"}, "answer.txt", strings.NewReader("42"))
	at.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res map[string]interface{}
	decode(t, rec, &res)
	assert.Equal(t, sub.ID, res["id"])
	assert.Equal(t, "see file", res["submitted_text"])
	assert.NotNil(t, res["submitted_at"])
	key, _ := res["submitted_file"].(string)
	require.True(t, strings.HasPrefix(key, "homeworks/"), key)
	assert.Equal(t, "/media/"+key, res["submitted_file_url"])

	data, err := os.ReadFile(filepath.Join(at.conf.Storage.LocalRoot, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))

	// the stored file is served back
	req, rec = newRequest(http.MethodGet, "/media/"+key)
	at.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())

	runHTTPTests(t, at, []httpTest{
		{
			name:     "mark out of range",
			method:   http.MethodPut,
			path:     gradePath,
			body:     marshallObj(t, homework.GradeSubmission{Mark: 6}),
			token:    at.adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown submission",
			method:   http.MethodPut,
			path:     "/v1/submissions/" + hw.ID + "/grade",
			body:     marshallObj(t, homework.GradeSubmission{Mark: 5}),
			token:    at.adminToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "submission not found"}),
		},
	})

	req, rec = newAuthRequest(http.MethodPut, gradePath, at.adminToken, marshallObj(t, homework.GradeSubmission{Mark: 5, Comment: "well done"}))
	at.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &sub)
	require.NotNil(t, sub.Mark)
	assert.Equal(t, 5, *sub.Mark)
	assert.Equal(t, "well done", sub.TeacherComment)
}

func Test_organizationApi_logo(t *testing.T) {
	at := setUp(t)
	path := "/v1/organization/logo"

	png := func(t *testing.T) *bytes.Buffer {
		buf := new(bytes.Buffer)
		require.NoError(t, imaging.Encode(buf, image.NewRGBA(image.Rect(0, 0, 32, 32)), imaging.PNG))
		return buf
	}

	tests := []struct {
		name     string
		filename string
		wantCode int
	}{
		{name: "no file", wantCode: http.StatusBadRequest},
		{name: "not an image", filename: "logo.pdf", wantCode: http.StatusBadRequest},
		{name: "png", filename: "logo.png", wantCode: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, rec := newMultipartRequest(t, http.MethodPut, path, at.adminToken, nil, tc.filename, png(t))
			at.do(req, rec)
			assert.Equal(t, tc.wantCode, rec.Code, rec.Body.String())
		})
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/organization", at.adminToken)
	at.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first map[string]interface{}
	decode(t, rec, &first)
	firstKey, _ := first["logo"].(string)
	require.True(t, strings.HasPrefix(firstKey, "edu_logo/"), firstKey)
	assert.Equal(t, "/media/"+firstKey, first["logo_url"])

	// replacing the logo removes the previous file
	req, rec = newMultipartRequest(t, http.MethodPut, path, at.adminToken, nil, "logo.png", png(t))
	at.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, err := os.Stat(filepath.Join(at.conf.Storage.LocalRoot, filepath.FromSlash(firstKey)))
	assert.True(t, os.IsNotExist(err))
}

func Test_staffApi_specialties(t *testing.T) {
	at := setUp(t)
	used := testutil.CreateSpecialty(t, at.staffRepo, at.org.ID, "Math")
	free := testutil.CreateSpecialty(t, at.staffRepo, at.org.ID, "Art")
	testutil.CreateStaff(t, at.staffRepo, at.org.ID, used.ID, "Teacher", staff.RoleTeacher, true)

	tests := []httpTest{
		{
			name:     "in use",
			method:   http.MethodDelete,
			path:     "/v1/specialties/" + used.ID,
			token:    at.adminToken,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: "specialty is still referenced by staff members"}),
		},
		{
			name:     "free",
			method:   http.MethodDelete,
			path:     "/v1/specialties/" + free.ID,
			token:    at.adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "staff with unknown specialty",
			method:   http.MethodPost,
			path:     "/v1/staff",
			body:     []byte(`{"name": "New", "phone_number": "+998901112233", "role": "teacher", "specialty_id": "` + free.ID + `", "salary_scheme": 1, "salary_amount": "100"}`),
			token:    at.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"specialty_id": "specialty not found"}),
		},
		{
			name:     "staff",
			method:   http.MethodPost,
			path:     "/v1/staff",
			body:     []byte(`{"name": "New", "phone_number": "+998901112233", "role": "teacher", "specialty_id": "` + used.ID + `", "salary_scheme": 1, "salary_amount": "100"}`),
			token:    at.adminToken,
			wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, at, tests)
}
