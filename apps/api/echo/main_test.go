package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/dashboard"
	"github.com/trezcool/markaz/core/group"
	"github.com/trezcool/markaz/core/homework"
	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/lesson"
	"github.com/trezcool/markaz/core/organization"
	"github.com/trezcool/markaz/core/payment"
	"github.com/trezcool/markaz/core/staff"
	"github.com/trezcool/markaz/core/student"
	"github.com/trezcool/markaz/core/user"
	emailsvc "github.com/trezcool/markaz/services/email"
	logsvc "github.com/trezcool/markaz/services/logger"
	storagesvc "github.com/trezcool/markaz/services/storage"
	inmemdb "github.com/trezcool/markaz/storage/database/inmem"
	testutil "github.com/trezcool/markaz/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type apiTest struct {
	srv     *Server
	conf    *core.Config
	mailSvc *emailsvc.ConsoleServiceMock

	orgRepo      organization.Repository
	usrRepo      user.Repository
	staffRepo    staff.Repository
	studentRepo  student.Repository
	groupRepo    group.Repository
	paymentRepo  payment.Repository
	lessonRepo   lesson.Repository
	homeworkRepo homework.Repository

	org        organization.Organization
	admin      user.User
	adminToken string
}

func setUp(t *testing.T) apiTest {
	conf := core.NewTestConfig()
	conf.Storage.LocalRoot = t.TempDir()
	logger := logsvc.NewRollbarLogger(log.New(new(bytes.Buffer), "", 0), conf)
	core.ParseEmailTemplates(conf, logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	validate := validator.New()
	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// repos
	db := inmemdb.Open()
	orgRepo := inmemdb.NewOrganizationRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	staffRepo := inmemdb.NewStaffRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	groupRepo := inmemdb.NewGroupRepository(db)
	paymentRepo := inmemdb.NewPaymentRepository(db)
	lessonRepo := inmemdb.NewLessonRepository(db)
	homeworkRepo := inmemdb.NewHomeworkRepository(db)

	srv := NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Files:        storagesvc.NewLocalStorage(conf),
		UserSvc:      user.NewService(usrRepo, mailSvc, conf),
		OrgSvc:       organization.NewService(orgRepo),
		StaffSvc:     staff.NewService(staffRepo),
		LedgerSvc:    ledger.NewService(db, inmemdb.NewLedgerRepository(db), staffRepo, paymentRepo),
		StudentSvc:   student.NewService(studentRepo),
		GroupSvc:     group.NewService(groupRepo, staffRepo, studentRepo),
		PaymentSvc:   payment.NewService(conf, paymentRepo, groupRepo),
		LessonSvc:    lesson.NewService(lessonRepo, groupRepo),
		HomeworkSvc:  homework.NewService(db, homeworkRepo, lessonRepo, groupRepo, staffRepo),
		DashboardSvc: dashboard.NewService(conf, inmemdb.NewDashboardRepository(db), nil, logger),
	})

	at := apiTest{
		srv:          srv,
		conf:         conf,
		mailSvc:      mailSvc,
		orgRepo:      orgRepo,
		usrRepo:      usrRepo,
		staffRepo:    staffRepo,
		studentRepo:  studentRepo,
		groupRepo:    groupRepo,
		paymentRepo:  paymentRepo,
		lessonRepo:   lessonRepo,
		homeworkRepo: homeworkRepo,
	}
	at.org = testutil.CreateOrganization(t, orgRepo, "Markaz")
	at.admin = testutil.CreateUser(t, usrRepo, at.org.ID, "Admin", "admin", "admin@test.test", "Pwd123!!", []string{user.RoleAdminOwner}, true)
	at.adminToken = at.getToken(t, at.admin)
	return at
}

func (at apiTest) getToken(t *testing.T, usr user.User) string {
	token, err := at.srv.auth.generateToken(at.srv.auth.userClaims(usr))
	require.NoError(t, err, "getToken()")
	return token
}

// do serves the request and returns the recorded response.
func (at apiTest) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	at.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newMultipartRequest builds a multipart form request; filename may be empty to send no file.
func newMultipartRequest(
	t *testing.T,
	method, path, token string,
	fields map[string]string,
	filename string,
	content io.Reader,
) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = io.Copy(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marshallObj()")
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "decode(): %s", rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, at apiTest, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, at.do(req, rec))
		})
	}
}
