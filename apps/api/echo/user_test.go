package echoapi

import (
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core/user"
	testutil "github.com/trezcool/markaz/tests"
)

func Test_home(t *testing.T) {
	at := setUp(t)
	req, rec := newRequest(http.MethodGet, "/")
	at.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Markaz API!", rec.Body.String())
}

func Test_userApi_login(t *testing.T) {
	at := setUp(t)
	testutil.CreateUser(t, at.usrRepo, at.org.ID, "Gone", "gone", "gone@test.test", "Pwd123!!", []string{user.RoleTeacher}, false)

	tests := []httpTest{
		{
			name:     "blank",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marshallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "unknown user",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marshallObj(t, LoginRequest{Username: "nobody", Password: "Pwd123!!"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marshallObj(t, LoginRequest{Username: "admin", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated",
			method:   http.MethodPost,
			path:     "/v1/users/login",
			body:     marshallObj(t, LoginRequest{Username: "gone", Password: "Pwd123!!"}),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, at, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", marshallObj(t, LoginRequest{Username: "ADMIN@test.test", Password: "Pwd123!!"}))
		at.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res LoginResponse
		decode(t, rec, &res)
		claims := new(Claims)
		_, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(at.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, at.admin.ID, claims.Subject)
		assert.Equal(t, at.org.ID, claims.OrganizationID)
		assert.True(t, claims.IsAdmin)
		assert.False(t, claims.IsTeacher)
	})
}

func Test_userApi_authorization(t *testing.T) {
	at := setUp(t)
	teacher := testutil.CreateUser(t, at.usrRepo, at.org.ID, "Teacher", "teacher", "teacher@test.test", "", []string{user.RoleTeacher}, true)
	orphan := testutil.CreateUser(t, at.usrRepo, "", "Orphan", "orphan", "orphan@test.test", "", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/students",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "admin only",
			method:   http.MethodGet,
			path:     "/v1/ledger",
			token:    at.getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "no organization",
			method:   http.MethodGet,
			path:     "/v1/students",
			token:    at.getToken(t, orphan),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "user does not belong to an organization"}),
		},
		{
			name:     "teacher reads students",
			method:   http.MethodGet,
			path:     "/v1/students",
			token:    at.getToken(t, teacher),
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	runHTTPTests(t, at, tests)
}

func Test_userApi_tokenRefresh(t *testing.T) {
	at := setUp(t)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", at.adminToken)
	at.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	decode(t, rec, &res)
	assert.NotEmpty(t, res.Token)
}

func Test_userApi_passwordReset(t *testing.T) {
	at := setUp(t)
	const newPwd = "Xk7#mQ2!vb"

	success := SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	}

	// unknown emails are not disclosed
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", marshallObj(t, PasswordResetRequest{Email: "who@test.test"}))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, success)}, at.do(req, rec))
	assert.Empty(t, at.mailSvc.SentMessages())

	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset", marshallObj(t, PasswordResetRequest{Email: at.admin.Email}))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, success)}, at.do(req, rec))

	msgs := at.mailSvc.SentMessages()
	require.Len(t, msgs, 1)
	data, ok := msgs[0].TemplateData.(map[string]interface{})
	require.True(t, ok, "TemplateData is %T", msgs[0].TemplateData)
	uid, _ := data["UID"].(string)
	token, _ := data["Token"].(string)
	require.NotEmpty(t, uid)
	require.NotEmpty(t, token)

	tests := []httpTest{
		{
			name:   "bad token",
			method: http.MethodPost,
			path:   "/v1/users/password-reset-confirm",
			body: marshallObj(t, user.ResetUserPassword{
				UID: uid, Token: "bad-token", Password: newPwd, PasswordConfirm: newPwd,
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "mismatch",
			method: http.MethodPost,
			path:   "/v1/users/password-reset-confirm",
			body: marshallObj(t, user.ResetUserPassword{
				UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd + "x",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "success",
			method: http.MethodPost,
			path:   "/v1/users/password-reset-confirm",
			body: marshallObj(t, user.ResetUserPassword{
				UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd,
			}),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	runHTTPTests(t, at, tests)

	req, rec = newRequest(http.MethodPost, "/v1/users/login", marshallObj(t, LoginRequest{Username: "admin", Password: newPwd}))
	at.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_userApi_tenancy(t *testing.T) {
	at := setUp(t)
	other := testutil.CreateOrganization(t, at.orgRepo, "Other")
	stranger := testutil.CreateUser(t, at.usrRepo, other.ID, "Stranger", "stranger", "stranger@test.test", "", []string{user.RoleTeacher}, true)
	mate := testutil.CreateUser(t, at.usrRepo, at.org.ID, "Mate", "mate", "mate@test.test", "", []string{user.RoleTeacher}, true)

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", at.adminToken)
		at.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usrs []user.User
		decode(t, rec, &usrs)
		ids := make([]string, 0, len(usrs))
		for _, u := range usrs {
			ids = append(ids, u.ID)
		}
		assert.ElementsMatch(t, []string{at.admin.ID, mate.ID}, ids)
	})

	tests := []httpTest{
		{
			name:     "same organization",
			method:   http.MethodGet,
			path:     "/v1/users/" + mate.ID,
			token:    at.adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "other organization",
			method:   http.MethodGet,
			path:     "/v1/users/" + stranger.ID,
			token:    at.adminToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "teacher reads another user",
			method:   http.MethodGet,
			path:     "/v1/users/" + at.admin.ID,
			token:    at.getToken(t, mate),
			wantCode: http.StatusNotFound,
		},
	}
	runHTTPTests(t, at, tests)
}
