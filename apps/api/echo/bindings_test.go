package echoapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
)

func TestOrdering_Bind(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    []core.DBOrdering
		wantErr bool
	}{
		{name: "none"},
		{name: "empty", query: ""},
		{
			name:  "ascending and descending",
			query: "last_name,-created_at",
			want:  []core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "created_at"}},
		},
		{
			name:  "blanks and repeats",
			query: " first_name , ,-first_name,-",
			want:  []core.DBOrdering{{Field: "first_name", Ascending: true}},
		},
		{name: "unknown field", query: "-password", wantErr: true},
		{name: "column injection", query: "first_name;DROP TABLE student", wantErr: true},
	}

	e := echo.New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := "/v1/students"
			if tc.name != "none" {
				target += "?" + orderingParam + "=" + url.QueryEscape(tc.query)
			}
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())

			ord := new(Ordering)
			err := ord.Bind(ctx, studentOrderings)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsValidation(err))
				assert.Empty(t, ord.Orderings)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, ord.Orderings)
		})
	}
}

func Test_studentApi_query_ordering(t *testing.T) {
	at := setUp(t)

	tests := []httpTest{
		{
			name:     "allowed",
			method:   http.MethodGet,
			path:     "/v1/students?ordering=-last_name",
			token:    at.adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "not allowed",
			method:   http.MethodGet,
			path:     "/v1/students?ordering=balance",
			token:    at.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"ordering": `cannot order by "balance"; allowed: first_name, last_name, date_of_birth, created_at`,
			}),
		},
	}
	runHTTPTests(t, at, tests)
}
