package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Files      core.FileStorage

		UserSvc      *user.Service
		OrgSvc       *organization.Service
		StaffSvc     *staff.Service
		LedgerSvc    *ledger.Service
		StudentSvc   *student.Service
		GroupSvc     *group.Service
		PaymentSvc   *payment.Service
		LessonSvc    *lesson.Service
		HomeworkSvc  *homework.Service
		DashboardSvc *dashboard.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode
	s.app.HideBanner = true

	s.app.GET("/", home)

	// uploaded files of the local backend
	if conf.Storage.Backend == "local" && strings.HasPrefix(conf.Storage.PublicBaseURL, "/") {
		s.app.Static(conf.Storage.PublicBaseURL, conf.Storage.LocalRoot)
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConf)
	org := orgMiddleware()

	registerUserAPI(v1, jwt, s.auth, s.deps)
	registerOrganizationAPI(v1, jwt, org, s.deps)
	registerStaffAPI(v1, jwt, org, s.deps)
	registerLedgerAPI(v1, jwt, org, s.deps)
	registerStudentAPI(v1, jwt, org, s.deps)
	registerGroupAPI(v1, jwt, org, s.deps)
	registerPaymentAPI(v1, jwt, org, s.deps)
	registerLessonAPI(v1, jwt, org, s.deps)
	registerHomeworkAPI(v1, jwt, org, s.deps)
	registerDashboardAPI(v1, jwt, org, s.deps)
}

// Start listens on the configured address. Listener errors are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to shut the server down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Markaz API!")
}
