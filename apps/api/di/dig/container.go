package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/markaz/apps/api/echo"
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
	cachesvc "github.com/trezcool/markaz/services/cache"
	emailsvc "github.com/trezcool/markaz/services/email"
	logsvc "github.com/trezcool/markaz/services/logger"
	schedulersvc "github.com/trezcool/markaz/services/scheduler"
	storagesvc "github.com/trezcool/markaz/services/storage"
	"github.com/trezcool/markaz/storage/database"
	boiledrepos "github.com/trezcool/markaz/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/markaz/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

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

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.OpenX(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newDBExecutor(db *sqlx.DB) core.DBExecutor { return db }

func newTransactor(db *sqlx.DB) core.Transactor { return sqlxrepos.NewTransactor(db) }

// newCache returns a nil cache when redis is not configured or unreachable.
func newCache(conf *core.Config, logger core.Logger) dashboard.Cache {
	rdb, err := cachesvc.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", err)
		return nil
	}
	if rdb == nil {
		return nil
	}
	return cachesvc.NewRedisCache(rdb, conf)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newScheduler(conf *core.Config, orgSvc *organization.Service, ledgerSvc *ledger.Service, logger core.Logger) (*schedulersvc.Scheduler, error) {
	return schedulersvc.New(conf, orgSvc, ledgerSvc, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:         p.Conf,
		Logger:       p.Logger,
		Validate:     p.Validate,
		Translator:   p.Translator,
		Files:        p.Files,
		UserSvc:      p.UserSvc,
		OrgSvc:       p.OrgSvc,
		StaffSvc:     p.StaffSvc,
		LedgerSvc:    p.LedgerSvc,
		StudentSvc:   p.StudentSvc,
		GroupSvc:     p.GroupSvc,
		PaymentSvc:   p.PaymentSvc,
		LessonSvc:    p.LessonSvc,
		HomeworkSvc:  p.HomeworkSvc,
		DashboardSvc: p.DashboardSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// infra
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newDBExecutor))
	must(c.Provide(newTransactor))
	must(c.Provide(newCache))
	must(c.Provide(storagesvc.NewService))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	// repos
	must(c.Provide(boiledrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(boiledrepos.NewDashboardRepository, dig.As(new(dashboard.Repository))))
	must(c.Provide(sqlxrepos.NewOrganizationRepository, dig.As(new(organization.Repository))))
	must(c.Provide(sqlxrepos.NewStaffRepository, dig.As(
		new(staff.Repository),
		new(ledger.StaffRepository),
		new(group.StaffRepository),
		new(homework.StaffRepository),
	)))
	must(c.Provide(sqlxrepos.NewLedgerRepository, dig.As(new(ledger.Repository))))
	must(c.Provide(sqlxrepos.NewStudentRepository, dig.As(new(student.Repository), new(group.StudentRepository))))
	must(c.Provide(sqlxrepos.NewGroupRepository, dig.As(
		new(group.Repository),
		new(payment.GroupRepository),
		new(lesson.GroupRepository),
		new(homework.GroupRepository),
	)))
	must(c.Provide(sqlxrepos.NewPaymentRepository, dig.As(new(payment.Repository), new(ledger.PaymentTypeRepository))))
	must(c.Provide(sqlxrepos.NewLessonRepository, dig.As(new(lesson.Repository), new(homework.LessonRepository))))
	must(c.Provide(sqlxrepos.NewHomeworkRepository, dig.As(new(homework.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(organization.NewService))
	must(c.Provide(staff.NewService))
	must(c.Provide(ledger.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(group.NewService))
	must(c.Provide(payment.NewService))
	must(c.Provide(lesson.NewService))
	must(c.Provide(homework.NewService))
	must(c.Provide(dashboard.NewService))
	must(c.Provide(newScheduler))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
