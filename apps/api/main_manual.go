package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

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
	schedulersvc "github.com/trezcool/markaz/services/scheduler"
	storagesvc "github.com/trezcool/markaz/services/storage"
	"github.com/trezcool/markaz/storage/database"
	boiledrepos "github.com/trezcool/markaz/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/markaz/storage/database/sqlx"
)

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	logger := newLogger("API : ", conf)
	dbLogger := newLogger("DB : ", conf)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up cache (optional)
	var cache dashboard.Cache
	rdb, err := cachesvc.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", err)
	} else if rdb != nil {
		cache = cachesvc.NewRedisCache(rdb, conf)
		defer func() { _ = rdb.Close() }()
	}

	files, err := storagesvc.NewService(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// set up repos
	tx := sqlxrepos.NewTransactor(db)
	orgRepo := sqlxrepos.NewOrganizationRepository(db)
	staffRepo := sqlxrepos.NewStaffRepository(db)
	studentRepo := sqlxrepos.NewStudentRepository(db)
	groupRepo := sqlxrepos.NewGroupRepository(db)
	paymentRepo := sqlxrepos.NewPaymentRepository(db)
	lessonRepo := sqlxrepos.NewLessonRepository(db)

	// set up services
	orgSvc := organization.NewService(orgRepo)
	ledgerSvc := ledger.NewService(tx, sqlxrepos.NewLedgerRepository(db), staffRepo, paymentRepo)

	// =========================================================================
	// Initialize App

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	sched, err := schedulersvc.New(conf, orgSvc, ledgerSvc, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up scheduler: %v", err), err)
	}

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Files:        files,
		UserSvc:      user.NewService(boiledrepos.NewUserRepository(db), emailsvc.NewService(conf, logger), conf),
		OrgSvc:       orgSvc,
		StaffSvc:     staff.NewService(staffRepo),
		LedgerSvc:    ledgerSvc,
		StudentSvc:   student.NewService(studentRepo),
		GroupSvc:     group.NewService(groupRepo, staffRepo, studentRepo),
		PaymentSvc:   payment.NewService(conf, paymentRepo, groupRepo),
		LessonSvc:    lesson.NewService(lessonRepo, groupRepo),
		HomeworkSvc:  homework.NewService(tx, sqlxrepos.NewHomeworkRepository(db), lessonRepo, groupRepo, staffRepo),
		DashboardSvc: dashboard.NewService(conf, boiledrepos.NewDashboardRepository(db), cache, logger),
	})

	run(conf, logger, server, sched)
}

// setUpDB creates the database when missing, opens it and applies pending migrations.
func setUpDB(conf *core.Config) (*sqlx.DB, error) {
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
