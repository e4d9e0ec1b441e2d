package main

import (
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	dig_container "github.com/trezcool/markaz/apps/api/di/dig"
	echoapi "github.com/trezcool/markaz/apps/api/echo"
	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/user"
	schedulersvc "github.com/trezcool/markaz/services/scheduler"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *sqlx.DB,
		validate *validator.Validate,
		translator ut.Translator,
		server *echoapi.Server,
		sched *schedulersvc.Scheduler,
	) {
		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)

		core.ParseEmailTemplates(conf, apiLogger)

		user.LoadCommonPasswords(apiLogger)

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()

		run(conf, apiLogger, server, sched)
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
