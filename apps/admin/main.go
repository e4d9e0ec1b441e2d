package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/organization"
	"github.com/trezcool/markaz/core/user"
	"github.com/trezcool/markaz/storage/database"
	boiledrepos "github.com/trezcool/markaz/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/markaz/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.OpenX(conf)
	errAndDie(err)

	// start CLI
	staffRepo := sqlxrepos.NewStaffRepository(db)
	cli := commandLine{
		db:       db.DB,
		validate: newValidator(),
		orgSvc:   organization.NewService(sqlxrepos.NewOrganizationRepository(db)),
		usrRepo:  boiledrepos.NewUserRepository(db),
		ledgerSvc: ledger.NewService(
			sqlxrepos.NewTransactor(db),
			sqlxrepos.NewLedgerRepository(db),
			staffRepo,
			sqlxrepos.NewPaymentRepository(db),
		),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()
	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
