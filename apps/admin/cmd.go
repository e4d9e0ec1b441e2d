package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/organization"
	"github.com/trezcool/markaz/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB
	out       io.Writer
	validate  *validator.Validate
	orgSvc    *organization.Service
	usrRepo   user.Repository
	ledgerSvc *ledger.Service
}

func (cli *commandLine) stdout() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)")
	fmt.Println("  addorg -name NAME -phone PHONE [-address ADDRESS] - create an organization")
	fmt.Println("  adduser -org ORG_ID -username USERNAME -email EMAIL [-name NAME] [-role ROLE] - create or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  reconcile -org ORG_ID [-fix] - compare staff balances with their ledger entries")
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addOrgCmd := flag.NewFlagSet("addorg", flag.ContinueOnError)
	addOrgName := addOrgCmd.String("name", "", "The organization's name.")
	addOrgPhone := addOrgCmd.String("phone", "", "The organization's phone number.")
	addOrgAddress := addOrgCmd.String("address", "", "The organization's address.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserOrg := addUserCmd.String("org", "", "The organization the user belongs to.")
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name. Defaults to the username.")
	addUserRole := addUserCmd.String("role", user.RoleAdminOwner, "The user's role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	reconcileCmd := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	reconcileOrg := reconcileCmd.String("org", "", "The organization to reconcile.")
	reconcileFix := reconcileCmd.Bool("fix", false, "Repair inconsistent balances.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addorg":
		if err := addOrgCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addOrgName == "" || *addOrgPhone == "" {
			addOrgCmd.Usage()
			return errHelp
		}
		return cli.addOrganization(*addOrgName, *addOrgPhone, *addOrgAddress)
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserOrg == "" || *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserOrg, *addUserName, *addUserUname, *addUserEmail, pwd, *addUserRole)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "reconcile":
		if err := reconcileCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reconcileOrg == "" {
			reconcileCmd.Usage()
			return errHelp
		}
		return cli.reconcile(*reconcileOrg, *reconcileFix)
	default:
		cli.printUsage()
		return errHelp
	}
}
