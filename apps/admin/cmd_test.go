package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/organization"
	"github.com/trezcool/markaz/core/staff"
	"github.com/trezcool/markaz/core/user"
	inmemdb "github.com/trezcool/markaz/storage/database/inmem"
	testutil "github.com/trezcool/markaz/tests"
)

type cliEnv struct {
	cli       *commandLine
	out       *bytes.Buffer
	orgRepo   organization.Repository
	usrRepo   user.Repository
	staffRepo staff.Repository
}

func setup(t *testing.T) cliEnv {
	db := inmemdb.Open()
	env := cliEnv{
		out:       new(bytes.Buffer),
		orgRepo:   inmemdb.NewOrganizationRepository(db),
		usrRepo:   inmemdb.NewUserRepository(db),
		staffRepo: inmemdb.NewStaffRepository(db),
	}
	env.cli = &commandLine{
		out:       env.out,
		validate:  newValidator(),
		orgSvc:    organization.NewService(env.orgRepo),
		usrRepo:   env.usrRepo,
		ledgerSvc: ledger.NewService(db, inmemdb.NewLedgerRepository(db), env.staffRepo, inmemdb.NewPaymentRepository(db)),
	}
	return env
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	env := setup(t)
	runCLITests(t, env.cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate without command", args: []string{"migrate"}, wantErr: errHelp},
		{name: "addorg without args", args: []string{"addorg"}, wantErr: errHelp},
		{name: "adduser without args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "resetpassword without args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "reconcile without args", args: []string{"reconcile"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	env := setup(t)

	var gotCmd string
	var gotArgs []string
	orig := migrateFunc
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		gotCmd, gotArgs = command, args
		return nil
	}
	t.Cleanup(func() { migrateFunc = orig })

	tests := []struct {
		name     string
		args     []string
		wantCmd  string
		wantArgs []string
	}{
		{name: "up", args: []string{"migrate", "up"}, wantCmd: "up", wantArgs: []string{}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}, wantCmd: "up-to", wantArgs: []string{"2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}, wantCmd: "down-to", wantArgs: []string{"1"}},
		{name: "status", args: []string{"migrate", "status"}, wantCmd: "status", wantArgs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, env.cli.run(append([]string{"admin"}, tt.args...)))
			assert.Equal(t, tt.wantCmd, gotCmd)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

func Test_commandLine_addOrganization(t *testing.T) {
	env := setup(t)

	require.NoError(t, env.cli.run([]string{"admin", "addorg", "-name", " Markaz ", "-phone", "+998901234567"}))
	orgs, err := env.orgRepo.QueryOrganizations(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Markaz", orgs[0].Name)
	assert.True(t, orgs[0].IsActive)
	assert.Contains(t, env.out.String(), orgs[0].ID)

	assert.Error(t, env.cli.run([]string{"admin", "addorg", "-name", "  ", "-phone", "+998901234567"}))
}

func Test_commandLine_addUser(t *testing.T) {
	env := setup(t)
	org := testutil.CreateOrganization(t, env.orgRepo, "Markaz")

	runCLITests(t, env.cli, []cliTest{
		{name: "no password", args: []string{"adduser", "-org", org.ID, "-username", "boss", "-email", "boss@test.test"}, wantErr: errHelp},
		{name: "unknown organization", args: []string{"adduser", "-org", "lol", "-username", "boss", "-email", "boss@test.test"}, pwd: "Pwd123!!", wantErr: organization.ErrNotFound},
		{name: "create", args: []string{"adduser", "-org", org.ID, "-username", "Boss", "-email", "BOSS@test.test"}, pwd: "Pwd123!!"},
	})

	usr, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{Username: "boss"})
	require.NoError(t, err)
	assert.Equal(t, org.ID, usr.OrganizationID)
	assert.Equal(t, "boss@test.test", usr.Email)
	assert.Equal(t, []string{user.RoleAdminOwner}, usr.Roles)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("Pwd123!!"))

	// running it again updates the same user
	mockPassword(t, "N3w!Pwd")
	require.NoError(t, env.cli.run([]string{"admin", "adduser", "-org", org.ID, "-username", "boss", "-email", "boss@test.test", "-role", user.RoleAdminManager}))
	updated, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleAdminManager}, updated.Roles)
	assert.NoError(t, updated.CheckPassword("N3w!Pwd"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "", "User", "awe", "awe@test.cd", "mdr", nil, true)

	runCLITests(t, env.cli, []cliTest{
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "lmao"},
	})

	refreshed, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash))
	assert.NoError(t, refreshed.CheckPassword("lmao"))
}

func Test_commandLine_reconcile(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	org := testutil.CreateOrganization(t, env.orgRepo, "Markaz")
	sp := testutil.CreateSpecialty(t, env.staffRepo, org.ID, "Math")
	member := testutil.CreateStaff(t, env.staffRepo, org.ID, sp.ID, "Teacher", staff.RoleTeacher, true)

	_, err := env.staffRepo.AdjustBalance(ctx, org.ID, member.ID, decimal.NewFromInt(42))
	require.NoError(t, err)

	require.NoError(t, env.cli.run([]string{"admin", "reconcile", "-org", org.ID}))
	assert.Contains(t, env.out.String(), "inconsistent")
	m, err := env.staffRepo.GetMember(ctx, org.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(42).Equal(m.Balance))

	env.out.Reset()
	require.NoError(t, env.cli.run([]string{"admin", "reconcile", "-org", org.ID, "-fix"}))
	assert.Contains(t, env.out.String(), "repaired")
	m, err = env.staffRepo.GetMember(ctx, org.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, m.Balance.IsZero())

	assert.Equal(t, organization.ErrNotFound, env.cli.run([]string{"admin", "reconcile", "-org", "lol"}))
}
