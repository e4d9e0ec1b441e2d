package sqlxrepos

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/organization"
	"github.com/trezcool/markaz/core/staff"
	"github.com/trezcool/markaz/core/student"
	"github.com/trezcool/markaz/storage/database"
)

// openTestDB connects to the database at MARKAZ_TEST_DATABASE_URL, resets its schema and migrates it.
func openTestDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("MARKAZ_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MARKAZ_TEST_DATABASE_URL is not set")
	}
	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db.DB, "reset"))
	require.NoError(t, database.Migrate(db.DB, "up"))
	return db
}

type fixtures struct {
	org    organization.Organization
	member staff.Member
}

func setUpFixtures(t *testing.T, db *sqlx.DB) fixtures {
	ctx := context.Background()
	now := core.Now()

	org, err := NewOrganizationRepository(db).CreateOrganization(ctx, organization.Organization{
		ID: core.NewID(), Name: "Markaz", Phone: "+998901234567", IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	staffRepo := NewStaffRepository(db)
	sp, err := staffRepo.CreateSpecialty(ctx, staff.Specialty{
		ID: core.NewID(), OrganizationID: org.ID, Name: "Math", IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	m, err := staffRepo.CreateMember(ctx, staff.Member{
		ID: core.NewID(), OrganizationID: org.ID, Name: "Ali", PhoneNumber: "+998901111111", Role: staff.RoleTeacher,
		SpecialtyID: sp.ID, SalaryScheme: staff.SalaryMonthly, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return fixtures{org: org, member: m}
}

func TestStaffRepository_AdjustBalance_concurrent(t *testing.T) {
	db := openTestDB(t)
	fx := setUpFixtures(t, db)
	repo := NewStaffRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AdjustBalance(ctx, fx.org.ID, fx.member.ID, decimal.RequireFromString("10.50"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	m, err := repo.GetMember(ctx, fx.org.ID, fx.member.ID)
	require.NoError(t, err)
	assert.Equal(t, "210", m.Balance.String())

	_, err = repo.AdjustBalance(ctx, core.NewID(), fx.member.ID, decimal.NewFromInt(1))
	assert.True(t, core.IsNotFound(err), "other organization")
}

func TestLedger_postgres(t *testing.T) {
	db := openTestDB(t)
	fx := setUpFixtures(t, db)
	ctx := context.Background()

	staffRepo := NewStaffRepository(db)
	svc := ledger.NewService(NewTransactor(db), NewLedgerRepository(db), staffRepo, NewPaymentRepository(db))

	e, err := svc.Create(ctx, fx.org.ID, ledger.NewEntry{StaffID: fx.member.ID, Kind: ledger.KindAssignment, Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, fx.org.ID, ledger.NewEntry{StaffID: fx.member.ID, Kind: ledger.KindPayout, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, fx.org.ID, e.ID)
	require.NoError(t, err)

	m, err := staffRepo.GetMember(ctx, fx.org.ID, fx.member.ID)
	require.NoError(t, err)
	assert.Equal(t, "-200", m.Balance.String())

	rec, err := svc.Reconcile(ctx, fx.org.ID, fx.member.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)

	entries, err := svc.Query(ctx, fx.org.ID, &ledger.QueryFilter{StaffID: fx.member.ID, State: ledger.StateReversed})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ReversedAt)
}

func TestTransactor_rollback(t *testing.T) {
	db := openTestDB(t)
	fx := setUpFixtures(t, db)
	ctx := context.Background()
	repo := NewStaffRepository(db)
	errBoom := errors.New("boom")

	err := NewTransactor(db).WithinTx(ctx, func(exec core.DBExecutor) error {
		if _, err := repo.AdjustBalance(ctx, fx.org.ID, fx.member.ID, decimal.NewFromInt(100), exec); err != nil {
			return err
		}
		return errBoom
	})
	assert.Equal(t, errBoom, err)

	m, err := repo.GetMember(ctx, fx.org.ID, fx.member.ID)
	require.NoError(t, err)
	assert.True(t, m.Balance.IsZero())
}

func TestGroupRepository_constraints(t *testing.T) {
	db := openTestDB(t)
	fx := setUpFixtures(t, db)
	ctx := context.Background()
	now := core.Now()

	repo := NewGroupRepository(db)
	g, err := repo.CreateGroup(ctx, group.Group{
		ID: core.NewID(), OrganizationID: fx.org.ID, Name: "Math 1", TeacherID: fx.member.ID,
		StartDate: core.Date(now), EndDate: core.Date(now.Add(30 * 24 * time.Hour)), IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	s, err := NewStudentRepository(db).CreateStudent(ctx, fx.org.ID, student.Student{
		ID: core.NewID(), FirstName: "Vali", LastName: "Valiyev", PhoneNumber: "+998902222222",
		DateOfBirth: time.Date(2010, 1, 2, 0, 0, 0, 0, time.UTC), IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	membership := group.Membership{OrganizationID: fx.org.ID, GroupID: g.ID, StudentID: s.ID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	membership.ID = core.NewID()
	_, err = repo.CreateMembership(ctx, membership)
	require.NoError(t, err)
	membership.ID = core.NewID()
	_, err = repo.CreateMembership(ctx, membership)
	assert.Equal(t, group.ErrAlreadyMember, err)

	slot := group.ScheduleSlot{
		ID: core.NewID(), OrganizationID: fx.org.ID, GroupID: g.ID, DayOfWeek: "monday",
		StartTime: "09:00", EndTime: "10:30", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	_, err = repo.CreateScheduleSlot(ctx, slot)
	require.NoError(t, err)
	slot.ID = core.NewID()
	_, err = repo.CreateScheduleSlot(ctx, slot)
	assert.Equal(t, group.ErrDayTaken, err)

	slots, err := repo.QueryScheduleSlots(ctx, fx.org.ID, g.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "10:30", slots[0].EndTime)

	students, err := NewStudentRepository(db).QueryStudents(ctx, fx.org.ID, &student.QueryFilter{GroupID: g.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestStudentRepository_enrollment(t *testing.T) {
	db := openTestDB(t)
	fx := setUpFixtures(t, db)
	ctx := context.Background()
	now := core.Now()

	other, err := NewOrganizationRepository(db).CreateOrganization(ctx, organization.Organization{
		ID: core.NewID(), Name: "Other", Phone: "+998907777777", IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	repo := NewStudentRepository(db)
	svc := student.NewService(repo)
	s, err := repo.CreateStudent(ctx, fx.org.ID, student.Student{
		ID: core.NewID(), FirstName: "Vali", LastName: "Valiyev", PhoneNumber: "+998902222222",
		DateOfBirth: time.Date(2010, 1, 2, 0, 0, 0, 0, time.UTC), IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, other.ID, s.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, other.ID, s.ID)
	assert.Equal(t, student.ErrAlreadyEnrolled, errors.Cause(err))
	_, err = svc.Enroll(ctx, other.ID, core.NewID())
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, svc.Deactivate(ctx, fx.org.ID, s.ID))
	inOther, err := svc.Get(ctx, other.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, inOther.IsActive)
	inOwn, err := svc.Get(ctx, fx.org.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, inOwn.IsActive)

	g, err := NewGroupRepository(db).CreateGroup(ctx, group.Group{
		ID: core.NewID(), OrganizationID: fx.org.ID, Name: "Math 1", TeacherID: fx.member.ID,
		StartDate: core.Date(now), EndDate: core.Date(now), IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = NewGroupRepository(db).CreateMembership(ctx, group.Membership{
		ID: core.NewID(), OrganizationID: fx.org.ID, GroupID: g.ID, StudentID: s.ID, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	assert.Equal(t, student.ErrStillMember, errors.Cause(svc.Unenroll(ctx, fx.org.ID, s.ID)))
	require.NoError(t, svc.Unenroll(ctx, other.ID, s.ID))
	_, err = svc.Get(ctx, other.ID, s.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(svc.Unenroll(ctx, other.ID, s.ID)))
}

func TestLedger_postgres_subCent(t *testing.T) {
	db := openTestDB(t)
	fx := setUpFixtures(t, db)
	ctx := context.Background()

	staffRepo := NewStaffRepository(db)
	svc := ledger.NewService(NewTransactor(db), NewLedgerRepository(db), staffRepo, NewPaymentRepository(db))

	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, fx.org.ID, ledger.NewEntry{StaffID: fx.member.ID, Kind: ledger.KindAssignment, Amount: decimal.RequireFromString("0.005")})
		assert.True(t, core.IsValidation(err), "attempt %d", i)
	}

	m, err := staffRepo.GetMember(ctx, fx.org.ID, fx.member.ID)
	require.NoError(t, err)
	assert.True(t, m.Balance.IsZero())
	rec, err := svc.Reconcile(ctx, fx.org.ID, fx.member.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestTrapErr(t *testing.T) {
	notFound := core.NewNotFoundError("thing")
	assert.Nil(t, trapErr(nil, notFound, "msg"))
	assert.Equal(t, notFound, trapErr(errors.Wrap(sql.ErrNoRows, "x"), notFound, "msg"))
	assert.EqualError(t, trapErr(errors.New("boom"), notFound, "doing thing"), "doing thing: boom")

	pqErr := &pq.Error{Code: "23505", Constraint: "membership_active_uniq", Message: "duplicate key"}
	assert.Equal(t, group.ErrAlreadyMember, trapErr(pqErr, notFound, "msg", group.ErrAlreadyMember))

	err := trapErr(&pq.Error{Code: "23503", Constraint: "staff_specialty_id_fkey", Message: "fk"}, notFound, "msg")
	var cerr *core.ConstraintError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "staff_specialty_id_fkey", cerr.Constraint)
}
