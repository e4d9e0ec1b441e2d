package ledger_test

import (
	"bytes"
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/ledger"
	"github.com/trezcool/markaz/core/staff"
	inmemdb "github.com/trezcool/markaz/storage/database/inmem"
	testutil "github.com/trezcool/markaz/tests"
)

type ledgerTest struct {
	db        *inmemdb.DB
	svc       *ledger.Service
	staffRepo staff.Repository
	orgID     string
	member    staff.Member
}

func setUp(t *testing.T) ledgerTest {
	db := inmemdb.Open()
	orgRepo := inmemdb.NewOrganizationRepository(db)
	sRepo := inmemdb.NewStaffRepository(db)
	svc := ledger.NewService(db, inmemdb.NewLedgerRepository(db), sRepo, inmemdb.NewPaymentRepository(db))

	org := testutil.CreateOrganization(t, orgRepo, "Markaz")
	sp := testutil.CreateSpecialty(t, sRepo, org.ID, "Math")
	m := testutil.CreateStaff(t, sRepo, org.ID, sp.ID, "Teacher", staff.RoleTeacher, true)

	return ledgerTest{db: db, svc: svc, staffRepo: sRepo, orgID: org.ID, member: m}
}

func (lt ledgerTest) balance(t *testing.T) decimal.Decimal {
	m, err := lt.staffRepo.GetMember(context.Background(), lt.orgID, lt.member.ID)
	require.NoError(t, err)
	return m.Balance
}

func (lt ledgerTest) create(t *testing.T, kind ledger.Kind, amount int64) ledger.Entry {
	e, err := lt.svc.Create(context.Background(), lt.orgID, ledger.NewEntry{
		StaffID: lt.member.ID,
		Kind:    kind,
		Amount:  decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return e
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestService_Create(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	lt.create(t, ledger.KindAssignment, 1000)
	assert.Equal(t, "1000", lt.balance(t).String())

	lt.create(t, ledger.KindPayout, 300)
	assert.Equal(t, "700", lt.balance(t).String())

	lt.create(t, ledger.KindFine, 50)
	assert.Equal(t, "650", lt.balance(t).String())

	tests := []struct {
		name      string
		entry     ledger.NewEntry
		wantField string
		notFound  bool
	}{
		{
			name:      "zero amount",
			entry:     ledger.NewEntry{StaffID: lt.member.ID, Kind: ledger.KindAssignment, Amount: decimal.Zero},
			wantField: "amount",
		},
		{
			name:      "negative amount",
			entry:     ledger.NewEntry{StaffID: lt.member.ID, Kind: ledger.KindFine, Amount: decimal.NewFromInt(-5)},
			wantField: "amount",
		},
		{
			name:      "sub-cent amount",
			entry:     ledger.NewEntry{StaffID: lt.member.ID, Kind: ledger.KindAssignment, Amount: decimal.RequireFromString("0.005")},
			wantField: "amount",
		},
		{
			name:      "amount too large",
			entry:     ledger.NewEntry{StaffID: lt.member.ID, Kind: ledger.KindAssignment, Amount: core.MaxAmount},
			wantField: "amount",
		},
		{
			name:      "unknown kind",
			entry:     ledger.NewEntry{StaffID: lt.member.ID, Kind: "bonus", Amount: decimal.NewFromInt(5)},
			wantField: "kind",
		},
		{
			name:      "payment type on assignment",
			entry:     ledger.NewEntry{StaffID: lt.member.ID, Kind: ledger.KindAssignment, Amount: decimal.NewFromInt(5), PaymentTypeID: core.NewID()},
			wantField: "payment_type_id",
		},
		{
			name:      "unknown payment type",
			entry:     ledger.NewEntry{StaffID: lt.member.ID, Kind: ledger.KindPayout, Amount: decimal.NewFromInt(5), PaymentTypeID: core.NewID()},
			wantField: "payment_type_id",
		},
		{
			name:     "unknown staff",
			entry:    ledger.NewEntry{StaffID: core.NewID(), Kind: ledger.KindAssignment, Amount: decimal.NewFromInt(5)},
			notFound: true,
		},
		{
			name:     "invalid staff id",
			entry:    ledger.NewEntry{StaffID: "1", Kind: ledger.KindAssignment, Amount: decimal.NewFromInt(5)},
			notFound: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lt.svc.Create(ctx, lt.orgID, tc.entry)
			require.Error(t, err)
			if tc.notFound {
				assert.True(t, core.IsNotFound(err), "want not found, got %v", err)
			} else {
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
				require.Len(t, verr.Fields, 1)
				assert.Equal(t, tc.wantField, verr.Fields[0].Field)
			}
			assert.Equal(t, "650", lt.balance(t).String(), "a failed entry must not move the balance")
		})
	}
}

func TestService_Create_inactiveStaff(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	sp := testutil.CreateSpecialty(t, lt.staffRepo, lt.orgID, "Physics")
	gone := testutil.CreateStaff(t, lt.staffRepo, lt.orgID, sp.ID, "Gone", staff.RoleTeacher, false)

	_, err := lt.svc.Create(ctx, lt.orgID, ledger.NewEntry{StaffID: gone.ID, Kind: ledger.KindAssignment, Amount: decimal.NewFromInt(10)})
	assert.True(t, core.IsValidation(err), "want validation error, got %v", err)
}

func TestService_Update(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	assignment := lt.create(t, ledger.KindAssignment, 100)
	fine := lt.create(t, ledger.KindFine, 30)
	assert.Equal(t, "70", lt.balance(t).String())

	// 100 -> 150 only adds the difference
	e, err := lt.svc.Update(ctx, lt.orgID, assignment.ID, ledger.UpdateEntry{Amount: dec(150)})
	require.NoError(t, err)
	assert.Equal(t, "150", e.Amount.String())
	assert.Equal(t, "120", lt.balance(t).String())

	// a fine going 30 -> 10 gives 20 back
	_, err = lt.svc.Update(ctx, lt.orgID, fine.ID, ledger.UpdateEntry{Amount: dec(10)})
	require.NoError(t, err)
	assert.Equal(t, "140", lt.balance(t).String())

	desc := "  march salary "
	e, err = lt.svc.Update(ctx, lt.orgID, assignment.ID, ledger.UpdateEntry{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "march salary", e.Description)
	assert.Equal(t, "140", lt.balance(t).String())

	subCent := decimal.RequireFromString("150.005")
	_, err = lt.svc.Update(ctx, lt.orgID, assignment.ID, ledger.UpdateEntry{Amount: &subCent})
	assert.True(t, core.IsValidation(err), "want validation error, got %v", err)
	assert.Equal(t, "140", lt.balance(t).String())

	_, err = lt.svc.Update(ctx, lt.orgID, assignment.ID, ledger.UpdateEntry{Amount: dec(0)})
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, "140", lt.balance(t).String())

	_, err = lt.svc.Update(ctx, lt.orgID, core.NewID(), ledger.UpdateEntry{Amount: dec(1)})
	assert.True(t, core.IsNotFound(err))
}

func TestService_Reverse(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	lt.create(t, ledger.KindAssignment, 500)
	payout := lt.create(t, ledger.KindPayout, 200)
	assert.Equal(t, "300", lt.balance(t).String())

	e, err := lt.svc.Reverse(ctx, lt.orgID, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StateReversed, e.State)
	assert.NotNil(t, e.ReversedAt)
	assert.True(t, e.Effect().IsZero())
	assert.Equal(t, "500", lt.balance(t).String(), "reversing a payout of 200 gives 200 back")

	// reversed is terminal
	_, err = lt.svc.Reverse(ctx, lt.orgID, payout.ID)
	assert.True(t, core.IsValidation(err))
	_, err = lt.svc.Update(ctx, lt.orgID, payout.ID, ledger.UpdateEntry{Amount: dec(10)})
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, "500", lt.balance(t).String())
}

func TestService_tenantIsolation(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	e := lt.create(t, ledger.KindAssignment, 100)
	other := testutil.CreateOrganization(t, inmemdb.NewOrganizationRepository(lt.db), "Other")

	_, err := lt.svc.Get(ctx, other.ID, e.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = lt.svc.Reverse(ctx, other.ID, e.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = lt.svc.Create(ctx, other.ID, ledger.NewEntry{StaffID: lt.member.ID, Kind: ledger.KindFine, Amount: decimal.NewFromInt(1)})
	assert.True(t, core.IsNotFound(err))

	entries, err := lt.svc.Query(ctx, other.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "100", lt.balance(t).String())
}

// Any sequence of writes keeps balance == Σ active assignments − Σ active payouts − Σ active fines.
func TestService_balanceInvariant(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(42))

	var entries []ledger.Entry
	for i := 0; i < 300; i++ {
		switch op := rnd.Intn(4); {
		case op <= 1 || len(entries) == 0:
			kind := ledger.Kinds[rnd.Intn(len(ledger.Kinds))]
			entries = append(entries, lt.create(t, kind, int64(rnd.Intn(1000)+1)))
		case op == 2:
			idx := rnd.Intn(len(entries))
			e, err := lt.svc.Update(ctx, lt.orgID, entries[idx].ID, ledger.UpdateEntry{Amount: dec(int64(rnd.Intn(1000) + 1))})
			if entries[idx].IsActive() {
				require.NoError(t, err)
				entries[idx] = e
			} else {
				require.True(t, core.IsValidation(err))
			}
		default:
			idx := rnd.Intn(len(entries))
			e, err := lt.svc.Reverse(ctx, lt.orgID, entries[idx].ID)
			if entries[idx].IsActive() {
				require.NoError(t, err)
				entries[idx] = e
			} else {
				require.True(t, core.IsValidation(err))
			}
		}

		want := decimal.Zero
		for _, e := range entries {
			if !e.IsActive() {
				continue
			}
			switch e.Kind {
			case ledger.KindAssignment:
				want = want.Add(e.Amount)
			default:
				want = want.Sub(e.Amount)
			}
		}
		require.True(t, want.Equal(lt.balance(t)), "step %d: want %s, got %s", i, want, lt.balance(t))
	}

	rec, err := lt.svc.Reconcile(ctx, lt.orgID, lt.member.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestService_concurrentWrites(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := ledger.KindAssignment
			if i%2 == 1 {
				kind = ledger.KindFine
			}
			_, err := lt.svc.Create(ctx, lt.orgID, ledger.NewEntry{StaffID: lt.member.ID, Kind: kind, Amount: decimal.NewFromInt(int64(i + 1))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// assignments 1+3+...+49 minus fines 2+4+...+50
	assert.Equal(t, "-25", lt.balance(t).String())
	rec, err := lt.svc.Reconcile(ctx, lt.orgID, lt.member.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestService_ReconcileRepair(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	lt.create(t, ledger.KindAssignment, 400)
	lt.create(t, ledger.KindPayout, 100)

	// drift the stored balance behind the ledger's back
	_, err := lt.staffRepo.AdjustBalance(ctx, lt.orgID, lt.member.ID, decimal.NewFromInt(25))
	require.NoError(t, err)

	recs, err := lt.svc.ReconcileOrganization(ctx, lt.orgID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Consistent)
	assert.Equal(t, "325", recs[0].Stored.String())
	assert.Equal(t, "300", recs[0].Computed.String())

	rec, err := lt.svc.Repair(ctx, lt.orgID, lt.member.ID)
	require.NoError(t, err)
	assert.True(t, rec.Repaired)
	assert.Equal(t, "300", lt.balance(t).String())

	rec, err = lt.svc.Repair(ctx, lt.orgID, lt.member.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.False(t, rec.Repaired)
}

func TestService_ExportStatement(t *testing.T) {
	lt := setUp(t)
	ctx := context.Background()

	lt.create(t, ledger.KindAssignment, 400)
	lt.create(t, ledger.KindFine, 40)

	var buf bytes.Buffer
	require.NoError(t, lt.svc.ExportStatement(ctx, lt.orgID, lt.member.ID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Statement")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Staff member", "Teacher"}, rows[0])
	assert.Equal(t, "Date", rows[3][0])
	assert.ElementsMatch(t, []string{"assignment", "fine"}, []string{rows[4][1], rows[5][1]})

	err = lt.svc.ExportStatement(ctx, lt.orgID, core.NewID(), &buf)
	assert.True(t, core.IsNotFound(err))
}
