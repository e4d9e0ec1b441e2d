// Package inmemdb keeps every table in memory. It backs tests and local runs without Postgres.
package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/markaz/core"
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
	DB struct {
		sync.RWMutex
		txMu sync.Mutex
		t    tables
	}

	tables struct {
		organization map[string]organization.Organization
		user         map[string]user.User
		specialty    map[string]staff.Specialty
		staff        map[string]staff.Member
		ledgerEntry  map[string]ledger.Entry
		student      map[string]student.Student
		enrollment   map[string]map[string]bool // student ID -> organization IDs
		group        map[string]group.Group
		membership   map[string]group.Membership
		scheduleSlot map[string]group.ScheduleSlot
		paymentType  map[string]payment.Type
		payment      map[string]payment.Payment
		lesson       map[string]lesson.Lesson
		attendance   map[string]lesson.Attendance
		homework     map[string]homework.Homework
		submission   map[string]homework.Submission
	}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{t: newTables()}
}

func newTables() tables {
	return tables{
		organization: make(map[string]organization.Organization),
		user:         make(map[string]user.User),
		specialty:    make(map[string]staff.Specialty),
		staff:        make(map[string]staff.Member),
		ledgerEntry:  make(map[string]ledger.Entry),
		student:      make(map[string]student.Student),
		enrollment:   make(map[string]map[string]bool),
		group:        make(map[string]group.Group),
		membership:   make(map[string]group.Membership),
		scheduleSlot: make(map[string]group.ScheduleSlot),
		paymentType:  make(map[string]payment.Type),
		payment:      make(map[string]payment.Payment),
		lesson:       make(map[string]lesson.Lesson),
		attendance:   make(map[string]lesson.Attendance),
		homework:     make(map[string]homework.Homework),
		submission:   make(map[string]homework.Submission),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (t tables) clone() tables {
	enrollment := make(map[string]map[string]bool, len(t.enrollment))
	for k, v := range t.enrollment {
		enrollment[k] = copyMap(v)
	}
	return tables{
		organization: copyMap(t.organization),
		user:         copyMap(t.user),
		specialty:    copyMap(t.specialty),
		staff:        copyMap(t.staff),
		ledgerEntry:  copyMap(t.ledgerEntry),
		student:      copyMap(t.student),
		enrollment:   enrollment,
		group:        copyMap(t.group),
		membership:   copyMap(t.membership),
		scheduleSlot: copyMap(t.scheduleSlot),
		paymentType:  copyMap(t.paymentType),
		payment:      copyMap(t.payment),
		lesson:       copyMap(t.lesson),
		attendance:   copyMap(t.attendance),
		homework:     copyMap(t.homework),
		submission:   copyMap(t.submission),
	}
}

// txExec is handed to the function run by WithinTx. Repositories take it as the executor of calls
// made inside the transaction.
type txExec struct {
	core.DBExecutor
}

func inTx(exec []core.DBExecutor) bool {
	_, ok := core.GetExec(exec).(txExec)
	return ok
}

// lock takes the write lock and returns its release.
// Writes made outside a transaction wait for the running one, so a rollback never discards them.
func (db *DB) lock(exec []core.DBExecutor) func() {
	if inTx(exec) {
		db.Lock()
		return db.Unlock
	}
	db.txMu.Lock()
	db.Lock()
	return func() {
		db.Unlock()
		db.txMu.Unlock()
	}
}

// WithinTx runs transactions one at a time. The tables are restored when fn fails.
// Repository writes inside fn must be given its executor. Reads are not isolated.
func (db *DB) WithinTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	db.RLock()
	snapshot := db.t.clone()
	db.RUnlock()

	if err := fn(txExec{}); err != nil {
		db.Lock()
		db.t = snapshot
		db.Unlock()
		return err
	}
	return nil
}

// Flush empties every table.
func (db *DB) Flush() {
	db.Lock()
	defer db.Unlock()
	db.t = newTables()
}

// values returns the values of m matching keep.
func values[V any](m map[string]V, keep func(V) bool) []V {
	res := make([]V, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			res = append(res, v)
		}
	}
	return res
}

type comparer[T any] func(a, b T) int

func compareStrings(a, b string) int { return strings.Compare(a, b) }

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// order sorts items by ordering, using the comparers of the known columns.
// Unknown columns are ignored; items fall back to `byDefault`.
func order[T any](items []T, ordering []core.DBOrdering, columns map[string]comparer[T], byDefault comparer[T]) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := columns[ord.Field]
			if !ok {
				continue
			}
			c := cmp(items[i], items[j])
			if !ord.Ascending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return byDefault(items[i], items[j]) < 0
	})
}

// contains reports whether any of the fields contains search, ignoring case.
func contains(search string, fields ...string) bool {
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// inPeriod reports whether t is within [from, to]. Zero bounds are open.
func inPeriod(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
