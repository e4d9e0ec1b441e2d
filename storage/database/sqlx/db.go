// Package sqlxrepos implements the domain repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
)

type baseRepository struct {
	db *sqlx.DB
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if exec := core.GetExec(svcExec); exec != nil {
		return exec
	}
	return repo.db
}

// selectAll scans all the rows of the query into dest, a pointer to a slice of structs with `db` tags.
func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return sqlx.StructScan(rows, dest)
}

// selectOne returns the first row of the query, or sql.ErrNoRows.
func selectOne[T any](ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (T, error) {
	var rows []T
	if err := selectAll(ctx, exec, &rows, query, args...); err != nil {
		var zero T
		return zero, err
	}
	if len(rows) == 0 {
		var zero T
		return zero, sql.ErrNoRows
	}
	return rows[0], nil
}

// execOne runs a write that must affect exactly one row; otherwise notFound is returned.
func execOne(ctx context.Context, exec core.DBExecutor, notFound error, query string, args ...interface{}) error {
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// trapErr maps "no rows" to notFound and integrity violations to constraint errors.
// A violation of a constraint named by one of `known` returns that error.
func trapErr(err error, notFound error, msg string, known ...*core.ConstraintError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if core.IsNotFound(err) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation", "foreign_key_violation", "check_violation":
			for _, k := range known {
				if k.Constraint == pqErr.Constraint {
					return k
				}
			}
			return core.NewConstraintError(pqErr.Constraint, pqErr.Message)
		}
	}
	return errors.Wrap(err, msg)
}

// filter accumulates `?` placeholder conditions, rebound to `$n` by build.
type filter struct {
	conds []string
	args  []interface{}
}

func (f *filter) where(cond string, args ...interface{}) {
	f.conds = append(f.conds, cond)
	f.args = append(f.args, args...)
}

func (f *filter) search(value string, columns ...string) {
	if value == "" {
		return
	}
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, col+" ILIKE ?")
		args = append(args, "%"+value+"%")
	}
	f.where("("+strings.Join(parts, " OR ")+")", args...)
}

func (f *filter) build(base, suffix string) (string, []interface{}) {
	q := base
	if len(f.conds) > 0 {
		q += " WHERE " + strings.Join(f.conds, " AND ")
	}
	if suffix != "" {
		q += " " + suffix
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), f.args
}

// orderBy renders an ORDER BY clause from the allowed orderings, falling back to byDefault.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, byDefault string) string {
	ords := core.AllowedOrderings(ordering, allowed)
	if len(ords) == 0 {
		return "ORDER BY " + byDefault
	}
	parts := make([]string, 0, len(ords)+1)
	for _, ord := range ords {
		parts = append(parts, ord.String())
	}
	parts = append(parts, "id") // stable
	return "ORDER BY " + strings.Join(parts, ", ")
}

type transactor struct {
	db *sqlx.DB
}

var _ core.Transactor = (*transactor)(nil) // interface compliance check

func NewTransactor(db *sqlx.DB) *transactor {
	return &transactor{db: db}
}

// WithinTx runs fn in a read-committed transaction; it is rolled back when fn fails.
func (t *transactor) WithinTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
