// Package boiledrepos implements repositories on PostgreSQL with sqlboiler query mods and raw queries.
package boiledrepos

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/markaz/core"
)

var dialect = drivers.Dialect{
	LQ:                   '"',
	RQ:                   '"',
	UseIndexPlaceholders: true,
}

// newQuery builds a postgres query from mods.
func newQuery(mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	qm.Apply(q, mods...)
	return q
}

func getExec(svcExec []core.DBExecutor, def core.DBExecutor) core.DBExecutor {
	if exec := core.GetExec(svcExec); exec != nil {
		return exec
	}
	return def
}

// trapErr maps psql "no rows" to notFound and unique violations to a ConstraintError.
func trapErr(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return core.NewConstraintError(pqErr.Constraint, pqErr.Message)
	}
	return errors.Wrap(err, msg)
}
