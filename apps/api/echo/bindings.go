package echoapi

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/markaz/core"
)

var orderingParam = "ordering"

// Fields each listing may be ordered by, prefixed with "-" for descending order.
var (
	groupOrderings   = []string{"name", "start_date", "end_date", "created_at"}
	staffOrderings   = []string{"name", "experience", "balance", "created_at"}
	studentOrderings = []string{"first_name", "last_name", "date_of_birth", "created_at"}
	userOrderings    = []string{"name", "username", "email", "created_at", "last_login"}
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses `?ordering=name,-created_at`. A field outside `allowed` is a validation error;
// repeated fields keep their first direction.
func (ord *Ordering) Bind(ctx echo.Context, allowed []string) error {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	seen := make(map[string]bool, len(allowed))
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" || seen[field] {
			continue
		}
		if !isAllowedOrdering(field, allowed) {
			return core.NewFieldError(orderingParam, fmt.Sprintf("cannot order by %q; allowed: %s", field, strings.Join(allowed, ", ")))
		}
		seen[field] = true
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return nil
}

func isAllowedOrdering(field string, allowed []string) bool {
	for _, f := range allowed {
		if f == field {
			return true
		}
	}
	return false
}
