package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core"
)

var (
	orderingParam = "ordering"
	searchParam   = "search"
)

// listParams holds the query string of a list call: ordering & search, every other
// parameter being an exact-match filter on a record field.
type listParams struct {
	Orderings []core.DBOrdering
	Search    string
	Filter    map[string]string
}

func (lp *listParams) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	lp.Filter = make(map[string]string, len(data))
	for key, vals := range data {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		switch key {
		case orderingParam:
			lp.Orderings = core.ParseOrdering(vals[0])
		case searchParam:
			lp.Search = vals[0]
		default:
			lp.Filter[key] = vals[0]
		}
	}
}
