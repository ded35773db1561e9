package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Domenick1991/flightsearch/internal/query"
	"github.com/jackc/pgx/v5"
)

var tableColumns = map[string][]string{
	"flight":   {"id", "route_id", "airplane_id", "departure_time", "reserved_seats", "available_seats", "seat_price"},
	"route":    {"id", "origin_id", "destination_id"},
	"airport":  {"iata_id", "name", "city", "country"},
	"airplane": {"id", "model", "capacity"},
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// sqlWriter accumulates SQL text and its positional arguments.
type sqlWriter struct {
	b    strings.Builder
	args []any
}

func (w *sqlWriter) write(s string) {
	w.b.WriteString(s)
}

func (w *sqlWriter) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *sqlWriter) String() string {
	return w.b.String()
}

func ident(f query.Field) string {
	return pgx.Identifier{f.Entity, f.Column}.Sanitize()
}

func (w *sqlWriter) expr(e query.Expr) error {
	switch x := e.(type) {
	case nil:
		w.write("TRUE")
	case query.Contains:
		w.write(ident(x.Field) + " LIKE " + w.arg("%"+likeEscaper.Replace(x.Substr)+"%") + ` ESCAPE '\'`)
	case query.AtLeast:
		w.write(ident(x.Field) + " >= " + w.arg(x.Min))
	case query.Within:
		col := ident(x.Field)
		w.write("(" + col + " >= " + w.arg(x.From) + " AND " + col + " < " + w.arg(x.To) + ")")
	case query.Equals:
		w.write(ident(x.Field) + " = " + w.arg(x.Value))
	case query.All:
		return w.group([]query.Expr(x), " AND ", "TRUE")
	case query.Any:
		return w.group([]query.Expr(x), " OR ", "FALSE")
	default:
		return fmt.Errorf("unsupported expression %T", e)
	}
	return nil
}

func (w *sqlWriter) group(items []query.Expr, sep, empty string) error {
	if len(items) == 0 {
		w.write(empty)
		return nil
	}
	if len(items) == 1 {
		return w.expr(items[0])
	}
	w.write("(")
	for i, item := range items {
		if i > 0 {
			w.write(sep)
		}
		if err := w.expr(item); err != nil {
			return err
		}
	}
	w.write(")")
	return nil
}

func selectColumns(g query.Graph) ([]string, error) {
	var cols []string
	add := func(alias, table string) error {
		names, ok := tableColumns[table]
		if !ok {
			return fmt.Errorf("unknown table %q", table)
		}
		for _, n := range names {
			cols = append(cols, ident(query.Field{Entity: alias, Column: n}))
		}
		return nil
	}
	if err := add(g.Root, g.Table); err != nil {
		return nil, err
	}
	for _, j := range g.Joins {
		if err := add(j.Alias, j.Table); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

func (w *sqlWriter) from(g query.Graph) {
	w.write(" FROM " + pgx.Identifier{g.Table}.Sanitize() + " AS " + pgx.Identifier{g.Root}.Sanitize())
	for _, j := range g.Joins {
		w.write(" JOIN " + pgx.Identifier{j.Table}.Sanitize() + " AS " + pgx.Identifier{j.Alias}.Sanitize() +
			" ON " + ident(query.Field{Entity: j.Alias, Column: j.Column}) + " = " + ident(j.Parent))
	}
}

// buildSelect renders the row query of sel. Sorting adds the ascending root
// id as a tie-breaker so pages are stable.
func buildSelect(sel query.Select) (string, []any, error) {
	if err := sel.Graph.Validate(sel.Where); err != nil {
		return "", nil, err
	}
	cols, err := selectColumns(sel.Graph)
	if err != nil {
		return "", nil, err
	}
	w := &sqlWriter{}
	w.write("SELECT " + strings.Join(cols, ", "))
	w.from(sel.Graph)
	w.write(" WHERE ")
	if err := w.expr(sel.Where); err != nil {
		return "", nil, err
	}
	if sel.Sort != nil {
		dir := " ASC"
		if sel.Sort.Desc {
			dir = " DESC"
		}
		w.write(" ORDER BY " + ident(sel.Sort.Field) + dir + ", " + ident(query.Field{Entity: sel.Graph.Root, Column: "id"}) + " ASC")
	}
	if sel.Page != nil {
		w.write(" OFFSET " + w.arg(sel.Page.Offset) + " LIMIT " + w.arg(sel.Page.Limit))
	}
	return w.String(), w.args, nil
}

func buildCount(sel query.Select) (string, []any, error) {
	if err := sel.Graph.Validate(sel.Where); err != nil {
		return "", nil, err
	}
	w := &sqlWriter{}
	w.write("SELECT count(*)")
	w.from(sel.Graph)
	w.write(" WHERE ")
	if err := w.expr(sel.Where); err != nil {
		return "", nil, err
	}
	return w.String(), w.args, nil
}
