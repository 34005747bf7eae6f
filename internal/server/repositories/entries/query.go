package entries

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/kvstore/internal/server/models"
)

// Dialect selects placeholder syntax and column expressions for one backend.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
	Spanner
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	case Spanner:
		return "spanner"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// SupportsReadOnlyTx reports whether the driver honours sql.TxOptions.ReadOnly.
func (d Dialect) SupportsReadOnlyTx() bool {
	return d == Postgres
}

// dataColumn renders the stored document as JSON text aliased to "data".
func (d Dialect) dataColumn() string {
	switch d {
	case Postgres:
		return "data::text AS data"
	case Spanner:
		return "TO_JSON_STRING(data) AS data"
	default:
		return "data"
	}
}

// startsWith is an exact, case-sensitive prefix test. LIKE is avoided so that
// '%' and '_' in a prefix match literally.
func (d Dialect) startsWith(prefix string) (string, any) {
	switch d {
	case Postgres:
		return "strpos(id, $1) = 1", prefix
	case Spanner:
		return "STARTS_WITH(id, @prefix)", sql.Named("prefix", prefix)
	default:
		return "instr(id, ?) = 1", prefix
	}
}

// Statement is a query string with its positional or named arguments.
// Spanner statements carry sql.NamedArg values.
type Statement struct {
	SQL  string
	Args []any
}

// unboundedLimit stands in for "no limit" when only an offset is given.
const unboundedLimit = math.MaxInt64

var orderBy = map[models.SortOrder]string{
	models.SortKeyAsc:      "id ASC",
	models.SortKeyDesc:     "id DESC",
	models.SortCreatedAsc:  "created_at ASC, id ASC",
	models.SortCreatedDesc: "created_at DESC, id ASC",
	models.SortUpdatedAsc:  "updated_at ASC, id ASC",
	models.SortUpdatedDesc: "updated_at DESC, id ASC",
}

func orderClause(s models.SortOrder) (string, error) {
	if s == "" {
		s = models.DefaultSort
	}
	frag, ok := orderBy[s]
	if !ok {
		return "", fmt.Errorf("no ordering for sort %q", s)
	}
	return frag, nil
}

func (d Dialect) where(opts models.ListOptions) (string, []any) {
	if opts.Prefix == nil {
		return "", nil
	}
	pred, arg := d.startsWith(*opts.Prefix)
	return " WHERE " + pred, []any{arg}
}

// BuildCount returns the statement counting every entry that matches the
// filter, ignoring pagination.
func (d Dialect) BuildCount(opts models.ListOptions) Statement {
	where, args := d.where(opts)
	return Statement{
		SQL:  "SELECT COUNT(*) AS count FROM kv_store" + where,
		Args: args,
	}
}

// BuildData returns the statement selecting one ordered page of entries.
func (d Dialect) BuildData(opts models.ListOptions) (Statement, error) {
	order, err := orderClause(opts.Sort)
	if err != nil {
		return Statement{}, err
	}
	where, args := d.where(opts)

	var b strings.Builder
	b.WriteString("SELECT id, ")
	b.WriteString(d.dataColumn())
	b.WriteString(", created_at, updated_at FROM kv_store")
	b.WriteString(where)
	b.WriteString(" ORDER BY ")
	b.WriteString(order)

	switch {
	case opts.Limit != nil:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(*opts.Limit, 10))
		if opts.Offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.FormatInt(opts.Offset, 10))
		}
	case opts.Offset > 0:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(unboundedLimit, 10))
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.FormatInt(opts.Offset, 10))
	}

	return Statement{SQL: b.String(), Args: args}, nil
}
