package store

import (
	"fmt"
	"strings"
	"time"
)

// dialect captures the SQL differences between the supported drivers.
type dialect interface {
	// driverName is the database/sql driver to open.
	driverName() string

	// placeholder returns the bind marker for the n-th (1-based) argument.
	placeholder(n int) string

	// dayExpr truncates a timestamp column to a YYYY-MM-DD string.
	dayExpr(col string) string

	// timeExpr normalizes a timestamp column for comparison with timeArg.
	timeExpr(col string) string

	// timeArg converts a time into the representation stored in created_at.
	timeArg(t time.Time) any

	// schema returns the DDL statements creating the expected tables.
	schema() []string
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// bindArgs accumulates statement arguments and hands out placeholders in
// order.
type bindArgs struct {
	d    dialect
	args []any
}

func (b *bindArgs) add(v any) string {
	b.args = append(b.args, v)
	return b.d.placeholder(len(b.args))
}
