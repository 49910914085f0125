package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
)

// Dialect captures the differences between the supported SQL backends.
type Dialect struct {
	// Name is the configured store driver: sqlite, postgres or mysql.
	Name string
	// Driver is the database/sql driver name registered by the driver package.
	Driver string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
	// maxOpenConns caps the pool; zero leaves the database/sql default.
	maxOpenConns int
}

var dialects = map[string]Dialect{
	"sqlite":   {Name: "sqlite", Driver: "sqlite", maxOpenConns: 1},
	"postgres": {Name: "postgres", Driver: "pgx", numbered: true},
	"mysql":    {Name: "mysql", Driver: "mysql"},
}

// LookupDialect returns the dialect for a configured store driver.
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported store driver %q", name)
	}
	return d, nil
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// isUniqueViolation reports whether err is a unique constraint failure from any supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// extended result codes disabled
			return true
		}
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
