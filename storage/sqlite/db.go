// Package sqlite opens the application database and applies its schema.
// SQLite (modernc.org/sqlite or mattn/go-sqlite3) is the default; a
// postgres:// URL selects lib/pq.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is a *sql.DB that knows which placeholder style its driver wants.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open picks the driver from dsn and driver. driver is "sqlite" (modernc)
// or "sqlite3" (mattn) and is ignored for postgres URLs.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect := DialectSQLite
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		driver, dialect = "postgres", DialectPostgres
	case driver == "":
		driver = "sqlite"
	case driver != "sqlite" && driver != "sqlite3":
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if dialect == DialectSQLite && !strings.Contains(dsn, "?") && dsn != ":memory:" {
		dsn += sqliteParams(driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if dialect == DialectSQLite {
		// one writer avoids SQLITE_BUSY under concurrent handlers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

func sqliteParams(driver string) string {
	if driver == "sqlite3" {
		return "?_foreign_keys=on&_busy_timeout=5000"
	}
	return "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Rebind rewrites ? placeholders as $1, $2... for postgres.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
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
