// Package sqlite stores documents in an embedded SQLite database through the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/adeilh/go-places/db/sql/docsql"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/store"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

var ErrMissingPath = errors.New("sqlite: database path is required")

// Options configures the embedded database.
type Options struct {
	// Path is a file path or ":memory:".
	Path        string
	BusyTimeout time.Duration
}

var registerFuncs = sync.OnceValue(func() error {
	return sqlite.RegisterDeterministicScalarFunction("casefold", 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return cases.Fold().String(v), nil
			case []byte:
				return cases.Fold().String(string(v)), nil
			default:
				return v, nil
			}
		})
})

// Open opens the database, enables WAL for files and registers the casefold
// SQL function used for case-insensitive search.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, ErrMissingPath
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if err := registerFuncs(); err != nil {
		return nil, fmt.Errorf("sqlite: register functions: %w", err)
	}

	db, err := sql.Open(DriverName, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// every connection to ":memory:" is a separate database
	if opts.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	if opts.Path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	return db, nil
}

// Migrate creates the document tables for collections.
func Migrate(ctx context.Context, db *sql.DB, collections ...string) error {
	for _, c := range collections {
		for _, stmt := range (Dialect{}).Schema(c) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("sqlite: migrate %s: %w", c, err)
			}
		}
	}
	return nil
}

// NewCollection binds a document collection to db.
func NewCollection[T any](db *sql.DB, schema record.Schema[T], opts ...docsql.Option) *docsql.Collection[T] {
	return docsql.New(db, Dialect{}, schema, opts...)
}

// Dialect renders document queries with the SQLite JSON functions.
type Dialect struct{}

var _ docsql.Dialect = Dialect{}

func (Dialect) Name() string              { return "sqlite" }
func (Dialect) Placeholder(int) string    { return "?" }
func (Dialect) DocParam(ph string) string { return "json(" + ph + ")" }

func (Dialect) QuoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	return string(append(out, '"'))
}

func (d Dialect) Schema(table string) []string {
	t := d.QuoteIdent(table)
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id  TEXT NOT NULL UNIQUE,
			doc TEXT NOT NULL CHECK (json_valid(doc))
		)`,
		`CREATE INDEX IF NOT EXISTS ` + d.QuoteIdent(table+"_name_idx") + ` ON ` + t + ` (json_extract(doc, '$.name'))`,
	}
}

func path(bind docsql.Bind, field string) string { return bind("$." + field) }

func (Dialect) JSON(bind docsql.Bind, field string) string {
	return "(doc -> " + path(bind, field) + ")"
}

func (Dialect) IsString(bind docsql.Bind, field string) string {
	return "json_type(doc, " + path(bind, field) + ") = 'text'"
}

func (Dialect) Text(bind docsql.Bind, field string) string {
	return "json_extract(doc, " + path(bind, field) + ")"
}

func (Dialect) Number(bind docsql.Bind, field string) string {
	return "(CASE WHEN json_type(doc, " + path(bind, field) + ") IN ('integer', 'real') THEN json_extract(doc, " +
		path(bind, field) + ") END)"
}

func (Dialect) ContainsFold(haystack, needle string) string {
	return "instr(casefold(" + haystack + "), casefold(" + needle + ")) > 0"
}

func (Dialect) Translate(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", store.ErrDuplicate, sqlErr.Error())
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "UNIQUE"):
			return fmt.Errorf("%w: %s", store.ErrDuplicate, sqlErr.Error())
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
