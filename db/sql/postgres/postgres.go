package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/adeilh/go-places/db/sql/docsql"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/store"
)

// Dialect renders document queries with JSONB path operators.
type Dialect struct{}

var _ docsql.Dialect = Dialect{}

func (Dialect) Name() string                  { return "postgres" }
func (Dialect) Placeholder(n int) string      { return fmt.Sprintf("$%d", n) }
func (Dialect) QuoteIdent(name string) string { return pq.QuoteIdentifier(name) }
func (Dialect) DocParam(ph string) string     { return ph + "::jsonb" }

func (d Dialect) Schema(table string) []string {
	t := d.QuoteIdent(table)
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
			seq BIGSERIAL PRIMARY KEY,
			id  TEXT NOT NULL UNIQUE,
			doc JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + d.QuoteIdent(table+"_name_idx") + ` ON ` + t + ` ((doc->>'name'))`,
	}
}

func path(bind docsql.Bind, field string) string {
	return bind(pq.Array(strings.Split(field, "."))) + "::text[]"
}

func (Dialect) JSON(bind docsql.Bind, field string) string {
	return "(doc #> " + path(bind, field) + ")"
}

func (Dialect) IsString(bind docsql.Bind, field string) string {
	return "jsonb_typeof(doc #> " + path(bind, field) + ") = 'string'"
}

func (Dialect) Text(bind docsql.Bind, field string) string {
	return "(doc #>> " + path(bind, field) + ")"
}

func (Dialect) Number(bind docsql.Bind, field string) string {
	return "(CASE WHEN jsonb_typeof(doc #> " + path(bind, field) + ") = 'number' THEN (doc #>> " +
		path(bind, field) + ")::double precision END)"
}

// ContainsFold compares ASCII-only values with C-collation lowercasing, which
// equals Unicode folding for ASCII. Any value holding a multi-byte character
// is passed through and decided by the Go re-check after the scan.
func (Dialect) ContainsFold(haystack, needle string) string {
	return "(strpos(lower(" + haystack + ` COLLATE "C"), ` + needle + ") > 0" +
		" OR octet_length(" + haystack + ") <> char_length(" + haystack + "))"
}

const uniqueViolation = "23505"

func (Dialect) Translate(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pqErr.Message)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// Schema returns the migrations creating one document table per collection.
func Schema(collections ...string) []string {
	var stmts []string
	for _, c := range collections {
		stmts = append(stmts, Dialect{}.Schema(c)...)
	}
	return stmts
}

// NewCollection binds a JSONB-backed document collection to db.
func NewCollection[T any](db *sql.DB, schema record.Schema[T], opts ...docsql.Option) *docsql.Collection[T] {
	return docsql.New(db, Dialect{}, schema, opts...)
}
