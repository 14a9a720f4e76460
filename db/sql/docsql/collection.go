// Package docsql stores JSON documents in a SQL table and answers
// query.Predicate lookups against them. Engines plug in through a Dialect.
package docsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/store"
)

// Collection is a store.Collection persisted in one SQL table.
type Collection[T any] struct {
	db      *sql.DB
	dialect Dialect
	schema  record.Schema[T]
	table   string
	logger  *zap.Logger
	metrics *Metrics
}

type Option func(*options)

type options struct {
	table   string
	logger  *zap.Logger
	metrics *Metrics
}

// WithTable overrides the table name, which defaults to the schema's collection.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New binds a collection to db. The table must already exist; see
// Dialect.Schema.
func New[T any](db *sql.DB, dialect Dialect, schema record.Schema[T], opts ...Option) *Collection[T] {
	o := options{table: schema.Collection, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Collection[T]{
		db:      db,
		dialect: dialect,
		schema:  schema,
		table:   o.table,
		logger:  o.logger.With(zap.String("collection", o.table), zap.String("dialect", dialect.Name())),
		metrics: o.metrics,
	}
}

func (c *Collection[T]) quoted() string { return c.dialect.QuoteIdent(c.table) }

type row[T any] struct {
	id  string
	doc T
}

// scan runs a select over pred and returns the rows that satisfy it. When
// limit > 0 it stops after limit matches.
func (c *Collection[T]) scan(ctx context.Context, q queryer, pred query.Predicate, limit int) ([]row[T], error) {
	b := &builder{dialect: c.dialect}
	where, err := b.where(pred)
	if err != nil {
		return nil, err
	}
	stmt := "SELECT seq, id, doc FROM " + c.quoted() + where + " ORDER BY seq"
	rows, err := q.QueryContext(ctx, stmt, b.args...)
	if err != nil {
		return nil, c.dialect.Translate(err)
	}
	defer rows.Close()

	var out []row[T]
	for rows.Next() {
		var (
			seq int64
			id  string
			raw []byte
		)
		if err := rows.Scan(&seq, &id, &raw); err != nil {
			return nil, c.dialect.Translate(err)
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("docsql: decode %s/%s: %w", c.table, id, err)
		}
		doc = c.schema.WithHandle(doc, seq)
		if !pred.Match(c.schema.Fields(doc)) {
			continue
		}
		out = append(out, row[T]{id: id, doc: doc})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, c.dialect.Translate(err)
	}
	return out, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *Collection[T]) Find(ctx context.Context, pred query.Predicate) ([]T, error) {
	defer c.metrics.since(c.table, "find", time.Now())
	rows, err := c.scan(ctx, c.db, pred, 0)
	if err != nil {
		return nil, err
	}
	docs := make([]T, len(rows))
	for i, r := range rows {
		docs[i] = r.doc
	}
	return docs, nil
}

func (c *Collection[T]) FindOne(ctx context.Context, pred query.Predicate) (T, bool, error) {
	defer c.metrics.since(c.table, "find_one", time.Now())
	var zero T
	rows, err := c.scan(ctx, c.db, pred, 1)
	if err != nil || len(rows) == 0 {
		return zero, false, err
	}
	return rows[0].doc, true, nil
}

func (c *Collection[T]) Distinct(ctx context.Context, field string) ([]any, error) {
	defer c.metrics.since(c.table, "distinct", time.Now())
	if err := store.ValidField(field); err != nil {
		return nil, err
	}
	b := &builder{dialect: c.dialect}
	sel := c.dialect.JSON(b.bind, field)
	cond := c.dialect.JSON(b.bind, field)
	stmt := "SELECT DISTINCT " + sel + " FROM " + c.quoted() + " WHERE " + cond + " IS NOT NULL"
	rows, err := c.db.QueryContext(ctx, stmt, b.args...)
	if err != nil {
		return nil, c.dialect.Translate(err)
	}
	defer rows.Close()

	var values []any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, c.dialect.Translate(err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("docsql: decode distinct %s: %w", field, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, c.dialect.Translate(err)
	}
	return store.DistinctValues(values), nil
}

// Insert stores docs in one transaction: all of them or none.
func (c *Collection[T]) Insert(ctx context.Context, docs ...T) error {
	defer c.metrics.since(c.table, "insert", time.Now())
	if len(docs) == 0 {
		return nil
	}
	return c.inTx(ctx, func(tx *sql.Tx) error {
		stmt := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (%s, %s)",
			c.quoted(), c.dialect.Placeholder(1), c.dialect.DocParam(c.dialect.Placeholder(2)))
		for _, doc := range docs {
			id := c.schema.ID(doc)
			raw, err := json.Marshal(c.schema.Strip(doc))
			if err != nil {
				return fmt.Errorf("docsql: encode %s/%s: %w", c.table, id, err)
			}
			if _, err := tx.ExecContext(ctx, stmt, id, string(raw)); err != nil {
				return fmt.Errorf("docsql: insert %q: %w", id, c.dialect.Translate(err))
			}
		}
		return nil
	})
}

func (c *Collection[T]) Replace(ctx context.Context, id string, doc T) error {
	defer c.metrics.since(c.table, "replace", time.Now())
	doc = c.schema.WithID(c.schema.Strip(doc), id)
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docsql: encode %s/%s: %w", c.table, id, err)
	}
	stmt := fmt.Sprintf("UPDATE %s SET doc = %s WHERE id = %s",
		c.quoted(), c.dialect.DocParam(c.dialect.Placeholder(1)), c.dialect.Placeholder(2))
	res, err := c.db.ExecContext(ctx, stmt, string(raw), id)
	if err != nil {
		return c.dialect.Translate(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("docsql: replace %q: %w", id, store.ErrNotFound)
	}
	return nil
}

// Delete removes the documents matching pred and returns them.
func (c *Collection[T]) Delete(ctx context.Context, pred query.Predicate) ([]T, error) {
	defer c.metrics.since(c.table, "delete", time.Now())
	var removed []T
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := c.scan(ctx, tx, pred, 0)
		if err != nil {
			return err
		}
		stmt := fmt.Sprintf("DELETE FROM %s WHERE id = %s", c.quoted(), c.dialect.Placeholder(1))
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, stmt, r.id); err != nil {
				return c.dialect.Translate(err)
			}
			removed = append(removed, r.doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (c *Collection[T]) Drop(ctx context.Context) error {
	defer c.metrics.since(c.table, "drop", time.Now())
	if _, err := c.db.ExecContext(ctx, "DELETE FROM "+c.quoted()); err != nil {
		return c.dialect.Translate(err)
	}
	return nil
}

func (c *Collection[T]) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.dialect.Translate(err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			c.logger.Warn("rollback failed", zap.Error(rbErr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return c.dialect.Translate(err)
	}
	return nil
}
