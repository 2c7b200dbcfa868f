// Package sqlstore implements content.Store over PostgreSQL or SQLite using
// the ent dialect/sql builder, so placeholders and quoting follow the driver.
package sqlstore

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/pkg/crypto"
)

const (
	tableUsers      = "users"
	tableCategories = "categories"
	tableQuestions  = "questions"
	tableAnswers    = "answers"
	tableResponses  = "category_responses"
	tableSessions   = "test_sessions"
	tableUserResp   = "user_responses"
)

type Store struct {
	drv     *sql.Driver
	dialect string
	phones  *crypto.FieldCipher
	now     func() time.Time
}

var _ content.Store = (*Store)(nil)

type Option func(*Store)

// WithPhoneCipher encrypts user phone numbers at rest.
func WithPhoneCipher(c *crypto.FieldCipher) Option {
	return func(s *Store) { s.phones = c }
}

// WithClock overrides the time source used for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(drv *sql.Driver, opts ...Option) *Store {
	s := &Store{
		drv:     drv,
		dialect: drv.Dialect(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	return s.drv.DB().PingContext(ctx)
}

func (s *Store) Close() error {
	return s.drv.Close()
}

func (s *Store) b() *sql.DialectBuilder {
	return sql.Dialect(s.dialect)
}

func (s *Store) stamp() int64 {
	return s.now().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// withTx runs fn inside a transaction. With SQLite capped at one connection,
// fn must only use tx; touching s.drv inside fn would block forever.
func (s *Store) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// insert runs b and returns the generated id.
func (s *Store) insert(ctx context.Context, q dialect.ExecQuerier, b *sql.InsertBuilder) (int64, error) {
	if s.dialect == dialect.Postgres {
		query, args := b.Returning("id").Query()
		var id int64
		found, err := queryOne(ctx, q, query, args, func(rows *sql.Rows) error {
			return rows.Scan(&id)
		})
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, errors.New("insert returned no id")
		}
		return id, nil
	}

	query, args := b.Query()
	var res stdsql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func exec(ctx context.Context, q dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res stdsql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type querier interface {
	Query() (string, []any)
}

func execB(ctx context.Context, q dialect.ExecQuerier, b querier) (int64, error) {
	query, args := b.Query()
	return exec(ctx, q, query, args)
}

// queryAll scans every row with scan.
func queryAll[T any](ctx context.Context, q dialect.ExecQuerier, b querier, scan func(*sql.Rows) (T, error)) ([]T, error) {
	query, args := b.Query()
	rows := &sql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// queryOne scans the first row, reporting whether one existed.
func queryOne(ctx context.Context, q dialect.ExecQuerier, query string, args []any, scan func(*sql.Rows) error) (bool, error) {
	rows := &sql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := scan(rows); err != nil {
		return false, err
	}
	return true, rows.Err()
}

func first[T any](ctx context.Context, q dialect.ExecQuerier, b querier, scan func(*sql.Rows) (T, error)) (*T, error) {
	query, args := b.Query()
	var v T
	found, err := queryOne(ctx, q, query, args, func(rows *sql.Rows) error {
		var err error
		v, err = scan(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, content.ErrNotFound
	}
	return &v, nil
}

// deleteByID removes a row, returning content.ErrNotFound when nothing matched.
func (s *Store) deleteByID(ctx context.Context, q dialect.ExecQuerier, table string, id int64) error {
	n, err := execB(ctx, q, s.b().Delete(table).Where(sql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return nil
}
