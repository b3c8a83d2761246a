// Package database implements the loader's Store on PostgreSQL using pgx.
//
// A Session holds one dedicated connection and one transaction. Staged rows
// are buffered in memory and written with the COPY protocol inside the
// transaction at Commit time, so the batch is persisted whole or not at all.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/signup-etl/internal/core"
	"github.com/JonMunkholm/signup-etl/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Config holds what the store needs to open a session.
type Config struct {
	URL            string
	ConnectTimeout time.Duration
	Table          string // defaults to core.UsersTable.Name
}

// Store opens PostgreSQL sessions for the loader.
type Store struct {
	cfg     Config
	connCfg *pgx.ConnConfig
	log     *slog.Logger
}

// NewStore parses the connection string up front. A malformed URL is reported
// as a *core.ConnectionError, the same as an unreachable server.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, &core.ConnectionError{Err: fmt.Errorf("parse database URL: %w", err)}
	}
	if cfg.Table == "" {
		cfg.Table = core.UsersTable.Name
	}
	return &Store{cfg: cfg, connCfg: connCfg, log: logging.OrDefault(logger)}, nil
}

// Connect opens a dedicated connection and begins a transaction on it.
func (s *Store) Connect(ctx context.Context) (core.Session, error) {
	connectCtx := ctx
	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}

	conn, err := pgx.ConnectConfig(connectCtx, s.connCfg)
	if err != nil {
		return nil, &core.ConnectionError{Err: err}
	}

	tx, err := conn.Begin(connectCtx)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, &core.ConnectionError{Err: fmt.Errorf("begin transaction: %w", err)}
	}

	s.log.Debug("database session opened",
		"host", s.connCfg.Host,
		"database", s.connCfg.Database,
		"table", s.cfg.Table,
	)

	return newSession(tx, conn, s.cfg.Table), nil
}

// txn is the part of pgx.Tx a Session uses.
type txn interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// closer is the part of *pgx.Conn a Session uses.
type closer interface {
	Close(ctx context.Context) error
}

// Session implements core.Session over one transaction.
type Session struct {
	tx     txn
	conn   closer
	table  string
	rows   [][]any
	closed bool
}

func newSession(tx txn, conn closer, table string) *Session {
	return &Session{tx: tx, conn: conn, table: table}
}

// Stage buffers row for the next Commit.
func (s *Session) Stage(row core.UserRow) error {
	if s.closed {
		return errors.New("stage on closed session")
	}
	s.rows = append(s.rows, row.CopyRow())
	return nil
}

// Commit copies all staged rows and commits the transaction.
func (s *Session) Commit(ctx context.Context) error {
	if len(s.rows) > 0 {
		n, err := s.tx.CopyFrom(ctx, pgx.Identifier{s.table}, core.UsersTable.Columns, pgx.CopyFromRows(s.rows))
		if err != nil {
			return describe(err)
		}
		if n != int64(len(s.rows)) {
			return fmt.Errorf("copy wrote %d of %d rows", n, len(s.rows))
		}
	}

	if err := s.tx.Commit(ctx); err != nil {
		return describe(err)
	}
	return nil
}

// Rollback discards the transaction. Rolling back a transaction pgx already
// closed is not an error.
func (s *Session) Rollback(ctx context.Context) error {
	s.rows = nil
	if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Close releases the connection. It is idempotent.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close(ctx)
}

// IsUniqueViolation reports whether err carries a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// describe adds the violated constraint and detail to server errors.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("duplicate key on %s (%s): %w", pgErr.ConstraintName, pgErr.Detail, err)
	}
	return fmt.Errorf("sqlstate %s: %w", pgErr.Code, err)
}
