package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/signup-etl/internal/logging"
)

// Store opens sessions against the target database.
//
// Connect either returns a usable Session or an error; it never returns both.
// Implementations should return a *ConnectionError, but Loader wraps any
// other error into one.
type Store interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is one exclusive unit of work. Staged rows become visible only
// after Commit succeeds. Close must be safe to call after Commit or Rollback.
type Session interface {
	Stage(row UserRow) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}

// LoaderState is a step in a Load call.
type LoaderState int

const (
	StateIdle LoaderState = iota
	StateConnected
	StateStaging
	StateCommitted
	StateRolledBack
	StateConnectionFailed
	StateReleased
)

func (s LoaderState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateStaging:
		return "staging"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	case StateConnectionFailed:
		return "connection_failed"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("LoaderState(%d)", int(s))
	}
}

// Loader writes a batch of records through a single Session, all or nothing.
type Loader struct {
	store  Store
	log    *slog.Logger
	states []LoaderState
}

// NewLoader returns a Loader for store logging to logger (slog.Default() if nil).
func NewLoader(store Store, logger *slog.Logger) *Loader {
	return &Loader{
		store:  store,
		log:    logging.OrDefault(logger),
		states: []LoaderState{StateIdle},
	}
}

// Load persists records in one transaction. On a connection failure it
// returns a *ConnectionError; if anything fails after connecting the batch is
// rolled back and a *CommitError is returned. The session is closed on every
// path. Nothing is retried.
func (l *Loader) Load(ctx context.Context, records []UserRecord) error {
	l.states = []LoaderState{StateIdle}

	sess, err := l.store.Connect(ctx)
	if err != nil {
		l.enter(StateConnectionFailed)
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			connErr = &ConnectionError{Err: err}
		}
		l.log.Error("failed to connect to the database", "error", connErr.Err)
		l.enter(StateReleased)
		return connErr
	}
	l.enter(StateConnected)

	defer func() {
		if err := sess.Close(ctx); err != nil {
			l.log.Warn("error closing database session", "error", err)
		}
		l.enter(StateReleased)
	}()

	l.enter(StateStaging)
	if err := l.stageAll(sess, records); err != nil {
		return l.rollback(ctx, sess, len(records), err)
	}

	if err := sess.Commit(ctx); err != nil {
		return l.rollback(ctx, sess, len(records), err)
	}

	l.enter(StateCommitted)
	l.log.Info("saved records to database", "count", len(records))
	return nil
}

// State returns the most recent state of the last Load call.
func (l *Loader) State() LoaderState {
	return l.states[len(l.states)-1]
}

// States returns every state the last Load call passed through, in order.
func (l *Loader) States() []LoaderState {
	return append([]LoaderState(nil), l.states...)
}

func (l *Loader) stageAll(sess Session, records []UserRecord) error {
	for _, rec := range records {
		row, err := ToUserRow(rec)
		if err != nil {
			return err
		}
		if err := sess.Stage(row); err != nil {
			return fmt.Errorf("stage user %s: %w", rec.UserID(), err)
		}
	}
	return nil
}

func (l *Loader) rollback(ctx context.Context, sess Session, staged int, cause error) error {
	if err := sess.Rollback(ctx); err != nil {
		l.log.Warn("rollback failed", "error", err)
	}
	l.enter(StateRolledBack)
	l.log.Error("error saving data", "records", staged, "error", cause)
	return &CommitError{Staged: staged, Err: cause}
}

func (l *Loader) enter(s LoaderState) {
	l.states = append(l.states, s)
	l.log.Debug("loader state", "state", s.String())
}
