package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store that enforces unique user_id at commit time.
type memStore struct {
	connectErr  error
	rejectFinal bool // fail the commit because of the last staged row
	rollbackErr error

	rows     map[string]UserRow
	order    []string
	sessions []*memSession
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]UserRow{}}
}

func (m *memStore) Connect(ctx context.Context) (Session, error) {
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	s := &memSession{store: m}
	m.sessions = append(m.sessions, s)
	return s, nil
}

type memSession struct {
	store      *memStore
	staged     []UserRow
	committed  bool
	rolledBack bool
	closed     int
}

func (s *memSession) Stage(row UserRow) error {
	s.staged = append(s.staged, row)
	return nil
}

func (s *memSession) Commit(ctx context.Context) error {
	seen := map[string]bool{}
	for i, r := range s.staged {
		id := r.UserID.String
		if s.store.rejectFinal && i == len(s.staged)-1 {
			return fmt.Errorf("check constraint rejected user %s", id)
		}
		if _, exists := s.store.rows[id]; exists || seen[id] {
			return fmt.Errorf("duplicate key value violates unique constraint \"users_user_id_key\": %s", id)
		}
		seen[id] = true
	}
	for _, r := range s.staged {
		s.store.rows[r.UserID.String] = r
		s.store.order = append(s.store.order, r.UserID.String)
	}
	s.committed = true
	return nil
}

func (s *memSession) Rollback(ctx context.Context) error {
	s.staged = nil
	s.rolledBack = true
	return s.store.rollbackErr
}

func (s *memSession) Close(ctx context.Context) error {
	s.closed++
	return nil
}

func mustRecords(t *testing.T, rows ...RawRow) []UserRecord {
	t.Helper()
	out := make([]UserRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := TransformRow(r)
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func sampleRecords(t *testing.T) []UserRecord {
	return mustRecords(t,
		row("u1", "Ann", "ann@example.com", "2024-01-05 10:00:00"),
		row("u2", "Bob", "bob@example.org", "2024-01-06 11:00:00"),
		row("u3", "Cy", "cy@mail.example.net", "2024-01-07 12:00:00"),
	)
}

func TestLoader_CommitsBatch(t *testing.T) {
	logger, buf := captureLogger()
	store := newMemStore()
	loader := NewLoader(store, logger)

	require.NoError(t, loader.Load(context.Background(), sampleRecords(t)))

	assert.Equal(t, []string{"u1", "u2", "u3"}, store.order)
	got := store.rows["u1"]
	assert.Equal(t, "Ann", got.Name.String)
	assert.Equal(t, "example.com", got.Domain.String)
	assert.Equal(t, "2024-01-05", got.SignupDate.Time.Format(RecordDateLayout))

	require.Len(t, store.sessions, 1)
	assert.True(t, store.sessions[0].committed)
	assert.Equal(t, 1, store.sessions[0].closed)

	assert.Equal(t, []LoaderState{StateIdle, StateConnected, StateStaging, StateCommitted, StateReleased}, loader.States())
	assert.Contains(t, buf.String(), "saved records to database")
	assert.Contains(t, buf.String(), "count=3")
}

func TestLoader_RejectFinalRecordPersistsNothing(t *testing.T) {
	logger, buf := captureLogger()
	store := newMemStore()
	store.rejectFinal = true
	loader := NewLoader(store, logger)

	err := loader.Load(context.Background(), sampleRecords(t))
	require.Error(t, err)

	var commitErr *CommitError
	require.True(t, errors.As(err, &commitErr))
	assert.Equal(t, 3, commitErr.Staged)
	assert.Equal(t, KindCommit, Kind(err))

	assert.Empty(t, store.rows)
	require.Len(t, store.sessions, 1)
	assert.True(t, store.sessions[0].rolledBack)
	assert.Equal(t, 1, store.sessions[0].closed)

	assert.Equal(t, []LoaderState{StateIdle, StateConnected, StateStaging, StateRolledBack, StateReleased}, loader.States())
	assert.Contains(t, buf.String(), "error saving data")
}

func TestLoader_DuplicateUserIDFailsWholeBatch(t *testing.T) {
	logger, _ := captureLogger()
	store := newMemStore()
	loader := NewLoader(store, logger)

	records := mustRecords(t,
		row("u1", "Ann", "ann@example.com", "2024-01-05 10:00:00"),
		row("u2", "Bob", "bob@example.org", "2024-01-06 11:00:00"),
		row("u1", "Ann Again", "ann2@example.com", "2024-01-08 09:00:00"),
	)

	err := loader.Load(context.Background(), records)
	require.Error(t, err)
	assert.Equal(t, KindCommit, Kind(err))
	assert.Equal(t, "DB001", MapError(err).Code)
	assert.Empty(t, store.rows)
}

func TestLoader_DuplicateAgainstExistingRows(t *testing.T) {
	logger, _ := captureLogger()
	store := newMemStore()
	loader := NewLoader(store, logger)

	require.NoError(t, loader.Load(context.Background(), sampleRecords(t)[:1]))

	err := loader.Load(context.Background(), sampleRecords(t))
	require.Error(t, err)
	assert.Equal(t, KindCommit, Kind(err))
	assert.Equal(t, []string{"u1"}, store.order)
	assert.Equal(t, 1, store.sessions[1].closed)
}

func TestLoader_ConnectionFailure(t *testing.T) {
	logger, buf := captureLogger()
	store := newMemStore()
	store.connectErr = errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")
	loader := NewLoader(store, logger)

	err := loader.Load(context.Background(), sampleRecords(t))
	require.Error(t, err)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	var commitErr *CommitError
	assert.False(t, errors.As(err, &commitErr))
	assert.Equal(t, KindConnection, Kind(err))
	assert.Equal(t, "DB004", MapError(err).Code)

	assert.Empty(t, store.sessions)
	assert.Equal(t, []LoaderState{StateIdle, StateConnectionFailed, StateReleased}, loader.States())
	assert.Contains(t, buf.String(), "failed to connect to the database")
}

func TestLoader_ConnectionErrorNotDoubleWrapped(t *testing.T) {
	logger, _ := captureLogger()
	store := newMemStore()
	cause := errors.New("no route to host")
	store.connectErr = &ConnectionError{Err: cause}

	err := NewLoader(store, logger).Load(context.Background(), nil)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Same(t, cause, connErr.Err)
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to connect"))
}

func TestLoader_RollbackErrorStillReturnsCommitError(t *testing.T) {
	logger, buf := captureLogger()
	store := newMemStore()
	store.rejectFinal = true
	store.rollbackErr = errors.New("conn closed")

	err := NewLoader(store, logger).Load(context.Background(), sampleRecords(t))

	assert.Equal(t, KindCommit, Kind(err))
	assert.Contains(t, buf.String(), "rollback failed")
	assert.Equal(t, 1, store.sessions[0].closed)
}

func TestLoader_EmptyBatch(t *testing.T) {
	logger, _ := captureLogger()
	store := newMemStore()
	loader := NewLoader(store, logger)

	require.NoError(t, loader.Load(context.Background(), nil))
	assert.Equal(t, StateReleased, loader.State())
	assert.True(t, store.sessions[0].committed)
	assert.Empty(t, store.rows)
}

func TestLoaderState_String(t *testing.T) {
	assert.Equal(t, "rolled_back", StateRolledBack.String())
	assert.Equal(t, "connection_failed", StateConnectionFailed.String())
	assert.Equal(t, "LoaderState(42)", LoaderState(42).String())
}
