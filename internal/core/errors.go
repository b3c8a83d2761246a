package core

// errors.go defines the failure taxonomy of a run.
//
// Per-row failures (ErrRowFormat, ErrInvalidEmail) are recovered by the
// transformer: the row is logged and skipped. Everything else is fatal to the
// run and reaches the caller as one of the typed errors below.

import (
	"errors"
	"fmt"
)

var (
	// ErrRowFormat marks a row whose signup_date does not match SourceTimestampLayout.
	ErrRowFormat = errors.New("invalid date")

	// ErrInvalidEmail marks a row whose email fails the address pattern.
	ErrInvalidEmail = errors.New("invalid email")
)

// ErrorKind enumerates the failure classes a run can produce.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindRowFormat
	KindInvalidEmail
	KindSourceRead
	KindConnection
	KindCommit
)

func (k ErrorKind) String() string {
	switch k {
	case KindRowFormat:
		return "row_format"
	case KindInvalidEmail:
		return "invalid_email"
	case KindSourceRead:
		return "source_read"
	case KindConnection:
		return "connection"
	case KindCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind abort the run.
func (k ErrorKind) Fatal() bool {
	return k != KindRowFormat && k != KindInvalidEmail
}

// SourceReadError reports that the input file could not be opened, decoded
// or parsed. No records are produced when it occurs.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("error reading file %s: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// ConnectionError reports that the store could not be reached.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to the database: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommitError reports that a staged batch could not be persisted. The batch
// has been rolled back; Staged is the number of records that were discarded.
type CommitError struct {
	Staged int
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("error saving data (%d records rolled back): %v", e.Staged, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Kind classifies err into the run's failure taxonomy.
func Kind(err error) ErrorKind {
	var (
		srcErr  *SourceReadError
		connErr *ConnectionError
		comErr  *CommitError
	)

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &srcErr):
		return KindSourceRead
	case errors.As(err, &connErr):
		return KindConnection
	case errors.As(err, &comErr):
		return KindCommit
	case errors.Is(err, ErrRowFormat):
		return KindRowFormat
	case errors.Is(err, ErrInvalidEmail):
		return KindInvalidEmail
	default:
		return KindUnknown
	}
}
