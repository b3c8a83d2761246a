package core

// error_messages.go maps fatal run errors to short operator-facing messages
// with a code, printed by the entry point when a run aborts.
//
// Error codes are grouped by category:
//
//	DB001 - Duplicate key: a user_id in the batch already exists (or repeats)
//	DB002 - Unique constraint: another unique column collided
//	DB004 - Unable to connect to the database
//	DB005 - Connection reset during the save
//	DB006 - Timeout
//	DB008 - Commit failed for another reason; nothing was saved
//	VAL001 - Invalid signup_date
//	VAL004 - Missing column in the CSV header
//	VAL007 - Invalid email
//	FILE002 - Malformed CSV
//	FILE003 - Encoding error
//	FILE004 - Input file could not be read
//	FILE005 - Empty file
//	FILE006 - Input file not found
//	ERR000 - Anything else; check the logs
//
// The error's Kind picks the category first. Within a kind, patterns are
// matched case-insensitively with strings.Contains and the first match wins;
// no match falls back to the kind's default. Errors of unknown kind are
// matched against every pattern.

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides operator-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	kind    ErrorKind
	pattern string
	msg     UserMessage
}

var (
	msgDuplicateKey = UserMessage{
		Message: "A record with this user_id already exists",
		Action:  "Remove duplicate user_id values from the file or the table and rerun",
		Code:    "DB001",
	}
	msgUniqueValue = UserMessage{
		Message: "A duplicate value was found",
		Action:  "Review your data for duplicate key values",
		Code:    "DB002",
	}
	msgConnect = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Check DATABASE_URL and that the database is running",
		Code:    "DB004",
	}
	msgConnReset = UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Rerun the import; no records were saved",
		Code:    "DB005",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Rerun the import or raise DB_CONNECT_TIMEOUT",
		Code:    "DB006",
	}
	msgCommit = UserMessage{
		Message: "The batch could not be saved and was rolled back",
		Action:  "Check the logs for the database error and rerun",
		Code:    "DB008",
	}
	msgMissingColumn = UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "The header must contain user_id, name, email and signup_date",
		Code:    "VAL004",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure file is comma-separated with consistent quoting",
		Code:    "FILE002",
	}
	msgEmptyFile = UserMessage{
		Message: "The input file is empty",
		Action:  "Provide a CSV file with a header row",
		Code:    "FILE005",
	}
	msgNotFound = UserMessage{
		Message: "Input file not found",
		Action:  "Check INPUT_FILE points at an existing CSV file",
		Code:    "FILE006",
	}
)

var errorPatterns = []errorPattern{
	{kind: KindCommit, pattern: "duplicate key", msg: msgDuplicateKey},
	{kind: KindCommit, pattern: "violates unique", msg: msgUniqueValue},
	{kind: KindCommit, pattern: "connection reset", msg: msgConnReset},
	{kind: KindCommit, pattern: "timeout", msg: msgTimeout},
	{kind: KindConnection, pattern: "timeout", msg: msgTimeout},
	{kind: KindSourceRead, pattern: "missing required column", msg: msgMissingColumn},
	{kind: KindSourceRead, pattern: "encoding error", msg: msgEncoding},
	{kind: KindSourceRead, pattern: "empty file", msg: msgEmptyFile},
	{kind: KindSourceRead, pattern: "invalid csv", msg: msgInvalidCSV},
}

// kindDefaults applies when no pattern of the error's kind matches.
var kindDefaults = map[ErrorKind]UserMessage{
	KindRowFormat: {
		Message: "Invalid signup_date",
		Action:  "Use the format YYYY-MM-DD HH:MM:SS",
		Code:    "VAL001",
	},
	KindInvalidEmail: {
		Message: "Invalid email address",
		Action:  "Correct the email column for the reported user",
		Code:    "VAL007",
	},
	KindSourceRead: {
		Message: "Input file could not be read",
		Action:  "Check the file exists and is readable",
		Code:    "FILE004",
	},
	KindConnection: msgConnect,
	KindCommit:     msgCommit,
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the application logs for details",
	Code:    "ERR000",
}

// MapError converts a technical error into an operator-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	kind := Kind(err)
	if kind == KindSourceRead && errors.Is(err, fs.ErrNotExist) {
		return msgNotFound
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if kind != KindUnknown && ep.kind != kind {
			continue
		}
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if msg, ok := kindDefaults[kind]; ok {
		return msg
	}
	return defaultMessage
}

// FormatUserError returns a one-line message with code and action.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
