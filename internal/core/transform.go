package core

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/signup-etl/internal/logging"
)

// emailRegex is matched against the whole address.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// timestampRegex pins the exact shape of SourceTimestampLayout. time.Parse
// alone accepts fractional seconds after the seconds field.
var timestampRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

// Transformer validates and normalizes raw signup rows.
type Transformer struct {
	log *slog.Logger
}

// NewTransformer returns a Transformer logging to logger (slog.Default() if nil).
func NewTransformer(logger *slog.Logger) *Transformer {
	return &Transformer{log: logging.OrDefault(logger)}
}

// Transform returns one UserRecord per valid row, in input order. Invalid rows
// are logged and skipped; a bad row never stops the batch.
func (t *Transformer) Transform(rows []RawRow) []UserRecord {
	records := make([]UserRecord, 0, len(rows))

	for _, row := range rows {
		rec, err := TransformRow(row)
		if err != nil {
			t.logRejected(row, err)
			continue
		}
		records = append(records, rec)
	}

	t.log.Info("processed valid records", "count", len(records), "rows", len(rows))
	return records
}

func (t *Transformer) logRejected(row RawRow, err error) {
	switch Kind(err) {
	case KindInvalidEmail:
		t.log.Warn("invalid email", "user_id", row[ColUserID])
	default:
		t.log.Error("error processing row", "row", row.String(), "error", err)
	}
}

// TransformRow validates one row. The date is checked before the email, so a
// row failing both is reported as ErrRowFormat.
func TransformRow(row RawRow) (UserRecord, error) {
	raw := row[ColSignupDate]
	if !timestampRegex.MatchString(raw) {
		return UserRecord{}, fmt.Errorf("%w: %q does not match YYYY-MM-DD HH:MM:SS", ErrRowFormat, raw)
	}
	signup, err := time.Parse(SourceTimestampLayout, raw)
	if err != nil {
		return UserRecord{}, fmt.Errorf("%w: %q: %v", ErrRowFormat, raw, err)
	}

	email := row[ColEmail]
	domain, ok := ExtractDomain(email)
	if !ok {
		return UserRecord{}, fmt.Errorf("%w for user %s", ErrInvalidEmail, row[ColUserID])
	}

	return UserRecord{
		userID:     row[ColUserID],
		name:       row[ColName],
		email:      email,
		signupDate: signup.Format(RecordDateLayout),
		domain:     domain,
	}, nil
}

// ExtractDomain validates email and returns the text after its last '@'.
func ExtractDomain(email string) (string, bool) {
	if !emailRegex.MatchString(email) {
		return "", false
	}
	return email[strings.LastIndex(email, "@")+1:], true
}
