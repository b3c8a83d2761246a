package core

import "fmt"

// Column names expected in the source CSV header.
const (
	ColUserID     = "user_id"
	ColName       = "name"
	ColEmail      = "email"
	ColSignupDate = "signup_date"
)

// RequiredColumns lists the header columns every source file must carry.
var RequiredColumns = []string{ColUserID, ColName, ColEmail, ColSignupDate}

// Date layouts for the signup timestamp as read and the date as stored.
const (
	SourceTimestampLayout = "2006-01-02 15:04:05"
	RecordDateLayout      = "2006-01-02"
)

// RawRow is one CSV data row keyed by header name, values untouched.
type RawRow map[string]string

// String renders the row in a stable column order for log output.
func (r RawRow) String() string {
	return fmt.Sprintf("{user_id: %q, name: %q, email: %q, signup_date: %q}",
		r[ColUserID], r[ColName], r[ColEmail], r[ColSignupDate])
}

// UserRecord is a validated, normalized signup. Fields are unexported so a
// record cannot change after the transformer builds it.
type UserRecord struct {
	userID     string
	name       string
	email      string
	signupDate string // YYYY-MM-DD
	domain     string
}

// UserID returns the source identifier.
func (u UserRecord) UserID() string { return u.userID }

// Name returns the name as read from the source.
func (u UserRecord) Name() string { return u.name }

// Email returns the validated email address.
func (u UserRecord) Email() string { return u.email }

// SignupDate returns the signup date rendered as YYYY-MM-DD.
func (u UserRecord) SignupDate() string { return u.signupDate }

// Domain returns the part of the email after the last '@'.
func (u UserRecord) Domain() string { return u.domain }

func (u UserRecord) String() string {
	return fmt.Sprintf("{user_id: %q, name: %q, email: %q, signup_date: %q, domain: %q}",
		u.userID, u.name, u.email, u.signupDate, u.domain)
}
