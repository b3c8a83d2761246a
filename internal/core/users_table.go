package core

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// TableInfo describes the target table for a batch.
type TableInfo struct {
	Name    string   // Table name
	Columns []string // Insert columns, in the order CopyRow returns values
}

// UsersTable is the schema accepted records are written to. The surrogate id
// column is assigned by the database and is not part of Columns.
//
//	CREATE TABLE users (
//	    id          SERIAL PRIMARY KEY,
//	    user_id     VARCHAR UNIQUE,
//	    name        VARCHAR,
//	    email       VARCHAR,
//	    signup_date DATE,
//	    domain      VARCHAR
//	);
var UsersTable = TableInfo{
	Name:    "users",
	Columns: []string{"user_id", "name", "email", "signup_date", "domain"},
}

// UserRow is the persistent form of a UserRecord.
type UserRow struct {
	UserID     pgtype.Text
	Name       pgtype.Text
	Email      pgtype.Text
	SignupDate pgtype.Date
	Domain     pgtype.Text
}

// ToUserRow maps a record to its row, parsing signup_date back into a date.
func ToUserRow(rec UserRecord) (UserRow, error) {
	d, err := time.Parse(RecordDateLayout, rec.SignupDate())
	if err != nil {
		return UserRow{}, fmt.Errorf("user %s: signup_date %q: %w", rec.UserID(), rec.SignupDate(), err)
	}

	return UserRow{
		UserID:     pgtype.Text{String: rec.UserID(), Valid: true},
		Name:       pgtype.Text{String: rec.Name(), Valid: true},
		Email:      pgtype.Text{String: rec.Email(), Valid: true},
		SignupDate: pgtype.Date{Time: d, Valid: true},
		Domain:     pgtype.Text{String: rec.Domain(), Valid: true},
	}, nil
}

// CopyRow returns the row's values in UsersTable.Columns order.
func (r UserRow) CopyRow() []any {
	return []any{r.UserID, r.Name, r.Email, r.SignupDate, r.Domain}
}
