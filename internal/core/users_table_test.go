package core

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUserRow(t *testing.T) {
	rec, err := TransformRow(row("u1", "Ann", "ann@example.com", "2024-01-05 10:00:00"))
	require.NoError(t, err)

	r, err := ToUserRow(rec)
	require.NoError(t, err)

	assert.Equal(t, pgtype.Text{String: "u1", Valid: true}, r.UserID)
	assert.Equal(t, pgtype.Text{String: "example.com", Valid: true}, r.Domain)
	assert.True(t, r.SignupDate.Valid)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), r.SignupDate.Time)
}

func TestToUserRow_BadDate(t *testing.T) {
	_, err := ToUserRow(UserRecord{userID: "u9", signupDate: "05/01/2024"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u9")
}

func TestUserRow_CopyRowMatchesColumns(t *testing.T) {
	rec, err := TransformRow(row("u1", "Ann", "ann@example.com", "2024-01-05 10:00:00"))
	require.NoError(t, err)
	r, err := ToUserRow(rec)
	require.NoError(t, err)

	values := r.CopyRow()
	require.Len(t, values, len(UsersTable.Columns))

	byColumn := map[string]any{}
	for i, col := range UsersTable.Columns {
		byColumn[col] = values[i]
	}
	assert.Equal(t, r.UserID, byColumn["user_id"])
	assert.Equal(t, r.Email, byColumn["email"])
	assert.Equal(t, r.SignupDate, byColumn["signup_date"])
	assert.Equal(t, r.Domain, byColumn["domain"])
	assert.NotContains(t, UsersTable.Columns, "id")
}
