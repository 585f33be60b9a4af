package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"localfund/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSessionRoundTrip(t *testing.T) {
	database := openTestDB(t)

	_, ok, err := GetSession(database)
	require.NoError(t, err)
	assert.False(t, ok)

	row := SessionRow{
		AccessToken: "token-1",
		Member: model.Member{
			Email:     "kim@example.kr",
			Nickname:  "kim",
			RoleNames: []string{"USER", "ADMIN"},
		},
	}
	require.NoError(t, PutSession(database, row))

	got, ok, err := GetSession(database)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token-1", got.AccessToken)
	assert.Equal(t, "kim@example.kr", got.Member.Email)
	assert.Equal(t, []string{"USER", "ADMIN"}, got.Member.RoleNames)
	assert.False(t, got.UpdatedAt.IsZero())

	row.AccessToken = "token-2"
	require.NoError(t, PutSession(database, row))
	got, _, err = GetSession(database)
	require.NoError(t, err)
	assert.Equal(t, "token-2", got.AccessToken)

	require.NoError(t, DeleteSession(database))
	_, ok, err = GetSession(database)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectedLocationRoundTrip(t *testing.T) {
	database := openTestDB(t)

	_, ok, err := GetSelectedLocation(database)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, PutSelectedLocation(database, model.SelectedLocation{
		LocationID: 7,
		Address:    "서울 강남구 테헤란로 123",
		Lat:        37.5027,
		Lng:        127.0352,
		SelectedAt: at,
	}))

	got, ok, err := GetSelectedLocation(database)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.LocationID)
	assert.Equal(t, "서울 강남구 테헤란로 123", got.Address)
	assert.InDelta(t, 37.5027, got.Lat, 1e-9)
	assert.InDelta(t, 127.0352, got.Lng, 1e-9)
	assert.True(t, at.Equal(got.SelectedAt))

	require.NoError(t, DeleteSelectedLocation(database))
	_, ok, err = GetSelectedLocation(database)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckoutAttempts(t *testing.T) {
	database := openTestDB(t)

	attempt := CheckoutAttempt{
		MerchantUID: "funding_abc",
		Kind:        "funding",
		TargetID:    3,
		TargetName:  "을지로 국밥",
		MemberID:    "kim@example.kr",
		Amount:      18000,
		Method:      "kakaopay",
	}
	require.NoError(t, InsertCheckoutAttempt(database, attempt))
	assert.ErrorIs(t, InsertCheckoutAttempt(database, attempt), ErrDuplicateAttempt)

	got, err := GetCheckoutAttempt(database, "funding_abc")
	require.NoError(t, err)
	assert.Equal(t, AttemptStarted, got.Status)
	assert.Equal(t, int64(18000), got.Amount)

	require.NoError(t, UpdateCheckoutAttempt(database, "funding_abc", AttemptPaid, "imp_1", ""))
	require.NoError(t, UpdateCheckoutAttempt(database, "funding_abc", AttemptUnrecorded, "", "backend down"))

	got, err = GetCheckoutAttempt(database, "funding_abc")
	require.NoError(t, err)
	assert.Equal(t, AttemptUnrecorded, got.Status)
	assert.Equal(t, "imp_1", got.ImpUID, "imp uid survives later updates")
	assert.Equal(t, "backend down", got.Error)

	unrecorded, err := ListUnrecordedAttempts(database)
	require.NoError(t, err)
	require.Len(t, unrecorded, 1)
	assert.Equal(t, "funding_abc", unrecorded[0].MerchantUID)

	assert.Error(t, UpdateCheckoutAttempt(database, "missing", AttemptFailed, "", "x"))
}

func TestCheckoutAttempts_RejectsUnknownKind(t *testing.T) {
	database := openTestDB(t)

	err := InsertCheckoutAttempt(database, CheckoutAttempt{
		MerchantUID: "x_1",
		Kind:        "gift",
		Amount:      1,
		Method:      "card",
	})
	assert.Error(t, err)
}
