package session

import (
	"path/filepath"
	"sync"
	"testing"

	"localfund/internal/db"
	"localfund/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteReadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	store := NewStore(database)

	sess, err := store.Read()
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn())
	assert.Empty(t, store.Token())

	member := model.Member{Email: "lee@example.kr", Nickname: "lee"}
	require.NoError(t, store.Write(Session{AccessToken: "abc", Member: member}))
	assert.Equal(t, "abc", store.Token())

	got, ok := store.Member()
	require.True(t, ok)
	assert.Equal(t, "lee@example.kr", got.Email)

	// A fresh store sees the persisted session.
	reopened := NewStore(database)
	assert.Equal(t, "abc", reopened.Token())

	require.NoError(t, store.Clear())
	assert.Empty(t, store.Token())
	_, ok = store.Member()
	assert.False(t, ok)

	assert.Empty(t, NewStore(database).Token())
}

func TestStore_OnChange(t *testing.T) {
	store := NewStore(nil)

	var seen []string
	store.OnChange(func(s Session) { seen = append(seen, s.AccessToken) })

	require.NoError(t, store.Write(Session{AccessToken: "t1"}))
	require.NoError(t, store.Clear())

	assert.Equal(t, []string{"t1", ""}, seen)
}

func TestStore_SelectedLocationSurvivesLogout(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "loc.db"))
	require.NoError(t, err)
	defer database.Close()

	store := NewStore(database)
	require.NoError(t, store.Write(Session{AccessToken: "t"}))
	require.NoError(t, store.SetSelectedLocation(model.SelectedLocation{Address: "부산 해운대구", Lat: 35.16, Lng: 129.16}))
	require.NoError(t, store.Clear())

	loc, ok, err := NewStore(database).SelectedLocation()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "부산 해운대구", loc.Address)

	require.NoError(t, store.ClearSelectedLocation())
	_, ok, err = store.SelectedLocation()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Write(Session{AccessToken: "tok"})
		}()
		go func() {
			defer wg.Done()
			_ = store.Token()
		}()
	}
	wg.Wait()

	assert.Equal(t, "tok", store.Token())
}

func TestStore_UpdateMember(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "member.db"))
	require.NoError(t, err)
	defer database.Close()

	store := NewStore(database)
	assert.ErrorIs(t, store.UpdateMember(model.Member{Email: "lee@example.kr"}), ErrLoggedOut)

	require.NoError(t, store.Write(Session{AccessToken: "abc", Member: model.Member{Email: "lee@example.kr", Nickname: "lee"}}))
	require.NoError(t, store.UpdateMember(model.Member{Email: "lee@example.kr", Nickname: "이"}))

	got, ok := NewStore(database).Member()
	require.True(t, ok)
	assert.Equal(t, "이", got.Nickname)
	assert.Equal(t, "abc", store.Token())

	assert.ErrorIs(t, store.UpdateMember(model.Member{Email: "kim@example.kr"}), ErrLoggedOut)
	got, _ = store.Member()
	assert.Equal(t, "lee@example.kr", got.Email)
}
