package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbertrand/plume/internal/models"
)

func testSession() models.Session {
	return models.Session{
		Token: "tok-123",
		User: models.User{
			ID:       7,
			Username: "marie",
			Email:    "marie@example.com",
			Roles:    []string{"ROLE_USER"},
		},
		ExpiresAt: "2026-01-02T15:04:05Z",
	}
}

func TestMemoryStore_SaveAndClear(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	assert.False(t, st.IsAuthenticated())
	assert.Nil(t, st.CurrentUser())
	assert.Nil(t, st.Session())

	require.NoError(t, st.Save(testSession()))
	assert.True(t, st.IsAuthenticated())

	u := st.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "marie", u.Username)

	require.NoError(t, st.Clear())
	assert.False(t, st.IsAuthenticated())
	assert.Nil(t, st.Session())
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	require.NoError(t, st.Save(testSession()))

	s := st.Session()
	s.Token = "mutated"
	assert.Equal(t, "tok-123", st.Session().Token)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.db")
	st, err := OpenFileStore(path)
	require.NoError(t, err)

	assert.False(t, st.IsAuthenticated())

	sess := testSession()
	require.NoError(t, st.Save(sess))

	got := st.Session()
	require.NotNil(t, got)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.User, got.User)
	assert.Equal(t, sess.ExpiresAt, got.ExpiresAt)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.db")
	st, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(testSession()))

	st2, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.True(t, st2.IsAuthenticated())

	u := st2.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, []string{"ROLE_USER"}, u.Roles)
}

func TestFileStore_ClearRemovesToken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.db")
	st, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(testSession()))

	require.NoError(t, st.Clear())
	assert.False(t, st.IsAuthenticated())
	assert.Nil(t, st.Session())

	// Still gone after reopen: the delete is durable.
	st2, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.False(t, st2.IsAuthenticated())
}

func TestFileStore_SaveReplacesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.db")
	st, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(testSession()))

	next := testSession()
	next.Token = "tok-456"
	next.User.Username = "paul"
	require.NoError(t, st.Save(next))

	got := st.Session()
	require.NotNil(t, got)
	assert.Equal(t, "tok-456", got.Token)
	assert.Equal(t, "paul", got.User.Username)
}

func TestOpenFileStore_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := OpenFileStore("")
	require.Error(t, err)
}
