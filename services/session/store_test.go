package session_test

import (
	"context"
	"database/sql"
	"testing"

	"hacproxy/lib/telemetry"
	"hacproxy/services/session"

	"github.com/stretchr/testify/require"
)

func testStoreContract(t *testing.T, store session.Store) {
	t.Cleanup(telemetry.SetupForTesting(t, "test:services/session"))

	ctx := context.Background()

	id, err := session.GenerateId()
	require.NoError(t, err)

	_, found, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, found)

	sess := session.Session{Username: "s123456", CookieJar: `{"cookies":[]}`}
	require.NoError(t, store.Put(ctx, id, sess))

	got, found, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, sess, got)

	// overwrite
	sess.CookieJar = `{"cookies":[{"name":"a"}]}`
	require.NoError(t, store.Put(ctx, id, sess))
	got, found, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, sess, got)

	require.NoError(t, store.Destroy(ctx, id))
	_, found, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, found)

	// destroying an unknown id is a no-op
	require.NoError(t, store.Destroy(ctx, "does-not-exist"))
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, session.NewMemoryStore())
}

func TestSqliteStore(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := session.NewSqliteStore(ctx, db)
	require.NoError(t, err)
	testStoreContract(t, store)
}

func TestGenerateIdUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		id, err := session.GenerateId()
		require.NoError(t, err)
		require.False(t, seen[id])
		seen[id] = true
	}
}
