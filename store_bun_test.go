package portal_test

import (
	"context"
	"path/filepath"
	"testing"

	portal "github.com/scholarspace/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *portal.BunStore {
	t.Helper()

	store, err := portal.OpenBunStore(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.DB().Close()
	})
	return store
}

func TestBunStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	session := &portal.Session{
		PrincipalID:        "42",
		DisplayName:        "Ada Lovelace",
		Email:              "ada@example.com",
		Role:               portal.RoleAdmin,
		Token:              "tok-123",
		MustChangePassword: true,
	}

	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestBunStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := portal.OpenBunStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &portal.Session{
		PrincipalID: "42",
		Role:        portal.RoleStudent,
		Token:       "tok-persisted",
	}))
	require.NoError(t, store.DB().Close())

	reopened, err := portal.OpenBunStore(ctx, path)
	require.NoError(t, err)
	defer reopened.DB().Close()

	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "tok-persisted", loaded.Token)
}

func TestBunStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, &portal.Session{PrincipalID: "42", Role: portal.RoleAdmin, Token: "tok"}))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestBunStoreCorruptRecordIsAbsence(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, &portal.Session{PrincipalID: "42", Role: portal.RoleAdmin, Token: "tok"}))

	_, err := store.DB().ExecContext(ctx,
		"UPDATE client_state SET value = ? WHERE key = ?", `{"principal_id": 42`, "session")
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestBunStoreSeedsSchemaVersion(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var version string
	err := store.DB().QueryRowContext(ctx,
		"SELECT value FROM client_state WHERE key = ?", "schema_version").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, "1", version)
}

func TestBunStoreNewerSchemaIsAbsence(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, &portal.Session{PrincipalID: "42", Role: portal.RoleAdmin, Token: "tok"}))

	_, err := store.DB().ExecContext(ctx,
		"UPDATE client_state SET value = ? WHERE key = ?", "2", "schema_version")
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
