package portal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	session := &Session{
		PrincipalID:        "42",
		DisplayName:        "Ada Lovelace",
		Email:              "ada@example.com",
		Role:               RoleAdmin,
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

func TestMemoryStoreSaveReplacesPrior(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, &Session{PrincipalID: "1", Role: RoleStudent, Token: "first"}))
	require.NoError(t, store.Save(ctx, &Session{PrincipalID: "2", Role: RoleAdmin, Token: "second"}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", loaded.PrincipalID)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestMemoryStoreRefusesTokenlessSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Save(ctx, &Session{PrincipalID: "42", Role: RoleAdmin})
	assert.True(t, IsStorageError(err))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, &Session{PrincipalID: "42", Role: RoleAdmin, Token: "tok"}))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryStoreCorruptRecordIsAbsence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.mu.Lock()
	store.entries[storeKeySession] = `{"principal_id": 42`
	store.mu.Unlock()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStoreNewerSchemaIsAbsence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, &Session{PrincipalID: "42", Role: RoleAdmin, Token: "tok"}))

	store.mu.Lock()
	store.entries[storeKeySchemaVersion] = "99"
	store.mu.Unlock()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSchemaReadable(t *testing.T) {
	assert.True(t, schemaReadable(""))
	assert.True(t, schemaReadable("1"))
	assert.False(t, schemaReadable("99"))
	assert.False(t, schemaReadable("not-a-number"))
}
