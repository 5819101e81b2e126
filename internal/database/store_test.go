package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/agentpulse/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "agentpulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, nil)
}

type testLead struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestStoreGetPutDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Ping(ctx))

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, database.KeyTheme, `"dark"`))
	require.NoError(t, store.Put(ctx, database.KeyTheme, `"light"`))

	raw, ok, err := store.Get(ctx, database.KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"light"`, raw)

	require.NoError(t, store.Put(ctx, database.KeyLeads, `[]`))
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{database.KeyLeads, database.KeyTheme}, keys)

	require.NoError(t, store.Delete(ctx, database.KeyTheme))
	require.NoError(t, store.Delete(ctx, database.KeyTheme))
	_, ok, err = store.Get(ctx, database.KeyTheme)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, store.Put(ctx, "", "x"))
}

func TestStoreClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Put(ctx, database.KeyProfile, `{}`))
	require.NoError(t, store.Put(ctx, database.KeyLeads, `[]`))
	require.NoError(t, store.Clear(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestReadFallsBackOnCorruptCollection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Put(ctx, database.KeyLeads, "{not json"))

	got := database.Read(ctx, store, nil, database.KeyLeads, []testLead{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadWriteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	missing := database.Read(ctx, store, nil, database.KeyLeads, []testLead{{ID: "default"}})
	assert.Equal(t, []testLead{{ID: "default"}}, missing)

	leads := []testLead{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bruno"}}
	require.NoError(t, database.Write(ctx, store, database.KeyLeads, leads))

	got := database.Read(ctx, store, nil, database.KeyLeads, []testLead{})
	assert.Equal(t, leads, got)
}

func TestReadFallsBackWhenContextDone(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	require.NoError(t, store.Put(context.Background(), database.KeyTheme, `"light"`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "dark", database.Read(ctx, store, nil, database.KeyTheme, "dark"))
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	require.NoError(t, store.RunSQLMaintenance(context.Background()))
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"storage.db":                         "storage.db",
		"file:storage.db":                    "storage.db",
		"file:data/my%20db.sqlite?_pragma=1": "data/my db.sqlite",
	}
	for in, want := range tests {
		assert.Equal(t, want, database.ExtractDBNameFromPath(in), in)
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "agentpulse.db", want: "file:agentpulse.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29"},
		{in: ":memory:", want: ":memory:"},
		{in: "file:x.db?_pragma=foreign_keys(1)", want: "file:x.db?_pragma=foreign_keys(1)"},
		{in: "x.db?mode=ro", want: "x.db?mode=ro"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, database.DSN(tt.in))
		})
	}

	assert.Equal(t, "data/agentpulse.db", database.ExtractDBNameFromPath(database.DSN("data/agentpulse.db")))
}

func TestNewDBRejectsEmptyPath(t *testing.T) {
	t.Parallel()
	_, err := database.NewDB("")
	require.Error(t, err)
}
