package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/orthologs/pkg/db"
	"github.com/yumyai/orthologs/pkg/handler"
)

func TestLoadConfig_MongoNeedsURI(t *testing.T) {
	t.Setenv("ORTHOLOG_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_UnknownBackend(t *testing.T) {
	t.Setenv("ORTHOLOG_BACKEND", "postgres")

	_, err := loadConfig()
	assert.ErrorIs(t, err, db.ErrUnknownBackend)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ORTHOLOG_BACKEND", "SQLite")
	t.Setenv("ORTHOLOG_QUERY_TIMEOUT", "")
	t.Setenv("ORTHOLOG_ADDR", "")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
}

func TestRouter_SQLiteEndToEnd(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"sc_gene": {"id": "YAL001C", "name": "TFC3"}, "km_gene": {"ids": ["KM_045"]}}
	]`), 0o644))

	ctx := context.Background()
	store, err := openStore(ctx, Config{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(dir, "db", "orthologs.db"),
		SeedPath:   seed,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	srv := httptest.NewServer(NewRouter(handler.NewSearchContext(store, time.Second)))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/v1/search?q=km_045")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload handler.SearchPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Found)
	assert.Equal(t, "K. marxianus", payload.Match.SubjectSpecies)
	assert.Equal(t, "YAL001C", payload.Match.Ortholog.ID)

	health, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	missing, err := http.Get(srv.URL + "/favicon.ico")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestLoadConfig_LogLevel(t *testing.T) {
	t.Setenv("ORTHOLOG_BACKEND", "sqlite")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Config errors still carry the level so the logger can start first.
	t.Setenv("ORTHOLOG_BACKEND", "postgres")
	cfg, err = loadConfig()
	require.Error(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestOpenStore_RetriesSeedAfterFailure(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	cfg := Config{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(dir, "db", "orthologs.db"),
		SeedPath:   seed,
	}
	ctx := context.Background()

	_, err := openStore(ctx, cfg)
	require.Error(t, err, "seed file is missing")

	require.NoError(t, os.WriteFile(seed, []byte(`{"sc_gene": {"id": "YAL001C", "name": "TFC3"}}`), 0o644))

	store, err := openStore(ctx, cfg)
	require.NoError(t, err)

	recs, err := store.Find(ctx, db.Filter{Any: []db.Clause{db.Pattern(db.FieldSCID, "YAL001C")}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NoError(t, store.Close(ctx))

	// A populated store is not seeded a second time.
	store, err = openStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	recs, err = store.Find(ctx, db.Filter{Any: []db.Clause{db.Pattern(db.FieldSCID, "YAL001C")}})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestOpenStore_MalformedSeedLeavesStoreEmpty(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte("{\"sc_gene\": {\"id\": \"YAL001C\"}}\n{\"sc_gene\": "), 0o644))

	cfg := Config{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(dir, "db", "orthologs.db"),
		SeedPath:   seed,
	}
	ctx := context.Background()

	_, err := openStore(ctx, cfg)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(seed, []byte(`{"sc_gene": {"id": "YBR020W"}}`), 0o644))
	store, err := openStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	recs, err := store.Find(ctx, db.Filter{Any: []db.Clause{db.Pattern(db.FieldSCID, "Y")}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "YBR020W", recs[0].SC.Identifier())
}
