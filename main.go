package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yumyai/orthologs/internal/util"
	"github.com/yumyai/orthologs/logger"
	"github.com/yumyai/orthologs/pkg/db"
	"github.com/yumyai/orthologs/pkg/handler"
	"github.com/yumyai/orthologs/pkg/metrics"
	"github.com/yumyai/orthologs/pkg/middle"
)

const VERSION = "0.1.0"

type Config struct {
	Backend      string
	MongoURI     string
	Database     string
	Collection   string
	SQLitePath   string
	SQLiteFTS    bool
	SeedPath     string
	Addr         string
	LogLevel     string
	QueryTimeout time.Duration
}

// loadConfig reads the environment after .env has been applied.
func loadConfig() (Config, error) {
	cfg := Config{
		Backend:      strings.ToLower(util.Getenv("ORTHOLOG_BACKEND", "mongo")),
		MongoURI:     os.Getenv("MONGO_URI"),
		Database:     util.Getenv("ORTHOLOG_DB", db.DefaultMongoDatabase),
		Collection:   util.Getenv("ORTHOLOG_COLLECTION", db.DefaultMongoCollection),
		SQLitePath:   util.Getenv("ORTHOLOG_SQLITE", "./data/db/orthologs.db"),
		SQLiteFTS:    util.Getenv("ORTHOLOG_SQLITE_FTS", "true") != "false",
		SeedPath:     os.Getenv("ORTHOLOG_SEED"),
		Addr:         util.Getenv("ORTHOLOG_ADDR", "0.0.0.0:8080"),
		LogLevel:     util.Getenv("LOG_LEVEL", "info"),
		QueryTimeout: util.GetenvDuration("ORTHOLOG_QUERY_TIMEOUT", 10*time.Second),
	}

	switch cfg.Backend {
	case "mongo":
		if cfg.MongoURI == "" {
			return cfg, fmt.Errorf("MONGO_URI not found in environment. Ensure .env exists and defines MONGO_URI")
		}
	case "sqlite":
	default:
		return cfg, fmt.Errorf("%w: %q", db.ErrUnknownBackend, cfg.Backend)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg Config) (db.Store, error) {
	switch cfg.Backend {
	case "mongo":
		return db.NewMongoStore(cfg.MongoURI, cfg.Database, cfg.Collection)
	case "sqlite":
		if err := util.EnsureParentDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		store, err := db.OpenSQLiteStore(ctx, cfg.SQLitePath, cfg.SQLiteFTS)
		if err != nil {
			return nil, err
		}
		if cfg.SeedPath != "" {
			if err := seedStore(ctx, store, cfg.SeedPath); err != nil {
				store.Close(ctx)
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", db.ErrUnknownBackend, cfg.Backend)
	}
}

// seedStore imports path into an empty store. A store that already holds
// documents is left alone.
func seedStore(ctx context.Context, store *db.SQLiteStore, path string) error {
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	n, err = store.ImportJSON(ctx, f)
	if err != nil {
		return err
	}
	logger.Info("Seeded ortholog database", zap.String("seed", path), zap.Int("documents", n))
	return nil
}

func main() {

	// Try load env
	dotenvErr := godotenv.Load()

	// Config is read before the logger so LOG_LEVEL applies from the start.
	cfg, cfgErr := loadConfig()

	if err := logger.InitLogger(logger.ParseLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	if dotenvErr != nil {
		logger.Warn("No .env found, using local environment")
	}
	if err := cfgErr; err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open ortholog store", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer store.Close(ctx)

	sctx := handler.NewSearchContext(store, cfg.QueryTimeout)

	logger.Info("Start:", zap.String("Version", VERSION), zap.String("backend", cfg.Backend))

	mux := NewRouter(sctx)
	app := middle.Chain(mux,
		middle.RequestIDMiddleware(logger.L()),
		middle.LoggingMiddleware(logger.L()),
		metrics.Middleware(),
	)

	logger.Info("Server starting on", zap.String("addr", cfg.Addr))
	httpErr := http.ListenAndServe(cfg.Addr, app)
	if httpErr != nil {
		logger.Error("Error starting server:", zap.String("error message", httpErr.Error()))
	}
}

func NewRouter(sctx *handler.SearchContext) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Main routes
	mux.HandleFunc("GET /{$}", sctx.SearchPage)
	mux.HandleFunc("GET /search", sctx.SearchPage)

	// API routes
	mux.HandleFunc("GET /api/v1/search", sctx.SearchAPI)
	mux.HandleFunc("GET /api/v1/health", sctx.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
