// Package main is the entry point for the themepress server. It loads
// configuration, connects to services, wires the compilation pipeline,
// and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"themepress/internal/bus"
	"themepress/internal/compiler"
	"themepress/internal/config"
	"themepress/internal/database"
	"themepress/internal/engine"
	"themepress/internal/handlers"
	"themepress/internal/manager"
	"themepress/internal/resolver"
	"themepress/internal/router"
	"themepress/internal/store"
	"themepress/internal/watcher"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey, the cross-process invalidation bus. Without it
	// cache eviction broadcasts stay in-process, which is only safe for
	// a single instance — production requires it.
	var b bus.Bus
	valkeyClient, err := bus.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		if cfg.IsProduction() {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		slog.Warn("valkey unavailable, using in-process bus", "error", err)
		b = bus.NewMemoryBus()
	} else {
		defer valkeyClient.Close()
		valkeyBus := bus.NewValkeyBus(valkeyClient)
		defer valkeyBus.Close()
		b = valkeyBus
	}

	// Initialize data stores.
	themeStore := store.NewThemeStore(db)
	fieldStore := store.NewThemeFieldStore(db)
	schemeStore := store.NewColorSchemeStore(db)
	categoryStore := store.NewCategoryStore(db)
	cacheStore := store.NewStylesheetCacheStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	// Resolver over the theme graph.
	res := resolver.New(resolver.NewStoreSource(themeStore, fieldStore))

	// Compilation pipeline: dart-sass for stylesheets, the runtime
	// precompiler and syntax-checked transpiler for markup fragments.
	sassBackend, err := compiler.NewDartSassBackend(cfg.DartSassBin, cfg.AssetRoot)
	if err != nil {
		slog.Error("failed to start dart-sass", "error", err)
		os.Exit(1)
	}
	defer sassBackend.Close()

	styles := compiler.NewStyleCompiler(sassBackend)
	markup := compiler.NewMarkupCompiler(compiler.RuntimePrecompiler{}, compiler.SyntaxCheckedTranspiler{})

	// Artifact cache manager.
	mgr := manager.New(themeStore, schemeStore, categoryStore, cacheStore, res, styles, b, manager.Options{
		CacheDir:    cfg.CacheDir,
		AssetRoot:   cfg.AssetRoot,
		ManifestDir: cfg.ManifestDir,
		CDNURL:      cfg.CDNURL,
		Hostname:    cfg.Hostname,
		Production:  cfg.IsProduction(),
	})

	// The baked-field engine.
	eng := engine.New(themeStore, fieldStore, schemeStore, cacheLogStore, res, styles, markup, mgr, b)

	// A deploy can ship a new compiler version; rebake everything up
	// front so the first requests don't pay for it.
	rebakeCtx, cancelRebake := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := eng.RebakeAll(rebakeCtx); err != nil {
		slog.Warn("startup rebake incomplete", "error", err)
	}
	cancelRebake()

	// Watch the built-in SCSS tree in development for live recompiles.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if cfg.IsDev() {
		w, err := watcher.New(cfg.AssetRoot, mgr)
		if err != nil {
			slog.Warn("stylesheet watcher disabled", "root", cfg.AssetRoot, "error", err)
		} else {
			go w.Run(watchCtx)
		}
	}

	// Set up the Chi router.
	stylesheets := handlers.NewStylesheets(mgr, cfg.IsProduction())
	r := router.New(stylesheets)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate a cold-cache compile of a large theme.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
