// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Integration tests for the stylesheet serving surface. Skipped when
// PostgreSQL is not available.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"themepress/internal/bus"
	"themepress/internal/compiler"
	"themepress/internal/database"
	"themepress/internal/manager"
	"themepress/internal/models"
	"themepress/internal/resolver"
	"themepress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "postgres://" + envOr("POSTGRES_USER", "themepress") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "themepress") + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

type echoBackend struct{}

func (echoBackend) Compile(req compiler.StyleRequest) (compiler.StyleResult, error) {
	return compiler.StyleResult{CSS: "compiled{" + req.Source + "}", SourceMap: `{"version":3}`}, nil
}

// testServer wires a router over a real manager and returns it with a
// theme whose artifact is already built.
func testServer(t *testing.T, db *sql.DB) (*chi.Mux, *manager.Manager, *models.Theme) {
	t.Helper()

	themes := store.NewThemeStore(db)
	fields := store.NewThemeFieldStore(db)
	schemes := store.NewColorSchemeStore(db)
	categories := store.NewCategoryStore(db)
	cacheStore := store.NewStylesheetCacheStore(db)

	res := resolver.New(resolver.NewStoreSource(themes, fields))
	styles := compiler.NewStyleCompiler(echoBackend{})

	mgr := manager.New(themes, schemes, categories, cacheStore, res, styles, bus.NewMemoryBus(), manager.Options{
		CacheDir:    t.TempDir(),
		AssetRoot:   t.TempDir(),
		ManifestDir: t.TempDir(),
	})

	theme, err := themes.Create(&models.Theme{Name: "test-handler-theme", Enabled: true})
	if err != nil {
		t.Fatalf("create theme: %v", err)
	}
	if _, _, err := fields.Set(theme.ID, models.TargetCommon, models.FieldSCSS, ".h{}"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM themes WHERE id = $1", theme.ID)
		db.Exec("DELETE FROM stylesheet_cache WHERE target = $1", manager.TargetDesktopTheme.Qualified(theme))
	})

	r := chi.NewRouter()
	r.Get("/stylesheets/{name}", NewStylesheets(mgr, false).Show)
	return r, mgr, theme
}

func TestShowServesCSSAndMap(t *testing.T) {
	db := testDB(t)
	r, mgr, theme := testServer(t, db)

	built, err := mgr.GetOrBuild(context.Background(), manager.TargetDesktopTheme, theme.Key.String())
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stylesheets/"+built.Filename(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), ".h{}") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("Last-Modified") == "" {
		t.Error("no Last-Modified header")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stylesheets/"+built.Filename()+".map", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("map status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("map content type = %q", ct)
	}
}

func TestShowDigestlessDevURL(t *testing.T) {
	db := testDB(t)
	r, mgr, theme := testServer(t, db)

	built, err := mgr.GetOrBuild(context.Background(), manager.TargetDesktopTheme, theme.Key.String())
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stylesheets/"+built.QualifiedTarget+".css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ".h{}") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestShowNotModified(t *testing.T) {
	db := testDB(t)
	r, mgr, theme := testServer(t, db)

	built, err := mgr.GetOrBuild(context.Background(), manager.TargetDesktopTheme, theme.Key.String())
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/stylesheets/"+built.Filename(), nil)
	req.Header.Set("If-Modified-Since", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}

	// A stale client timestamp gets the full body.
	req = httptest.NewRequest(http.MethodGet, "/stylesheets/"+built.Filename(), nil)
	req.Header.Set("If-Modified-Since", time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("stale status = %d, want 200", rec.Code)
	}
}

func TestShowNotFound(t *testing.T) {
	db := testDB(t)
	r, _, _ := testServer(t, db)

	for _, name := range []string{
		"desktop_theme_999999999.css",
		"nonsense.css",
		"desktop.txt",
		"desktop_" + strings.Repeat("a", 40) + ".css",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stylesheets/"+name, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", name, rec.Code)
		}
	}
}
