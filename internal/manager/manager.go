// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package manager is the artifact cache: it decides (via the digest)
// whether a target needs recompiling, compiles on miss, and keeps the
// three storage tiers in step — the process-wide tag cache, the durable
// stylesheet_cache rows, and the on-disk files served to browsers.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"themepress/internal/bus"
	"themepress/internal/compiler"
	"themepress/internal/models"
	"themepress/internal/resolver"
	"themepress/internal/store"
)

// ErrNotFound reports a target that has no cached artifact and no way
// to build one, e.g. a theme target for an unknown theme key.
var ErrNotFound = errors.New("stylesheet not found")

// assetChangeTopic broadcasts edits to the built-in source tree.
const assetChangeTopic = "asset-change"

// Artifact is one compiled stylesheet ready to serve.
type Artifact struct {
	Target          Target
	QualifiedTarget string
	Digest          string
	CSS             []byte
	SourceMap       string
	CreatedAt       time.Time
}

// Filename returns the digest-suffixed artifact filename.
func (a *Artifact) Filename() string {
	return fmt.Sprintf("%s_%s.css", a.QualifiedTarget, a.Digest)
}

// Options carries the environment knobs the manager needs.
type Options struct {
	CacheDir    string
	AssetRoot   string
	ManifestDir string
	CDNURL      string
	Hostname    string
	Production  bool
}

// Manager builds and caches compiled stylesheets.
type Manager struct {
	themes     *store.ThemeStore
	schemes    *store.ColorSchemeStore
	categories *store.CategoryStore
	cacheStore *store.StylesheetCacheStore
	resolver   *resolver.Resolver
	styles     *compiler.StyleCompiler
	assets     *AssetVersion
	tagCache   *bus.DistributedCache
	broadcast  bus.Bus
	opts       Options

	// serializes check-disk / compile / write-disk so concurrent
	// misses for one target cannot race on the same file. Does not
	// span bus publishes.
	mu sync.Mutex
}

// New creates a manager and subscribes it to asset-change broadcasts.
func New(
	themes *store.ThemeStore,
	schemes *store.ColorSchemeStore,
	categories *store.CategoryStore,
	cacheStore *store.StylesheetCacheStore,
	res *resolver.Resolver,
	styles *compiler.StyleCompiler,
	b bus.Bus,
	opts Options,
) *Manager {
	m := &Manager{
		themes:     themes,
		schemes:    schemes,
		categories: categories,
		cacheStore: cacheStore,
		resolver:   res,
		styles:     styles,
		assets:     NewAssetVersion(opts.AssetRoot, opts.ManifestDir, opts.Production),
		tagCache:   bus.NewDistributedCache("stylesheet", b),
		broadcast:  b,
		opts:       opts,
	}
	b.Subscribe(assetChangeTopic, func(string) { m.assets.Refresh() })
	return m
}

// Digest returns the current digest for a target. themeKey is required
// for theme targets and optional for base targets (it selects the
// color scheme).
func (m *Manager) Digest(target Target, themeKey string) (string, error) {
	theme, err := m.lookupTheme(target, themeKey)
	if err != nil {
		return "", err
	}
	return m.digest(target, theme)
}

func (m *Manager) lookupTheme(target Target, themeKey string) (*models.Theme, error) {
	if themeKey == "" || themeKey == models.AggregateThemeKey {
		if target.IsTheme() {
			return nil, ErrNotFound
		}
		return nil, nil
	}
	theme, err := m.themes.FindByKey(themeKey)
	if err != nil {
		return nil, fmt.Errorf("manager lookup theme: %w", err)
	}
	if theme == nil && target.IsTheme() {
		return nil, ErrNotFound
	}
	return theme, nil
}

func (m *Manager) digest(target Target, theme *models.Theme) (string, error) {
	if target.IsTheme() {
		scss, err := m.resolver.ResolveField(theme.ID, target.FieldTarget(), models.FieldSCSS)
		if err != nil {
			return "", err
		}
		return themeDigest(scss), nil
	}

	scheme, err := m.schemeFor(theme)
	if err != nil {
		return "", err
	}
	categoryUpdated, err := m.categories.LastBackgroundUpdate()
	if err != nil {
		return "", err
	}
	return baseDigest(scheme, m.assets.LastFileUpdated(), categoryUpdated, m.opts.CDNURL), nil
}

func (m *Manager) schemeFor(theme *models.Theme) (*models.ColorScheme, error) {
	if theme == nil || theme.ColorSchemeID == nil {
		return nil, nil
	}
	scheme, err := m.schemes.FindByID(*theme.ColorSchemeID)
	if err != nil {
		return nil, fmt.Errorf("manager lookup color scheme: %w", err)
	}
	return scheme, nil
}

// GetOrBuild returns the artifact for (target, themeKey), compiling and
// caching it when the current digest has no entry yet. A durable-store
// write failure is logged and does not fail the compiled result.
func (m *Manager) GetOrBuild(ctx context.Context, target Target, themeKey string) (*Artifact, error) {
	theme, err := m.lookupTheme(target, themeKey)
	if err != nil {
		return nil, err
	}
	return m.getOrBuild(ctx, target, theme)
}

func (m *Manager) getOrBuild(ctx context.Context, target Target, theme *models.Theme) (*Artifact, error) {
	digest, err := m.digest(target, theme)
	if err != nil {
		return nil, err
	}
	qualified := target.Qualified(theme)

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, err := m.cacheStore.FindByDigest(qualified, digest); err != nil {
		slog.Warn("stylesheet cache lookup failed", "target", qualified, "error", err)
	} else if entry != nil {
		m.materialize(qualified, digest, entry)
		return artifactFromEntry(target, entry), nil
	}

	css, sourceMap := m.compile(ctx, target, theme)

	if err := os.MkdirAll(m.opts.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	cssPath := StylesheetPath(m.opts.CacheDir, qualified, digest)
	if err := os.WriteFile(cssPath, []byte(css), 0o644); err != nil {
		return nil, fmt.Errorf("write stylesheet: %w", err)
	}
	if sourceMap != "" {
		if err := os.WriteFile(cssPath+".map", []byte(sourceMap), 0o644); err != nil {
			slog.Warn("failed to write source map", "path", cssPath+".map", "error", err)
		}
	}
	if !m.opts.Production {
		// digestless copy, only for auto-reloading css in dev
		if err := os.WriteFile(DigestlessPath(m.opts.CacheDir, qualified), []byte(css), 0o644); err != nil {
			slog.Warn("failed to write digestless stylesheet", "target", qualified, "error", err)
		}
	}

	var smap *string
	if sourceMap != "" {
		smap = &sourceMap
	}
	if err := m.cacheStore.Add(qualified, digest, css, smap); err != nil {
		slog.Warn("failed to add stylesheet cache entry", "target", qualified, "digest", digest, "error", err)
	}

	slog.Debug("stylesheet compiled", "target", qualified, "digest", digest, "bytes", len(css))
	return &Artifact{
		Target:          target,
		QualifiedTarget: qualified,
		Digest:          digest,
		CSS:             []byte(css),
		SourceMap:       sourceMap,
		CreatedAt:       time.Now(),
	}, nil
}

// compile produces CSS for the target. It never fails: compile errors
// come back as fallback CSS displaying the error.
func (m *Manager) compile(_ context.Context, target Target, theme *models.Theme) (css, sourceMap string) {
	scheme, err := m.schemeFor(theme)
	if err != nil {
		slog.Warn("compiling without color scheme", "target", target, "error", err)
	}

	if target.IsTheme() {
		scss, err := m.resolver.ResolveField(theme.ID, target.FieldTarget(), models.FieldSCSS)
		if err != nil {
			return compiler.ErrorCSS(err, string(target)), ""
		}
		return m.styles.CompileTheme(scss, scheme, fmt.Sprintf("theme_%d.scss", theme.ID))
	}

	source, err := os.ReadFile(filepath.Join(m.opts.AssetRoot, string(target)+".scss"))
	if err != nil {
		return compiler.ErrorCSS(err, string(target)+" stylesheet"), ""
	}

	categories, err := m.categories.WithBackgrounds()
	if err != nil {
		slog.Warn("compiling without category backgrounds", "target", target, "error", err)
	}

	result, err := m.styles.Compile(compiler.StyleRequest{
		Source:    string(source),
		Filename:  string(target) + ".scss",
		Imports:   compiler.NewImports(scheme, categories, m.opts.CDNURL),
		SourceMap: true,
	})
	if err != nil {
		slog.Error("failed to compile stylesheet", "target", target, "error", err)
		return compiler.ErrorCSS(err, string(target)+" stylesheet"), ""
	}
	return result.CSS, result.SourceMap
}

// materialize rewrites the on-disk file from a durable entry when it is
// missing. Overwrites are idempotent, identical content.
func (m *Manager) materialize(qualified, digest string, entry *models.StylesheetCacheEntry) {
	path := StylesheetPath(m.opts.CacheDir, qualified, digest)
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := os.MkdirAll(m.opts.CacheDir, 0o755); err != nil {
		slog.Warn("failed to create cache dir", "error", err)
		return
	}
	if err := os.WriteFile(path, []byte(entry.Content), 0o644); err != nil {
		slog.Warn("failed to materialize stylesheet", "path", path, "error", err)
		return
	}
	if entry.SourceMap != nil {
		if err := os.WriteFile(path+".map", []byte(*entry.SourceMap), 0o644); err != nil {
			slog.Warn("failed to materialize source map", "path", path+".map", "error", err)
		}
	}
}

func artifactFromEntry(target Target, entry *models.StylesheetCacheEntry) *Artifact {
	sourceMap := ""
	if entry.SourceMap != nil {
		sourceMap = *entry.SourceMap
	}
	return &Artifact{
		Target:          target,
		QualifiedTarget: entry.Target,
		Digest:          entry.Digest,
		CSS:             []byte(entry.Content),
		SourceMap:       sourceMap,
		CreatedAt:       entry.CreatedAt,
	}
}

// Serve resolves a request for a named artifact. With a digest the
// durable store is authoritative: a found row is materialized to disk
// and returned; a lost row is healed from the disk copy when one
// survives. Without a digest (dev digestless URLs) the latest entry is
// served, rebuilding from scratch when nothing is cached yet.
func (m *Manager) Serve(ctx context.Context, qualifiedTarget, digest string) (*Artifact, error) {
	target, theme, ok := m.parseQualified(qualifiedTarget)
	if !ok {
		return nil, ErrNotFound
	}

	if digest != "" {
		entry, err := m.cacheStore.FindByDigest(qualifiedTarget, digest)
		if err != nil {
			return nil, fmt.Errorf("serve stylesheet: %w", err)
		}
		if entry != nil {
			m.materialize(qualifiedTarget, digest, entry)
			return artifactFromEntry(target, entry), nil
		}

		// The row was pruned but the file may still exist; re-add it so
		// the next request finds the store consistent again.
		data, err := os.ReadFile(StylesheetPath(m.opts.CacheDir, qualifiedTarget, digest))
		if err != nil {
			return nil, ErrNotFound
		}
		if err := m.cacheStore.Add(qualifiedTarget, digest, string(data), nil); err != nil {
			slog.Warn("failed to heal stylesheet cache entry", "target", qualifiedTarget, "digest", digest, "error", err)
		}
		return &Artifact{
			Target:          target,
			QualifiedTarget: qualifiedTarget,
			Digest:          digest,
			CSS:             data,
			CreatedAt:       time.Now(),
		}, nil
	}

	entry, err := m.cacheStore.Latest(qualifiedTarget)
	if err != nil {
		return nil, fmt.Errorf("serve stylesheet: %w", err)
	}
	if entry != nil {
		return artifactFromEntry(target, entry), nil
	}
	return m.getOrBuild(ctx, target, theme)
}

// parseQualified recovers the target and the theme scope from a
// qualified name such as "desktop", "desktop_3", or "desktop_theme_42".
// A base-target suffix is a color scheme id; the returned stand-in
// theme carries it so a rebuild stays scoped to that scheme.
func (m *Manager) parseQualified(qualified string) (Target, *models.Theme, bool) {
	if t, ok := ParseTarget(qualified); ok {
		return t, nil, true
	}
	i := strings.LastIndex(qualified, "_")
	if i <= 0 {
		return "", nil, false
	}
	t, ok := ParseTarget(qualified[:i])
	if !ok {
		return "", nil, false
	}
	id, err := strconv.ParseInt(qualified[i+1:], 10, 64)
	if err != nil {
		return "", nil, false
	}
	if !t.IsTheme() {
		return t, &models.Theme{ColorSchemeID: &id}, true
	}
	theme, err := m.themes.FindByID(id)
	if err != nil || theme == nil {
		return "", nil, false
	}
	return t, theme, true
}

// LinkTag returns the pre-rendered link tag for (target, themeKey),
// serving it from the process-wide tag cache when possible.
func (m *Manager) LinkTag(ctx context.Context, target Target, themeKey string) (string, error) {
	cacheKey := tagCacheKey(target, themeKey)
	if tag, ok := m.tagCache.Get(cacheKey); ok {
		return tag, nil
	}

	artifact, err := m.GetOrBuild(ctx, target, themeKey)
	if err != nil {
		return "", err
	}

	var href string
	if m.opts.Production {
		href = fmt.Sprintf("%s/stylesheets/%s?__ws=%s", m.opts.CDNURL, artifact.Filename(), m.opts.Hostname)
	} else {
		// digestless path so the browser picks up dev recompiles
		href = fmt.Sprintf("/stylesheets/%s.css", artifact.QualifiedTarget)
	}
	tag := fmt.Sprintf(`<link href=%q media="all" rel="stylesheet" />`, href)

	m.tagCache.Set(cacheKey, tag)
	return tag, nil
}

func tagCacheKey(target Target, themeKey string) string {
	if themeKey == "" {
		themeKey = "default"
	}
	return themeKey + ":" + string(target)
}

// Invalidate evicts the whole tag cache in every process. Eviction is
// never per key: a theme's fields merge into every ancestor's compiled
// output, so any theme mutation can stale any other theme's tag.
func (m *Manager) Invalidate(ctx context.Context) {
	m.tagCache.Clear(ctx)
}

// AssetsChanged reacts to an edit of the built-in source tree: every
// process rescans the tree and drops its tag cache.
func (m *Manager) AssetsChanged(ctx context.Context) {
	if err := m.broadcast.Publish(ctx, assetChangeTopic, ""); err != nil {
		slog.Warn("asset change broadcast failed", "error", err)
	}
	m.tagCache.Clear(ctx)
}

// FreshSince reports whether a client that saw the target at
// clientTime is still fresh, without recompiling: fresh when the
// durable store's recorded creation time for the matching entry is not
// newer than clientTime.
func (m *Manager) FreshSince(qualifiedTarget, digest string, clientTime time.Time) (bool, error) {
	var entry *models.StylesheetCacheEntry
	var err error
	if digest != "" {
		entry, err = m.cacheStore.FindByDigest(qualifiedTarget, digest)
	} else {
		entry, err = m.cacheStore.Latest(qualifiedTarget)
	}
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	return !entry.CreatedAt.After(clientTime), nil
}

// CacheDir exposes the artifact directory for the serving layer.
func (m *Manager) CacheDir() string { return m.opts.CacheDir }

// StylesheetPath is the digest-suffixed artifact path.
func StylesheetPath(cacheDir, qualifiedTarget, digest string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s_%s.css", qualifiedTarget, digest))
}

// DigestlessPath is the dev convenience copy path.
func DigestlessPath(cacheDir, qualifiedTarget string) string {
	return filepath.Join(cacheDir, qualifiedTarget+".css")
}
