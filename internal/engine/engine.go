// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine owns the baked-field lifecycle: it resolves raw theme
// fragments across the inheritance graph, bakes them through the field
// compilers under the memoization contract, answers field lookups from
// the process-wide cache, and drives invalidation when themes mutate.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"themepress/internal/bus"
	"themepress/internal/compiler"
	"themepress/internal/manager"
	"themepress/internal/models"
	"themepress/internal/resolver"
	"themepress/internal/store"
)

// themeChangeTopic announces committed theme mutations to any
// interested subscriber (e.g. live-reloading clients).
const themeChangeTopic = "theme-change"

// rebakeConcurrency bounds the parallel RebakeAll pass.
const rebakeConcurrency = 4

// Engine coordinates resolution, baking, lookup caching, and
// invalidation for the whole theme graph.
type Engine struct {
	themes   *store.ThemeStore
	fields   *store.ThemeFieldStore
	schemes  *store.ColorSchemeStore
	cacheLog *store.CacheLogStore
	resolver *resolver.Resolver
	styles   *compiler.StyleCompiler
	markup   *compiler.MarkupCompiler
	manager  *manager.Manager

	lookupCache *bus.DistributedCache
	broadcast   bus.Bus
}

// New creates the engine and binds its lookup cache to the bus.
func New(
	themes *store.ThemeStore,
	fields *store.ThemeFieldStore,
	schemes *store.ColorSchemeStore,
	cacheLog *store.CacheLogStore,
	res *resolver.Resolver,
	styles *compiler.StyleCompiler,
	markup *compiler.MarkupCompiler,
	mgr *manager.Manager,
	b bus.Bus,
) *Engine {
	return &Engine{
		themes:      themes,
		fields:      fields,
		schemes:     schemes,
		cacheLog:    cacheLog,
		resolver:    res,
		styles:      styles,
		markup:      markup,
		manager:     mgr,
		lookupCache: bus.NewDistributedCache("theme", b),
		broadcast:   b,
	}
}

// ResolveField merges the named field across a theme and its
// descendants. Pure read, no baking.
func (e *Engine) ResolveField(themeID int64, target models.Target, name string) (string, error) {
	return e.resolver.ResolveField(themeID, target, name)
}

// CompileStyle compiles theme SCSS against a color scheme. It never
// fails: invalid input yields fallback CSS carrying the error text.
func (e *Engine) CompileStyle(source string, scheme *models.ColorScheme) (css, sourceMap string) {
	return e.styles.CompileTheme(source, scheme, "inline.scss")
}

// CompileMarkupFragment bakes one markup fragment. Same never-fails
// guarantee, per embedded block.
func (e *Engine) CompileMarkupFragment(fragment string) string {
	return e.markup.CompileFragment(fragment)
}

// LookupField returns the baked value of a field for a theme key, or
// the aggregate of all enabled themes under the sentinel key. Results
// are cached process-wide keyed by engine version, so a version bump
// naturally misses.
func (e *Engine) LookupField(ctx context.Context, themeKey string, target models.Target, name string) (string, error) {
	if !models.KnownField(name) {
		return "", fmt.Errorf("unknown theme field %q", name)
	}

	cacheKey := fmt.Sprintf("%s:%s:%s:%d", themeKey, target, name, compiler.Version)
	if v, ok := e.lookupCache.Get(cacheKey); ok {
		return v, nil
	}

	var val string
	var err error
	if themeKey == models.AggregateThemeKey {
		if name == models.FieldSCSS {
			val, err = e.aggregateStylesheet(target)
		}
	} else {
		var theme *models.Theme
		theme, err = e.themes.FindByKey(themeKey)
		if err == nil && theme != nil {
			val, err = e.ensureBaked(theme, target, name)
		}
	}
	if err != nil {
		return "", err
	}

	e.lookupCache.Set(cacheKey, val)
	return val, nil
}

// aggregateStylesheet joins every enabled theme's baked stylesheet for
// a target, ordered by theme name.
func (e *Engine) aggregateStylesheet(target models.Target) (string, error) {
	themes, err := e.themes.ListEnabled()
	if err != nil {
		return "", err
	}

	var parts []string
	for i := range themes {
		baked, err := e.ensureBaked(&themes[i], target, models.FieldSCSS)
		if err != nil {
			return "", err
		}
		if baked != "" {
			parts = append(parts, baked)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// ensureBaked returns the compiled form of a field, recomputing only
// when the memoization contract says the stored value went stale: the
// compiler-version stamp differs, or the resolved source hash differs
// from the last-baked hash.
func (e *Engine) ensureBaked(theme *models.Theme, target models.Target, name string) (string, error) {
	// A stale stamp clears every baked field of the theme exactly once.
	if theme.CompilerVersion != compiler.Version {
		if err := e.fields.ClearBakedForTheme(theme.ID); err != nil {
			return "", err
		}
		if err := e.themes.SetCompilerVersion(theme.ID, compiler.Version); err != nil {
			return "", err
		}
		theme.CompilerVersion = compiler.Version
	}

	source, err := e.resolver.ResolveField(theme.ID, target, name)
	if err != nil {
		return "", err
	}
	if source == "" {
		return "", nil
	}

	// Stylesheets bake against a palette, so the palette's identity and
	// version are part of what the stored hash witnesses.
	var scheme *models.ColorScheme
	hashInput := source
	if name == models.FieldSCSS && theme.ColorSchemeID != nil {
		scheme, err = e.schemes.FindByID(*theme.ColorSchemeID)
		if err != nil {
			slog.Warn("baking without color scheme", "theme_id", theme.ID, "error", err)
		}
		if scheme != nil {
			hashInput = fmt.Sprintf("%s-%d-%d", source, scheme.ID, scheme.Version)
		}
	}
	hash := compiler.SourceHash(hashInput)

	field, err := e.fields.Get(theme.ID, target, name)
	if err != nil {
		return "", err
	}
	if field != nil && field.ValueBaked != nil && field.BakedHash != nil &&
		*field.BakedHash == hash && field.CompilerVersion == compiler.Version {
		return *field.ValueBaked, nil
	}

	baked := e.bake(theme, scheme, name, source)

	// The baked value lives on the theme's own field row. A value
	// contributed purely by descendants has no row to store it on and
	// is recomputed per lookup (the lookup cache absorbs the cost).
	if field != nil {
		if err := e.fields.SaveBaked(field.ID, baked, hash, compiler.Version); err != nil {
			slog.Warn("failed to persist baked field",
				"theme_id", theme.ID, "target", target, "name", name, "error", err)
		}
	}
	return baked, nil
}

// bake compiles resolved source with the compiler matching the field
// kind. Neither path fails past this boundary.
func (e *Engine) bake(theme *models.Theme, scheme *models.ColorScheme, name, source string) string {
	if name != models.FieldSCSS {
		return e.markup.CompileFragment(source)
	}
	css, _ := e.styles.CompileTheme(source, scheme, fmt.Sprintf("theme_%d.scss", theme.ID))
	return css
}

// SetField upserts a field's raw value. A changed value is rebaked
// eagerly and every affected cache tier is invalidated.
func (e *Engine) SetField(ctx context.Context, themeID int64, target models.Target, name, value string) (*models.ThemeField, error) {
	if !models.KnownField(name) {
		return nil, fmt.Errorf("unknown theme field %q", name)
	}
	theme, err := e.themes.FindByID(themeID)
	if err != nil {
		return nil, err
	}
	if theme == nil {
		return nil, fmt.Errorf("theme %d not found", themeID)
	}

	field, changed, err := e.fields.Set(themeID, target, name, value)
	if err != nil {
		return nil, err
	}
	if !changed {
		return field, nil
	}

	if _, err := e.ensureBaked(theme, target, name); err != nil {
		slog.Warn("save-triggered rebake failed", "theme_id", themeID, "error", err)
	}
	e.invalidate(ctx, theme.Key.String(), "update")
	return field, nil
}

// AddChildTheme links child under parent and rebakes the parent, whose
// resolved fields now include the child's.
func (e *Engine) AddChildTheme(ctx context.Context, parentID, childID int64) error {
	parent, err := e.themes.FindByID(parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("theme %d not found", parentID)
	}
	if err := e.themes.AddChild(parentID, childID); err != nil {
		return err
	}

	e.resolver.Clear()
	if err := e.RebakeTheme(ctx, parent); err != nil {
		slog.Warn("rebake after child link failed", "theme_id", parentID, "error", err)
	}
	e.invalidate(ctx, parent.Key.String(), "add_child")
	return nil
}

// RemoveChildTheme unlinks child from parent.
func (e *Engine) RemoveChildTheme(ctx context.Context, parentID, childID int64) error {
	parent, err := e.themes.FindByID(parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("theme %d not found", parentID)
	}
	if err := e.themes.RemoveChild(parentID, childID); err != nil {
		return err
	}

	e.resolver.Clear()
	if err := e.RebakeTheme(ctx, parent); err != nil {
		slog.Warn("rebake after child unlink failed", "theme_id", parentID, "error", err)
	}
	e.invalidate(ctx, parent.Key.String(), "remove_child")
	return nil
}

// SetEnabled toggles a theme and invalidates. The aggregate stylesheet
// changes with the enabled set.
func (e *Engine) SetEnabled(ctx context.Context, themeID int64, enabled bool) error {
	theme, err := e.themes.FindByID(themeID)
	if err != nil {
		return err
	}
	if theme == nil {
		return fmt.Errorf("theme %d not found", themeID)
	}
	if err := e.themes.SetEnabled(themeID, enabled); err != nil {
		return err
	}

	action := "disable"
	if enabled {
		action = "enable"
	}
	e.invalidate(ctx, theme.Key.String(), action)
	return nil
}

// Destroy deletes a theme and invalidates.
func (e *Engine) Destroy(ctx context.Context, themeID int64) error {
	theme, err := e.themes.FindByID(themeID)
	if err != nil {
		return err
	}
	if theme == nil {
		return fmt.Errorf("theme %d not found", themeID)
	}
	if err := e.themes.Delete(themeID); err != nil {
		return err
	}

	e.resolver.Clear()
	e.invalidate(ctx, theme.Key.String(), "destroy")
	return nil
}

// SetColorScheme points a theme at a palette. The theme's compiled
// stylesheets change so its caches drop.
func (e *Engine) SetColorScheme(ctx context.Context, themeID int64, schemeID *int64) error {
	theme, err := e.themes.FindByID(themeID)
	if err != nil {
		return err
	}
	if theme == nil {
		return fmt.Errorf("theme %d not found", themeID)
	}
	if err := e.themes.SetColorScheme(themeID, schemeID); err != nil {
		return err
	}

	theme.ColorSchemeID = schemeID
	if err := e.RebakeTheme(ctx, theme); err != nil {
		slog.Warn("rebake after color scheme change failed", "theme_id", themeID, "error", err)
	}
	e.invalidate(ctx, theme.Key.String(), "set_color_scheme")
	return nil
}

// ColorSchemeColorChanged records a palette edit: the scheme version
// was already bumped by the store; every cached stylesheet digest that
// embeds it is now stale, so the caches clear fleet-wide.
func (e *Engine) ColorSchemeColorChanged(ctx context.Context, schemeID int64) {
	e.lookupCache.Clear(ctx)
	e.manager.Invalidate(ctx)
	e.cacheLog.Log("color_scheme", fmt.Sprintf("%d", schemeID), "update")
	e.publishChange(ctx, models.AggregateThemeKey)
}

// RebakeTheme rebakes every field a theme owns. Fields whose resolved
// source is unchanged are no-ops under the memoization contract.
func (e *Engine) RebakeTheme(_ context.Context, theme *models.Theme) error {
	fields, err := e.fields.ListForTheme(theme.ID)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if _, err := e.ensureBaked(theme, f.Target, f.Name); err != nil {
			return fmt.Errorf("rebake %s/%s: %w", f.Target, f.Name, err)
		}
	}
	return nil
}

// RebakeAll rebakes every theme with bounded parallelism. Used after a
// deploy that bumps the compiler version.
func (e *Engine) RebakeAll(ctx context.Context) error {
	themes, err := e.themes.List()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rebakeConcurrency)
	for i := range themes {
		theme := themes[i]
		g.Go(func() error {
			return e.RebakeTheme(ctx, &theme)
		})
	}
	return g.Wait()
}

// Invalidate drops every cache tier after a committed change to the
// named theme (or the aggregate sentinel). The persistence layer calls
// it after any mutation affecting compiled output.
func (e *Engine) Invalidate(ctx context.Context, themeKeyOrSentinel string) {
	e.invalidate(ctx, themeKeyOrSentinel, "invalidate")
}

// invalidate clears the lookup and tag caches whole rather than by key
// prefix. A child's fields merge into every ancestor's resolved output,
// so a key-scoped eviction would leave ancestor entries serving the
// pre-edit value.
func (e *Engine) invalidate(ctx context.Context, key, action string) {
	e.lookupCache.Clear(ctx)
	e.manager.Invalidate(ctx)
	e.cacheLog.Log("theme", key, action)
	e.publishChange(ctx, key)
}

func (e *Engine) publishChange(ctx context.Context, key string) {
	if err := e.broadcast.Publish(ctx, themeChangeTopic, key); err != nil {
		slog.Warn("theme change broadcast failed", "key", key, "error", err)
	}
}
