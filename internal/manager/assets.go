// assets.go tracks the newest modification time across the built-in
// stylesheet source tree. The value is a monotonic input to the base
// digest: any edit to a built-in sheet moves it, wall-clock time never
// enters directly.
package manager

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// manifestName is the file pinning the value in production so a fleet
// of processes agrees on one digest across restarts.
const manifestName = "stylesheet-manifest"

// AssetVersion computes and, in production, pins the max source mtime.
type AssetVersion struct {
	root       string
	manifest   string
	production bool

	mu     sync.Mutex
	pinned int64
	loaded bool
}

// NewAssetVersion creates a tracker over the given asset root.
func NewAssetVersion(root, manifestDir string, production bool) *AssetVersion {
	return &AssetVersion{
		root:       root,
		manifest:   filepath.Join(manifestDir, manifestName),
		production: production,
	}
}

// LastFileUpdated returns the newest source mtime as a Unix timestamp.
// Outside production the tree is scanned every call so local edits are
// picked up; in production the first computed value is pinned to the
// manifest file and reused.
func (a *AssetVersion) LastFileUpdated() int64 {
	if !a.production {
		return a.maxFileMtime()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return a.pinned
	}

	if data, err := os.ReadFile(a.manifest); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64); err == nil {
			a.pinned, a.loaded = v, true
			return v
		}
	}

	mtime := a.maxFileMtime()
	if err := os.MkdirAll(filepath.Dir(a.manifest), 0o755); err == nil {
		if err := os.WriteFile(a.manifest, []byte(strconv.FormatInt(mtime, 10)), 0o644); err != nil {
			slog.Warn("failed to write stylesheet manifest", "path", a.manifest, "error", err)
		}
	}
	a.pinned, a.loaded = mtime, true
	return mtime
}

// Refresh drops the pinned value so the next read rescans. The dev
// watcher calls this when a source file changes.
func (a *AssetVersion) Refresh() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loaded = false
	if a.production {
		if err := os.Remove(a.manifest); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove stylesheet manifest", "path", a.manifest, "error", err)
		}
	}
}

// maxFileMtime walks the asset root for stylesheet sources and returns
// the newest mtime, or 0 when the tree is empty or missing.
func (a *AssetVersion) maxFileMtime() int64 {
	var max int64
	_ = filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".scss" && ext != ".css" {
			return nil
		}
		if info, err := d.Info(); err == nil {
			if mt := info.ModTime().Unix(); mt > max {
				max = mt
			}
		}
		return nil
	})
	return max
}
