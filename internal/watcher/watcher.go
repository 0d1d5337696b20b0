// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package watcher watches the built-in stylesheet source tree in
// development and broadcasts an asset change when a file is written,
// so open pages pick up recompiled CSS without a restart.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses editor write bursts into one broadcast.
const debounce = 200 * time.Millisecond

// Notifier receives the change signal. Satisfied by manager.Manager.
type Notifier interface {
	AssetsChanged(ctx context.Context)
}

// Watcher recursively watches a directory tree for stylesheet edits.
type Watcher struct {
	root     string
	notifier Notifier
	fs       *fsnotify.Watcher
}

// New sets up watches over root and every subdirectory.
func New(root string, notifier Notifier) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: root, notifier: notifier, fs: fs}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fs.Add(path)
		}
		return nil
	})
	if err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			// New directories need their own watch.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fs.Add(event.Name); err != nil {
						slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("stylesheet watcher error", "error", err)
		case <-fire:
			slog.Debug("stylesheet source changed, broadcasting")
			w.notifier.AssetsChanged(ctx)
		}
	}
}

// relevant keeps stylesheet writes and directory creation, ignoring
// editor temp files.
func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) {
		return false
	}
	ext := filepath.Ext(event.Name)
	if ext == ".scss" || ext == ".css" {
		return true
	}
	// Creation events for directories carry no extension.
	return event.Op.Has(fsnotify.Create) && !strings.Contains(filepath.Base(event.Name), ".")
}
