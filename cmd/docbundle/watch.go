package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of file events (editor saves, git
// checkouts) into a single re-assembly.
const debounceWindow = 500 * time.Millisecond

// watchAndBundle assembles the bundle once, then re-assembles it
// whenever an input directory changes, until interrupted. A failing
// assembly in watch mode is logged rather than fatal, so authors can
// fix the input and save again.
func watchAndBundle(ctx context.Context, dirs bundleDirs, opts bundleOptions) error {
	if opts.output == "" {
		return fmt.Errorf("--watch requires --output: stdout cannot be rewritten")
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{dirs.schemaDir, dirs.dataDir, dirs.resourceDir} {
		if err := watchRecursive(watcher, dir); err != nil {
			return err
		}
	}
	if err := watcher.Add(filepath.Dir(dirs.graphqlFile)); err != nil {
		return fmt.Errorf("watch %s: %w", dirs.graphqlFile, err)
	}

	rebuild := func() {
		if err := runBundle(dirs, opts); err != nil {
			slog.Error("Bundle assembly failed", "error", err)
		}
	}
	rebuild()

	slog.Info("Watching for changes", "output", opts.output)

	var debounce *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-signalCtx.Done():
			slog.Info("Received shutdown signal")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories must be added to the watch set.
			if event.Has(fsnotify.Create) {
				_ = watchRecursive(watcher, event.Name)
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		case <-pending:
			rebuild()
		}
	}
}

// watchRecursive adds path and every directory below it to the
// watcher. Non-directories are ignored.
func watchRecursive(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// The path may have been removed between event and walk.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
