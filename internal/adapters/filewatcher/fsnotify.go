// Package filewatcher turns filesystem notifications for one directory into
// pipeline file events.
package filewatcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

const eventBuffer = 100

// FSNotifyWatcher implements ports.EventSource using fsnotify. The watch is
// not recursive: files that land in subdirectories are not reported.
type FSNotifyWatcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

func NewFSNotifyWatcher(logger *slog.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FSNotifyWatcher{watcher: w, logger: logger}, nil
}

// Watch starts monitoring dir and emits an event for every create or write.
// The channel is closed when ctx ends or the watcher is closed.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan domain.FileEvent, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", dir)
	}
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	events := make(chan domain.FileEvent, eventBuffer)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if ignored(event.Name) {
					continue
				}

				fileEvent := domain.FileEvent{
					Path:        event.Name,
					IsDirectory: isDirectory(event.Name),
					Source:      domain.SourceLive,
				}
				select {
				case events <- fileEvent:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher_error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

// Backfill lists the entries already present in dir in name order.
func (w *FSNotifyWatcher) Backfill(_ context.Context, dir string) ([]domain.FileEvent, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]domain.FileEvent, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if ignored(path) {
			continue
		}
		out = append(out, domain.FileEvent{
			Path:        path,
			IsDirectory: entry.IsDir(),
			Source:      domain.SourceBackfill,
		})
	}
	return out, nil
}

func (w *FSNotifyWatcher) Close() error {
	return w.watcher.Close()
}

// ignored skips hidden entries such as editor swap files and in-progress copies.
func ignored(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
