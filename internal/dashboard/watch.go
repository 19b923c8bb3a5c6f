package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch calls refresh whenever a file in dir whose name starts with prefix
// changes, coalescing bursts of events within debounce. SQLite shared-memory
// files are ignored because readers touch them. refresh runs on the calling
// goroutine, one call at a time. Watch blocks until ctx is done or the
// watcher fails.
func Watch(ctx context.Context, dir, prefix string, debounce time.Duration, refresh func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// The timer only signals; refresh runs on this goroutine so redraws
	// never overlap.
	due := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, prefix) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case due <- struct{}{}:
				default:
				}
			})
		case <-due:
			if ctx.Err() == nil {
				refresh()
			}
		}
	}
}

func relevant(ev fsnotify.Event, prefix string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".tmp-") || strings.HasSuffix(name, "-shm") || strings.HasSuffix(name, "-journal") {
		return false
	}
	return strings.HasPrefix(name, prefix)
}
