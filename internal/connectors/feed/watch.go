package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reports providers whose feed files are created or written.
// The directory is created if it does not exist. Events for one provider
// within the debounce window are reported once.
func (f *Fetcher) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create feed dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", f.dir, err)
	}

	out := make(chan string)
	go f.watchLoop(ctx, w, out)
	return out, nil
}

func (f *Fetcher) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer w.Close()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			provider, changed := handleFsEvent(ev)
			if !changed {
				continue
			}
			f.log.Debug("feed changed: %s (%s)", filepath.Base(ev.Name), ev.Op)
			pending[provider] = struct{}{}
			if fire == nil {
				timer = time.NewTimer(f.debounce)
				fire = timer.C
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.log.Warn("feed watcher: %v", err)

		case <-fire:
			fire = nil
			for _, p := range drain(pending) {
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent maps a filesystem event to the provider whose feed changed.
// Only creates and writes of visible .json files count.
func handleFsEvent(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return providerFor(filepath.Base(ev.Name))
}

// drain empties pending and returns its keys in sorted order.
func drain(pending map[string]struct{}) []string {
	keys := make([]string, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	clear(pending)
	return keys
}
