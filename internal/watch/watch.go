// Package watch is a thin fsnotify adapter that feeds filesystem-create
// events into the scan/propose path. It is deliberately dumb: no
// categorization or risk scoring happens here, only batching — the
// consumer runs the same Scanner/Planner pipeline a manual "organizer
// scan" would, just on the batch of newly-created paths instead of a
// full directory walk.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher batches filesystem-create events within root over a fixed
// interval before handing the accumulated paths to a callback.
type Watcher struct {
	fsw      *fsnotify.Watcher
	interval time.Duration
}

// New creates a Watcher on root. Non-recursive: subdirectories created
// after Run starts are not automatically watched, matching the rest of
// the pipeline's explicit recursive/non-recursive choice at scan time.
func New(root string, batchInterval time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", root, err)
	}
	if batchInterval <= 0 {
		batchInterval = 5 * time.Second
	}
	return &Watcher{fsw: fsw, interval: batchInterval}, nil
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run watches until ctx is canceled, calling onBatch once per interval
// with the set of paths that had a Create event since the last call.
// Ticks with no new paths are skipped — onBatch never sees an empty
// batch. fsnotify errors are reported through onError and do not stop
// the loop. Run returns ctx.Err() when ctx is canceled, or nil if the
// fsnotify channels are closed.
func (w *Watcher) Run(ctx context.Context, onBatch func([]string), onError func(error)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				pending[event.Name] = struct{}{}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			pending = make(map[string]struct{})
			onBatch(batch)
		}
	}
}
