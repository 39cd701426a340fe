package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher monitors the run's input files and reports changes after a
// debounce window, so editors that write in bursts trigger one rerun.
type Watcher struct {
	paths    []string
	onChange chan string
	onError  chan error
	debounce time.Duration
	log      zerolog.Logger
}

// NewWatcher creates a watcher for the given input paths.
func NewWatcher(paths []string, log zerolog.Logger) *Watcher {
	return &Watcher{
		paths:    paths,
		onChange: make(chan string, 1),
		onError:  make(chan error, 1),
		debounce: 100 * time.Millisecond,
		log:      log.With().Str("component", "watcher").Logger(),
	}
}

// Changes returns the channel that receives a changed path once per
// debounce window.
func (w *Watcher) Changes() <-chan string {
	return w.onChange
}

// Errors returns the channel that receives watch failures.
func (w *Watcher) Errors() <-chan error {
	return w.onError
}

// Start begins watching. It fails if any input path cannot be watched.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, path := range w.paths {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	w.log.Debug().Strs("paths", w.paths).Msg("started watching input files")
	go w.watchLoop(ctx, watcher)
	return nil
}

// watchLoop handles file system events.
func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var debounceTimer *time.Timer
	var debounceChan <-chan time.Time
	var lastPath string

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.log.Debug().Msg("input watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Only react to write and create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("input change detected")
			lastPath = event.Name

			// Debounce rapid changes
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceChan = debounceTimer.C

		case <-debounceChan:
			debounceChan = nil
			select {
			case w.onChange <- lastPath:
			default:
				// a rerun is already pending, drop the duplicate
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
			select {
			case w.onError <- err:
			default:
			}
		}
	}
}
