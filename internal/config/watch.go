package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is the quiet period after the last change to the config file
// before it is reloaded.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the configuration file when it changes.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Config)

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once

	timerMu sync.Mutex
	timer   *time.Timer
}

// Watch starts watching the file at path. onChange runs with the parsed
// configuration after every successful reload. Invalid files are logged and
// skipped.
//
// The parent directory is watched rather than the file itself, so editors that
// replace the file with a rename are picked up.
func Watch(path string, debounce time.Duration, onChange func(*Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		path:      filepath.Clean(path),
		debounce:  debounce,
		onChange:  onChange,
		fsWatcher: fsWatcher,
		done:      make(chan struct{}),
	}

	go w.processEvents()

	log.Debug().Str("path", path).Msg("Watching config file")
	return w, nil
}

// Stop stops the watcher. Pending reloads are discarded.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
	})
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

// handleEvent schedules a reload on write, create, and rename of the file.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	cfg, err := Load(w.path)
	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("Failed to reload config, keeping previous")
		return
	}

	log.Info().Str("path", w.path).Int("presets", len(cfg.Presets)).Msg("Config reloaded")
	w.onChange(cfg)
}
