package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	appLog "tutorpage/internal/log"
)

const defaultReloadDebounce = 300 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands every
// valid new version to onChange. Invalid edits are logged and ignored, so the
// last good config stays active.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(*Config)
}

// NewWatcher watches the directory containing path. Editors often replace a
// file by renaming over it, which a watch on the file itself would miss.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: defaultReloadDebounce,
		onChange: onChange,
	}, nil
}

// Run processes file events until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Debounce rapid saves.
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			appLog.Error("config watcher error", err, "path", w.path)

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		appLog.Error("config reload failed; keeping previous config", err, "path", w.path)
		return
	}
	cfg, err := Parse(data)
	if err != nil {
		appLog.Error("config reload failed; keeping previous config", err, "path", w.path)
		return
	}
	if err := cfg.Validate(); err != nil {
		appLog.Error("config reload rejected; keeping previous config", err, "path", w.path)
		return
	}
	appLog.Info("config reloaded", "path", w.path, "office_hours", len(cfg.OfficeHours))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
