package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startWatcher wires an fsnotify watcher on the incoming folder and returns a
// channel that fires when a supported file lands, letting Run cut its delay
// short. A watcher failure degrades to pure polling; it is never fatal.
func (l *Loop) startWatcher(ctx context.Context) <-chan struct{} {
	wake := make(chan struct{}, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		l.log.Warnw("fsnotify unavailable, polling only", "error", err)
		return wake
	}
	if err := w.Add(l.cfg.IncomingDir); err != nil {
		l.log.Warnw("cannot watch incoming folder, polling only", "dir", l.cfg.IncomingDir, "error", err)
		_ = w.Close()
		return wake
	}
	l.log.Infow("watching incoming folder", "dir", l.cfg.IncomingDir)

	go func() {
		defer func() {
			if err := w.Close(); err != nil {
				l.log.Warnw("watcher close failed", "error", err)
			}
		}()

		var timer *time.Timer
		notify := func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !l.allowed(e.Name) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				// Debounce: a file being written emits a burst of events.
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(l.cfg.Debounce, notify)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.log.Warnw("watcher error", "error", err)
			}
		}
	}()

	return wake
}

func (l *Loop) allowed(path string) bool {
	if l.cfg.AllowedExts == nil {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := l.cfg.AllowedExts[ext]
	return ok
}
