package monitor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"csvwatch/internal/faults"
)

// Watch runs scan passes continuously until the context is canceled. A pass
// is triggered by filesystem events in the watch directory, debounced so a
// burst of writes coalesces into one pass, and by a periodic rescan that
// catches files fsnotify missed. Only fatal errors end the loop.
func (m *Monitor) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "monitor", "watch", "create filesystem watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.cfg.Paths.WatchDir); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "monitor", "watch", "watch directory", err)
	}

	debounce := m.cfg.Debounce()
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	// The timer starts expired; it is armed only by relevant events.
	pending := time.NewTimer(debounce)
	if !pending.Stop() {
		<-pending.C
	}
	defer pending.Stop()

	rescan := time.NewTicker(m.cfg.RescanInterval())
	defer rescan.Stop()

	m.logger.Info("watching for new files",
		"dir", m.cfg.Paths.WatchDir,
		"rescan_interval", m.cfg.RescanInterval(),
		"debounce", debounce)

	// Initial pass picks up whatever is already waiting.
	if err := m.runPass(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("filesystem watcher closed")
			}
			if m.relevantEvent(event) {
				pending.Reset(debounce)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("filesystem watcher closed")
			}
			m.logger.Warn("filesystem watcher error", "error", werr)
		case <-pending.C:
			if err := m.runPass(ctx); err != nil {
				return err
			}
		case <-rescan.C:
			if err := m.runPass(ctx); err != nil {
				return err
			}
		}
	}
}

// runPass executes one scan pass, swallowing transient errors so the watch
// loop keeps going. Fatal errors and cancellation propagate.
func (m *Monitor) runPass(ctx context.Context) error {
	_, err := m.ProcessAll(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || faults.IsFatal(err) {
		return err
	}
	m.logger.Error("scan pass failed", "error", err)
	return nil
}

// relevantEvent reports whether a filesystem event can make a supported file
// newly available: creations, writes, and renames into the directory.
func (m *Monitor) relevantEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	name := strings.ToLower(event.Name)
	for _, ext := range m.cfg.CSV.SupportedExtensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
