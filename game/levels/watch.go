package levels

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch refreshes the pack cache whenever a pack file in the levels directory
// changes. It blocks until ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	if m.dir == "" {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(m.dir); err != nil {
		return err
	}
	log.Info().Str("dir", m.dir).Msg("watching levels directory")

	debounce := newDebouncer(100 * time.Millisecond)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isPackFile(event.Name) {
				continue
			}
			// editors emit bursts of writes for one save
			if !debounce.allow(event.Name, time.Now()) {
				continue
			}

			if err := m.RefreshCache(); err != nil {
				log.Error().Err(err).Str("file", event.Name).Msg("failed to reload packs")
				continue
			}
			log.Info().Str("file", event.Name).Msg("level packs reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("levels watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}

// debouncer drops repeats of a name seen within window
type debouncer struct {
	window time.Duration
	last   map[string]time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, last: make(map[string]time.Time)}
}

func (d *debouncer) allow(name string, now time.Time) bool {
	for n, t := range d.last {
		if now.Sub(t) >= d.window {
			delete(d.last, n)
		}
	}
	if _, seen := d.last[name]; seen {
		return false
	}
	d.last[name] = now
	return true
}
