package skill

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jcc-ne/mcp-skill-server/internal/logging"
)

// reloadDebounce coalesces bursts of filesystem events (editors often write
// a manifest several times in quick succession).
const reloadDebounce = 500 * time.Millisecond

// Watcher reloads the skill set when SKILL.md files change under the
// loader's base path.
type Watcher struct {
	watcher *fsnotify.Watcher
	loader  *Loader
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// NewWatcher creates a watcher over the loader's base directory and every
// skill directory currently loaded.
func NewWatcher(loader *Loader) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(loader.BasePath()); err != nil {
		w.Close()
		return nil, err
	}
	for _, s := range loader.Skills() {
		// Best effort; a missing directory just means no events from it.
		_ = w.Add(s.Directory)
	}

	return &Watcher{
		watcher: w,
		loader:  loader,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for manifest changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	log := logging.Component("watcher")

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				// A new directory under the base may be a skill being
				// dropped in; watch it and rescan.
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(ev.Name)
				} else if !strings.HasSuffix(ev.Name, ManifestName) {
					continue
				}
			} else if !strings.HasSuffix(ev.Name, ManifestName) {
				continue
			}
			log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("manifest changed")
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			log.Info().Msg("reloading skills after manifest change")
			w.loader.DiscoverSkills()
			for _, s := range w.loader.Skills() {
				_ = w.watcher.Add(s.Directory)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("skills watcher error")
		}
	}
}

// Stop stops the watcher and waits for its loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
