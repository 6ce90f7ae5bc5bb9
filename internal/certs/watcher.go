package certs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/janm-dev/links-go/internal/domain"
	"github.com/janm-dev/links-go/internal/platform/logutil"
)

// trackedSource is a [Source] currently installed in a [Resolver], plus the
// watched-file paths it contributed (empty if not file-backed).
type trackedSource struct {
	source Source
	files  []string
}

// Watcher tracks file-backed certificate [Source]s and reloads them into a
// [Resolver] after a debounce interval following any filesystem change
// (SPEC_FULL.md §4.12). Source set maintenance (SetSource/RemoveSource/
// SetDefaultSource) is driven synchronously by the caller — the supervisor
// loop, which is itself single-threaded — rather than through a second
// channel, since Go gives a direct method call the same "only one mutator"
// guarantee the original's control channel exists to provide.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	resolver *Resolver
	debounce time.Duration
	logger   *slog.Logger

	entries      map[string]*trackedSource
	def          *trackedSource
	watchedCount map[string]int // path -> number of sources referencing it

	dirty bool
	timer *time.Timer

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// NewWatcher creates a Watcher that reloads resolver's certificates after
// debounce has elapsed without further filesystem events.
func NewWatcher(resolver *Resolver, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logger = logutil.NoopIfNil(logger)

	w := &Watcher{
		fsw:          fsw,
		resolver:     resolver,
		debounce:     debounce,
		logger:       logger,
		entries:      make(map[string]*trackedSource),
		watchedCount: make(map[string]int),
		closed:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	return w, nil
}

// Run processes filesystem events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.closed:
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("certificate watcher error", "error", err)
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.logger.Debug("certificate watcher event", "name", event.Name, "op", event.Op.String())
			w.markDirtyAndDebounce()
		}
	}
}

// Close stops the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.closed) })
	<-w.done
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) markDirtyAndDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reloadDirty)
}

// reloadDirty reloads every tracked file-backed source (and the default, if
// file-backed), replacing its CertifiedKey in the resolver. A source whose
// reload fails keeps its previous certificate (SPEC_FULL.md §4.12).
func (w *Watcher) reloadDirty() {
	w.mu.Lock()
	if !w.dirty {
		w.mu.Unlock()
		return
	}
	w.dirty = false
	entries := make([]*trackedSource, 0, len(w.entries)+1)
	for _, e := range w.entries {
		if _, ok := e.source.Files(); ok {
			entries = append(entries, e)
		}
	}
	def := w.def
	w.mu.Unlock()

	for _, e := range entries {
		w.reloadOne(e.source)
	}
	if def != nil {
		if _, ok := def.source.Files(); ok {
			w.reloadDefault(def.source)
		}
	}
}

func (w *Watcher) reloadOne(src Source) {
	ck, err := src.Load()
	if err != nil {
		w.logger.Warn("keeping previous certificate after failed reload", "domains", src.Domains(), "error", err)
		return
	}
	for _, ds := range src.Domains() {
		d, err := domain.Presented(ds)
		if err != nil {
			w.logger.Warn("certificate source domain no longer parses, skipping", "domain", ds, "error", err)
			continue
		}
		w.resolver.Set(d, ck)
	}
}

func (w *Watcher) reloadDefault(src Source) {
	ck, err := src.Load()
	if err != nil {
		w.logger.Warn("keeping previous default certificate after failed reload", "error", err)
		return
	}
	w.resolver.SetDefault(ck)
}

// SetSource loads src, installs its certificate under every one of its
// domains, and (if file-backed) begins watching its files. id must be
// stable across calls for the same logical source, so a later SetSource
// with the same id replaces rather than duplicates the watch.
func (w *Watcher) SetSource(id string, src Source) error {
	ck, err := src.Load()
	if err != nil {
		return err
	}

	domains := make([]domain.Domain, 0, len(src.Domains()))
	for _, ds := range src.Domains() {
		d, err := domain.Presented(ds)
		if err != nil {
			return err
		}
		domains = append(domains, d)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.entries[id]; ok {
		w.unwatchLocked(old.files)
	}

	for _, d := range domains {
		w.resolver.Set(d, ck)
	}

	var files []string
	if paths, ok := src.Files(); ok {
		files = paths
		w.watchLocked(paths)
	}
	w.entries[id] = &trackedSource{source: src, files: files}
	return nil
}

// RemoveSource removes a previously-set source and stops watching its
// files (if no other source references the same path).
func (w *Watcher) RemoveSource(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.entries[id]
	if !ok {
		return
	}
	for _, ds := range e.source.Domains() {
		if d, err := domain.Presented(ds); err == nil {
			w.resolver.Remove(d)
		}
	}
	w.unwatchLocked(e.files)
	delete(w.entries, id)
}

// SetDefaultSource loads src and installs it as the resolver's default,
// watching its files if it is file-backed.
func (w *Watcher) SetDefaultSource(src Source) error {
	ck, err := src.Load()
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.def != nil {
		w.unwatchLocked(w.def.files)
	}

	var files []string
	if paths, ok := src.Files(); ok {
		files = paths
		w.watchLocked(paths)
	}
	w.def = &trackedSource{source: src, files: files}
	w.resolver.SetDefault(ck)
	return nil
}

// ClearDefaultSource removes the default source, if any.
func (w *Watcher) ClearDefaultSource() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.def == nil {
		return
	}
	w.unwatchLocked(w.def.files)
	w.def = nil
	w.resolver.SetDefault(nil)
}

func (w *Watcher) watchLocked(paths []string) {
	for _, p := range paths {
		w.watchedCount[p]++
		if w.watchedCount[p] == 1 {
			if err := w.fsw.Add(p); err != nil {
				w.logger.Warn("failed to watch certificate file", "path", p, "error", err)
			}
		}
	}
}

func (w *Watcher) unwatchLocked(paths []string) {
	for _, p := range paths {
		if w.watchedCount[p] <= 0 {
			continue
		}
		w.watchedCount[p]--
		if w.watchedCount[p] == 0 {
			delete(w.watchedCount, p)
			if err := w.fsw.Remove(p); err != nil {
				w.logger.Warn("failed to unwatch certificate file", "path", p, "error", err)
			}
		}
	}
}
