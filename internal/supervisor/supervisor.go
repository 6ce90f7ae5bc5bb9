// Package supervisor owns the mutable, reload-on-the-fly pieces of a
// running server: the live [config.Config], the active store backend, the
// TLS certificate resolver, and the set of open listeners (SPEC_FULL.md
// §4.17). Everything else in the server reads through one of these, never
// mutating it directly; the supervisor is the only writer.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/janm-dev/links-go/internal/certs"
	"github.com/janm-dev/links-go/internal/fabric"
	"github.com/janm-dev/links-go/internal/platform/config"
	"github.com/janm-dev/links-go/internal/platform/logutil"
	"github.com/janm-dev/links-go/internal/rpcapi"
	"github.com/janm-dev/links-go/internal/store"
)

// Options configures a new Supervisor.
type Options struct {
	// Loader is re-run on every reconcile to produce a fresh Config.
	Loader config.LoaderOptions

	// WatcherDebounce is how long the config file watcher waits for
	// events to stop arriving before reconciling (SPEC_FULL.md §6,
	// `--watcher-debounce`).
	WatcherDebounce time.Duration

	// WatcherTimeout is the longest the supervisor ever goes without
	// reconciling, file events or not: a fallback tick in case a config
	// file change doesn't generate a filesystem event fsnotify can see
	// (SPEC_FULL.md §6, `--watcher-timeout`). The original polls a
	// channel on this interval; fsnotify lets this be a plain ticker
	// instead.
	WatcherTimeout time.Duration

	// RPCService is the shared RPC business-logic object; the supervisor
	// updates its Store and Token fields and rebuilds its gRPC listeners
	// when either changes.
	RPCService *rpcapi.Service

	Logger *slog.Logger
}

// Supervisor runs the reconciliation loop described in SPEC_FULL.md §4.17:
// on startup, and again whenever the config file or a watched TLS file
// changes, it reloads configuration and brings the store, certificate
// resolver, and listener set in line with it, retaining anything that
// didn't change and logging (rather than failing) anything that did change
// but couldn't be applied.
type Supervisor struct {
	loader   config.LoaderOptions
	debounce time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	cfg atomic.Pointer[config.Config]

	current    *store.Current
	resolver   *certs.Resolver
	certs      *certs.Watcher
	rpcService *rpcapi.Service

	listeners      map[config.ListenerAddress]*fabric.Listener
	trackedCertIDs map[string]bool

	fsw       *fsnotify.Watcher
	watchedFn string // the config file path currently watched, or ""
}

// New loads the initial configuration, constructs the initial store and
// certificate resolver from it, and opens the initial listener set. The
// returned Supervisor has not yet started its reload loop; call Run to do
// that.
func New(ctx context.Context, opts Options) (*Supervisor, error) {
	logger := logutil.NoopIfNil(opts.Logger)

	// Mirrors the upstream defaults: a one second debounce and a ten
	// second fallback tick.
	if opts.WatcherDebounce <= 0 {
		opts.WatcherDebounce = time.Second
	}
	if opts.WatcherTimeout <= 0 {
		opts.WatcherTimeout = 10 * time.Second
	}

	cfg, err := config.Load(opts.Loader)
	if err != nil {
		return nil, fmt.Errorf("supervisor: initial config load: %w", err)
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("supervisor: initial store: %w", err)
	}
	if err := backend.Init(ctx); err != nil {
		return nil, fmt.Errorf("supervisor: initial store init: %w", err)
	}

	resolver := certs.NewResolver()
	watcher, err := certs.NewWatcher(resolver, opts.WatcherDebounce, logger)
	if err != nil {
		return nil, fmt.Errorf("supervisor: cert watcher: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("supervisor: config watcher: %w", err)
	}

	s := &Supervisor{
		loader:     opts.Loader,
		debounce:   opts.WatcherDebounce,
		timeout:    opts.WatcherTimeout,
		logger:     logger,
		current:    store.NewCurrent(backend),
		resolver:   resolver,
		certs:      watcher,
		rpcService: opts.RPCService,
		listeners:  make(map[config.ListenerAddress]*fabric.Listener),
		fsw:        fsw,
	}
	s.cfg.Store(cfg)

	s.applyCertificates(cfg)

	if s.rpcService != nil {
		s.rpcService.Store = s.current
		s.rpcService.Token = cfg.Token
	}

	if err := s.watchConfigFile(); err != nil {
		return nil, fmt.Errorf("supervisor: watch config file: %w", err)
	}

	s.applyListeners(ctx, nil, cfg)

	return s, nil
}

// Config returns the currently live configuration. Safe for concurrent use
// with Run.
func (s *Supervisor) Config() *config.Config {
	return s.cfg.Load()
}

// RedirectorConfig returns the live configuration's redirector-relevant
// fields, suitable as a [fabric.Deps.RedirectorConfig] callback.
func (s *Supervisor) RedirectorConfig() config.RedirectorConfig {
	return s.Config().Redirector()
}

// Store returns the currently live store handle.
func (s *Supervisor) Store() *store.Current {
	return s.current
}

// Resolver returns the TLS certificate resolver.
func (s *Supervisor) Resolver() *certs.Resolver {
	return s.resolver
}

// Deps returns a [fabric.Deps] wired against this supervisor's live state,
// for building acceptors during reconciliation.
func (s *Supervisor) Deps() fabric.Deps {
	return fabric.Deps{
		Store:            s.current,
		RedirectorConfig: s.RedirectorConfig,
		Resolver:         s.resolver,
		RPCService:       s.rpcService,
		Logger:           s.logger,
	}
}

// Run starts the certificate watcher and blocks, reconciling on every
// debounced config-file change and on every WatcherTimeout tick, until ctx
// is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	go s.certs.Run(ctx)

	var debounceTimer *time.Timer
	debounceC := make(<-chan time.Time)

	ticker := time.NewTicker(s.timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			s.logger.Warn("config file watcher error", "error", err)

		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.logger.Debug("config file watcher event", "name", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(s.debounce)
			debounceC = debounceTimer.C

		case <-debounceC:
			debounceC = make(<-chan time.Time)
			s.reconcile(ctx)

		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

// Close closes every open listener, the certificate watcher, the config
// file watcher, and the current store backend.
func (s *Supervisor) Close() error {
	for addr, l := range s.listeners {
		if err := l.Close(); err != nil {
			s.logger.Warn("error closing listener", "address", addr.String(), "error", err)
		}
	}
	if err := s.certs.Close(); err != nil {
		s.logger.Warn("error closing certificate watcher", "error", err)
	}
	if err := s.fsw.Close(); err != nil {
		s.logger.Warn("error closing config file watcher", "error", err)
	}
	return s.current.Get().Close()
}

// watchConfigFile starts (or restarts) watching the configured config file
// path, if any.
func (s *Supervisor) watchConfigFile() error {
	path := s.loader.ConfigPath
	if path == s.watchedFn {
		return nil
	}
	if s.watchedFn != "" {
		if err := s.fsw.Remove(s.watchedFn); err != nil {
			s.logger.Warn("failed to unwatch old config file", "path", s.watchedFn, "error", err)
		}
	}
	s.watchedFn = path
	if path == "" {
		return nil
	}
	return s.fsw.Add(path)
}
