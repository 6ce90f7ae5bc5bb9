package supervisor

import (
	"context"
	"fmt"

	"github.com/janm-dev/links-go/internal/certs"
	"github.com/janm-dev/links-go/internal/fabric"
	"github.com/janm-dev/links-go/internal/platform/config"
	"github.com/janm-dev/links-go/internal/store"
)

// reconcile reloads configuration and brings every piece of live state in
// line with it (SPEC_FULL.md §4.17). A failure to apply one piece (a bad
// new store, a listener that won't bind) is logged and that piece keeps
// its previous value; reconcile never aborts partway in a way that leaves
// the server worse off than before it ran.
func (s *Supervisor) reconcile(ctx context.Context) {
	old := s.Config()

	cfg, err := config.Load(s.loader)
	if err != nil {
		s.logger.Warn("config reload failed, keeping previous configuration", "error", err)
		return
	}

	if err := s.watchConfigFile(); err != nil {
		s.logger.Warn("failed to update config file watch", "error", err)
	}

	s.applyCertificates(cfg)

	tokenChanged := old.Token != cfg.Token
	if s.rpcService != nil && tokenChanged {
		s.rpcService.Token = cfg.Token
	}

	if storeChanged(old, cfg) {
		s.logger.Info("store configuration changed, creating new store", "driver", cfg.Store)
		backend, err := newBackend(cfg)
		if err != nil {
			s.logger.Warn("error creating new store, retaining old store", "error", err)
		} else if err := backend.Init(ctx); err != nil {
			s.logger.Warn("error initializing new store, retaining old store", "error", err)
		} else {
			oldBackend := s.current.Update(backend)
			if err := oldBackend.Close(); err != nil {
				s.logger.Warn("error closing replaced store", "error", err)
			}
		}
	}

	s.cfg.Store(cfg)

	s.applyListeners(ctx, old, cfg)

	s.logger.Info("configuration and TLS certificates reloaded")
}

// storeChanged reports whether the (driver, driver config) pair differs
// between old and updated.
func storeChanged(old, updated *config.Config) bool {
	if old.Store != updated.Store {
		return true
	}
	if len(old.StoreConfig) != len(updated.StoreConfig) {
		return true
	}
	for k, v := range old.StoreConfig {
		if nv, ok := updated.StoreConfig[k]; !ok || nv != v {
			return true
		}
	}
	return false
}

// newBackend constructs the store named by cfg.Store, converting its
// string-keyed StoreConfig into the map[string]any every driver factory
// expects.
func newBackend(cfg *config.Config) (store.Backend, error) {
	return store.New(cfg.Store, storeConfigAny(cfg.StoreConfig))
}

func storeConfigAny(m map[string]string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// applyCertificates diffs cfg's certificate sources against whatever the
// cert [certs.Watcher] currently tracks, installing, replacing, or
// removing entries by a stable id so unchanged sources are left alone
// (and keep watching the same files) across a reconcile that didn't touch
// TLS at all.
func (s *Supervisor) applyCertificates(cfg *config.Config) {
	seen := make(map[string]bool, len(cfg.Certificates))

	for i, cs := range cfg.Certificates {
		id := fmt.Sprintf("cert-%d", i)
		seen[id] = true

		src, err := certs.FromConfig(cs)
		if err != nil {
			s.logger.Warn("skipping unusable certificate source, keeping previous", "domains", cs.Domains, "error", err)
			continue
		}
		if err := s.certs.SetSource(id, src); err != nil {
			s.logger.Warn("failed to load certificate source, keeping previous", "domains", cs.Domains, "error", err)
		}
	}

	for id := range s.trackedCertIDs {
		if !seen[id] {
			s.certs.RemoveSource(id)
			delete(s.trackedCertIDs, id)
		}
	}
	for id := range seen {
		if s.trackedCertIDs == nil {
			s.trackedCertIDs = make(map[string]bool)
		}
		s.trackedCertIDs[id] = true
	}

	if cfg.DefaultCertificate != nil {
		src, err := certs.FromConfig(*cfg.DefaultCertificate)
		if err != nil {
			s.logger.Warn("skipping unusable default certificate source, keeping previous", "error", err)
			return
		}
		if err := s.certs.SetDefaultSource(src); err != nil {
			s.logger.Warn("failed to load default certificate source, keeping previous", "error", err)
		}
	} else {
		s.certs.ClearDefaultSource()
	}
}

// applyListeners closes listeners whose address is no longer configured,
// opens listeners for addresses newly configured, and rebuilds every RPC
// listener if the auth token changed (the auth interceptor bakes its
// token in at construction, so a token-only change needs a fresh gRPC
// server even though the listening address didn't move). old may be nil
// on the initial call, meaning "nothing open yet".
func (s *Supervisor) applyListeners(ctx context.Context, old, cfg *config.Config) {
	wantAddrs := make(map[config.ListenerAddress]bool, len(cfg.Listeners))
	for _, a := range cfg.Listeners {
		wantAddrs[normalizeAddr(a)] = true
	}

	tokenChanged := old != nil && old.Token != cfg.Token

	for addr, l := range s.listeners {
		needsRebuild := tokenChanged && isRPCProtocol(addr.Protocol)
		if wantAddrs[addr] && !needsRebuild {
			continue
		}
		if err := l.Close(); err != nil {
			s.logger.Warn("error closing listener", "address", addr.String(), "error", err)
		}
		delete(s.listeners, addr)
	}

	for addr := range wantAddrs {
		if _, ok := s.listeners[addr]; ok {
			continue
		}
		accept, err := fabric.NewAcceptor(addr, s.Deps())
		if err != nil {
			s.logger.Warn("error building acceptor, skipping listener", "address", addr.String(), "error", err)
			continue
		}
		l, err := fabric.NewListener(ctx, addr, accept, s.logger)
		if err != nil {
			s.logger.Warn("error creating listener", "address", addr.String(), "error", err)
			continue
		}
		s.listeners[addr] = l
	}
}

func normalizeAddr(a config.ListenerAddress) config.ListenerAddress {
	a.Port = a.EffectivePort()
	return a
}

func isRPCProtocol(p string) bool {
	return p == "grpc" || p == "grpcs"
}
