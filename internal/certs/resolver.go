// Package certs implements the domain-aware TLS certificate resolver,
// certificate sources, and the file-watching reload loop that keeps them
// current (SPEC_FULL.md §4.11, §4.12).
package certs

import (
	cryptotls "crypto/tls"
	"sync"

	"github.com/janm-dev/links-go/internal/domain"
)

// Resolver holds a [domain.Map] of certificates plus an optional default,
// and resolves an incoming TLS ClientHello's SNI to the certificate that
// should be presented (SPEC_FULL.md §4.11). It implements the shape
// expected by [cryptotls.Config.GetCertificate].
//
// The zero value is not usable; use [NewResolver].
type Resolver struct {
	mu    sync.RWMutex
	certs *domain.Map[*cryptotls.Certificate]

	defMu sync.RWMutex
	def   *cryptotls.Certificate
}

// NewResolver returns an empty Resolver with no certificates and no default.
func NewResolver() *Resolver {
	return &Resolver{certs: domain.New[*cryptotls.Certificate]()}
}

// Resolve returns the certificate for sni. If sni is empty or fails to
// parse as a reference identifier, or no entry matches it, the default
// certificate (which may be nil) is returned.
func (r *Resolver) Resolve(sni string) *cryptotls.Certificate {
	if sni == "" {
		return r.Default()
	}
	d, err := domain.Reference(sni)
	if err != nil {
		return r.Default()
	}

	r.mu.RLock()
	ck, ok := r.certs.Get(d)
	r.mu.RUnlock()
	if !ok {
		return r.Default()
	}
	return ck
}

// GetCertificate adapts Resolve to [cryptotls.Config]'s GetCertificate hook.
func (r *Resolver) GetCertificate(hello *cryptotls.ClientHelloInfo) (*cryptotls.Certificate, error) {
	ck := r.Resolve(hello.ServerName)
	if ck == nil {
		return nil, ErrNoCertificate
	}
	return ck, nil
}

// Default returns the current default certificate, or nil if none is set.
func (r *Resolver) Default() *cryptotls.Certificate {
	r.defMu.RLock()
	defer r.defMu.RUnlock()
	return r.def
}

// Set installs certkey for domain d, replacing any previous entry.
// In-flight handshakes that already resolved the old certificate are
// unaffected; only the certs map, not existing connections, changes.
func (r *Resolver) Set(d domain.Domain, certkey *cryptotls.Certificate) (old *cryptotls.Certificate, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.certs.Set(d, certkey)
}

// Remove deletes the entry for domain d, if any.
func (r *Resolver) Remove(d domain.Domain) (*cryptotls.Certificate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.certs.Remove(d)
}

// SetDefault installs certkey (which may be nil) as the default certificate
// for SNIs with no matching entry. Passing nil rejects such handshakes.
func (r *Resolver) SetDefault(certkey *cryptotls.Certificate) (old *cryptotls.Certificate) {
	r.defMu.Lock()
	defer r.defMu.Unlock()
	old = r.def
	r.def = certkey
	return old
}
