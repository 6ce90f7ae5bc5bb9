package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	cryptotls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/janm-dev/links-go/internal/platform/config"
)

var (
	// ErrNoCertificate is returned by [Resolver.GetCertificate] when
	// neither a per-domain nor a default certificate is available.
	ErrNoCertificate = errors.New("certs: no certificate available for this connection")

	// ErrUnsupportedSource is returned for a certificate source whose
	// Source field names a variant other than "files".
	ErrUnsupportedSource = errors.New("certs: unsupported certificate source")
)

// Source produces a [cryptotls.Certificate] and knows whether it should be
// tracked by the file [Watcher] (SPEC_FULL.md §4.12). The design permits
// future source variants (e.g. ACME) alongside the current "files" one.
type Source interface {
	// Domains are the reference-form hostnames this source certifies.
	Domains() []string

	// Load parses and returns the current certificate.
	Load() (*cryptotls.Certificate, error)

	// Files returns the paths that should be watched for changes, and
	// whether this source is file-backed at all.
	Files() (paths []string, fileBacked bool)
}

// FromConfig builds a [Source] from a [config.CertSource]. Only the
// "files" variant is currently supported.
func FromConfig(cs config.CertSource) (Source, error) {
	switch cs.Source {
	case "files":
		return FileSource{Domains_: cs.Domains, CertPath: cs.Cert, KeyPath: cs.Key}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, cs.Source)
	}
}

// FileSource loads a certificate chain and key from PEM files on disk.
type FileSource struct {
	Domains_ []string
	CertPath string
	KeyPath  string
}

func (f FileSource) Domains() []string { return f.Domains_ }

func (f FileSource) Files() (paths []string, fileBacked bool) {
	return []string{f.CertPath, f.KeyPath}, true
}

// Load parses the PEM certificate chain and PKCS#8 (or EC/RSA) private key,
// rejecting the pair if the key does not sign the certificate.
// [cryptotls.LoadX509KeyPair] performs exactly that check as part of
// building the returned [cryptotls.Certificate].
func (f FileSource) Load() (*cryptotls.Certificate, error) {
	cert, err := cryptotls.LoadX509KeyPair(f.CertPath, f.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("certs: load %s/%s: %w", f.CertPath, f.KeyPath, err)
	}
	return &cert, nil
}

// SelfSignedSource generates an ephemeral self-signed certificate the first
// time it's loaded. It is never file-backed, so the [Watcher] never tracks
// it for reload.
type SelfSignedSource struct {
	Domains_ []string
}

func (s SelfSignedSource) Domains() []string { return s.Domains_ }

func (s SelfSignedSource) Files() (paths []string, fileBacked bool) { return nil, false }

func (s SelfSignedSource) Load() (*cryptotls.Certificate, error) {
	return GenerateSelfSigned(s.Domains_)
}

// GenerateSelfSigned creates a fresh ECDSA P-256 self-signed certificate
// covering the given hostnames (or IP addresses), valid for one year.
func GenerateSelfSigned(domains []string) (*cryptotls.Certificate, error) {
	if len(domains) == 0 {
		domains = []string{"localhost"}
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("certs: generate key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("certs: generate serial: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"links"},
			CommonName:   domains[0],
		},
		NotBefore:             now,
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	for _, d := range domains {
		if ip := net.ParseIP(d); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, d)
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("certs: create certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("certs: marshal key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	cert, err := cryptotls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
