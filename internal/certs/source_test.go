package certs_test

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/janm-dev/links-go/internal/certs"
	"github.com/janm-dev/links-go/internal/platform/config"
)

// writeCert generates a self-signed certificate and writes it to disk as a
// PEM cert/key pair, so FileSource.Load can be exercised against real files.
func writeCert(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()
	ck, err := certs.GenerateSelfSigned([]string{"example.com"})
	if err != nil {
		t.Fatalf("GenerateSelfSigned: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ck.Certificate[0]})

	key, ok := ck.PrivateKey.(*ecdsa.PrivateKey)
	if !ok {
		t.Fatalf("expected an ECDSA private key, got %T", ck.PrivateKey)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		t.Fatalf("WriteFile cert: %v", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatalf("WriteFile key: %v", err)
	}
	return certPath, keyPath
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeCert(t, dir)

	src := certs.FileSource{Domains_: []string{"example.com"}, CertPath: certPath, KeyPath: keyPath}
	ck, err := src.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ck.Certificate) == 0 {
		t.Fatal("loaded certificate has no chain")
	}

	paths, fileBacked := src.Files()
	if !fileBacked || len(paths) != 2 {
		t.Fatalf("Files() = %v, %v", paths, fileBacked)
	}
}

func TestFromConfigRejectsUnsupportedSource(t *testing.T) {
	_, err := certs.FromConfig(config.CertSource{Source: "acme"})
	if err == nil {
		t.Fatal("expected an error for an unsupported certificate source")
	}
}

func TestSelfSignedSourceNotFileBacked(t *testing.T) {
	src := certs.SelfSignedSource{Domains_: []string{"localhost"}}
	if _, fileBacked := src.Files(); fileBacked {
		t.Fatal("self-signed source should not be file-backed")
	}
	ck, err := src.Load()
	if err != nil || ck == nil {
		t.Fatalf("Load: ck=%v err=%v", ck, err)
	}
}
