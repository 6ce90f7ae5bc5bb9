package fabric

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/janm-dev/links-go/internal/certs"
	"github.com/janm-dev/links-go/internal/platform/config"
	"github.com/janm-dev/links-go/internal/redirector"
	"github.com/janm-dev/links-go/internal/store"
)

// NewPlainHTTPAcceptor serves either the redirector or the HTTPS-upgrade
// handler over plaintext HTTP/1.0, HTTP/1.1, and h2c, depending on
// cfg().HTTPSRedirect at the time each connection arrives (SPEC_FULL.md
// §4.16: "PlainHttp → redirector or https-upgrade").
func NewPlainHTTPAcceptor(cur *store.Current, cfg func() config.RedirectorConfig, logger *slog.Logger) AcceptorFunc {
	redirectorHandler := &redirector.Handler{Store: cur, ConfigFunc: cfg, Logger: logger}
	upgradeHandler := &redirector.HTTPSUpgradeHandler{ConfigFunc: cfg, Logger: logger}

	return func(ctx context.Context, conn net.Conn) {
		var h http.Handler = redirectorHandler
		if cfg().HTTPSRedirect {
			h = upgradeHandler
		}

		srv := &http.Server{Handler: h2c.NewHandler(h, &http2.Server{})}
		ln := newOneShotListener(conn)
		if err := srv.Serve(ln); err != nil && logger != nil {
			logger.Debug("plain http connection closed", "error", err)
		}
	}
}

// NewTLSHTTPAcceptor serves the redirector over HTTPS, resolving server
// certificates per-handshake via resolver (SPEC_FULL.md §4.16: "TlsHttp →
// TLS handshake ... then redirector with TLS stats context"). ALPN
// negotiates h2 or http/1.1; net/http enables HTTP/2 automatically for a
// TLS-served connection.
func NewTLSHTTPAcceptor(cur *store.Current, cfg func() config.RedirectorConfig, resolver *certs.Resolver, logger *slog.Logger) AcceptorFunc {
	handler := &redirector.Handler{Store: cur, ConfigFunc: cfg, Logger: logger}
	tlsConfig := &tls.Config{
		GetCertificate: resolver.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
	}

	return func(ctx context.Context, conn net.Conn) {
		srv := &http.Server{Handler: handler, TLSConfig: tlsConfig}
		ln := newOneShotListener(conn)
		if err := srv.ServeTLS(ln, "", ""); err != nil && logger != nil {
			logger.Debug("tls http connection closed", "error", err)
		}
	}
}

// NewPlainRPCAcceptor feeds accepted connections into a *grpc.Server that
// runs its own Serve loop over a channel-backed net.Listener
// (SPEC_FULL.md §4.16: "PlainRpc → RPC service").
func NewPlainRPCAcceptor(grpcServer *grpc.Server, logger *slog.Logger) AcceptorFunc {
	feeder := newChanListener()
	go func() {
		if err := grpcServer.Serve(feeder); err != nil && logger != nil {
			logger.Warn("rpc serve loop exited", "error", err)
		}
	}()

	return func(ctx context.Context, conn net.Conn) {
		feeder.feed(conn)
	}
}

// NewTLSRPCAcceptor is like [NewPlainRPCAcceptor], but grpcServer must
// have been constructed with grpc.Creds(credentials.NewTLS(tlsConfig))
// using a resolver-backed GetCertificate, so the TLS handshake happens
// inside grpc-go's transport credentials rather than in this acceptor.
func NewTLSRPCAcceptor(grpcServer *grpc.Server, logger *slog.Logger) AcceptorFunc {
	return NewPlainRPCAcceptor(grpcServer, logger)
}

// NewRPCServerCredentials builds the grpc.Creds transport credentials for
// a TLS RPC listener, resolving certificates the same way the HTTPS
// listener does.
func NewRPCServerCredentials(resolver *certs.Resolver) credentials.TransportCredentials {
	return credentials.NewTLS(&tls.Config{
		GetCertificate: resolver.GetCertificate,
		NextProtos:     []string{"h2"},
	})
}

// chanListener is a net.Listener backed by a channel of already-accepted
// connections, used to hand connections owned by a [Listener] to a
// *grpc.Server, which insists on running its own Serve loop.
type chanListener struct {
	conns  chan net.Conn
	closed chan struct{}
}

func newChanListener() *chanListener {
	return &chanListener{conns: make(chan net.Conn), closed: make(chan struct{})}
}

func (c *chanListener) feed(conn net.Conn) {
	select {
	case c.conns <- conn:
	case <-c.closed:
		_ = conn.Close()
	}
}

func (c *chanListener) Accept() (net.Conn, error) {
	select {
	case conn := <-c.conns:
		return conn, nil
	case <-c.closed:
		return nil, net.ErrClosed
	}
}

func (c *chanListener) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

func (c *chanListener) Addr() net.Addr {
	return chanAddr{}
}

type chanAddr struct{}

func (chanAddr) Network() string { return "chan" }
func (chanAddr) String() string  { return "chan" }
