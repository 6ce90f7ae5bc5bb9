package fabric

import (
	"fmt"
	"log/slog"

	"google.golang.org/grpc"

	"github.com/janm-dev/links-go/internal/certs"
	"github.com/janm-dev/links-go/internal/platform/config"
	"github.com/janm-dev/links-go/internal/rpcapi"
	"github.com/janm-dev/links-go/internal/store"
)

// Deps bundles everything an acceptor may need, regardless of which kind
// ends up being built for a given listener address.
type Deps struct {
	Store            *store.Current
	RedirectorConfig func() config.RedirectorConfig
	Resolver         *certs.Resolver
	RPCService       *rpcapi.Service
	Logger           *slog.Logger
}

// NewAcceptor builds the AcceptorFunc appropriate for addr.Protocol
// (SPEC_FULL.md §4.16: "four acceptor kinds"). RPC listeners each get
// their own *grpc.Server instance sharing the same underlying
// RPCService/store, matching the teacher's one-Routes-per-listener-kind
// shape.
func NewAcceptor(addr config.ListenerAddress, deps Deps) (AcceptorFunc, error) {
	switch addr.Protocol {
	case "http":
		return NewPlainHTTPAcceptor(deps.Store, deps.RedirectorConfig, deps.Logger), nil
	case "https":
		if deps.Resolver == nil {
			return nil, fmt.Errorf("fabric: https listener %s requires a certificate resolver", addr.String())
		}
		return NewTLSHTTPAcceptor(deps.Store, deps.RedirectorConfig, deps.Resolver, deps.Logger), nil
	case "grpc":
		srv := rpcapi.NewGRPCServer(deps.RPCService, deps.Logger)
		return NewPlainRPCAcceptor(srv, deps.Logger), nil
	case "grpcs":
		if deps.Resolver == nil {
			return nil, fmt.Errorf("fabric: grpcs listener %s requires a certificate resolver", addr.String())
		}
		creds := NewRPCServerCredentials(deps.Resolver)
		srv := rpcapi.NewGRPCServer(deps.RPCService, deps.Logger, grpc.Creds(creds))
		return NewTLSRPCAcceptor(srv, deps.Logger), nil
	default:
		return nil, fmt.Errorf("fabric: unknown listener protocol %q", addr.Protocol)
	}
}
