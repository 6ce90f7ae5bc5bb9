package rpcapi

import (
	"log/slog"

	"google.golang.org/grpc"

	"github.com/janm-dev/links-go/internal/rpcapi/linkspb"
)

// NewGRPCServer builds a *grpc.Server with svc registered, the wire codec
// installed, and the auth and access-log interceptors chained in front of
// every call (access log outermost, so rejected calls are still logged).
// Extra opts (e.g. grpc.Creds for a TLS listener) are appended last.
func NewGRPCServer(svc *Service, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.ForceServerCodec(linkspb.WireCodec),
		grpc.UnaryInterceptor(ChainUnary(
			AccessLogInterceptor(logger),
			AuthInterceptor(svc.Token),
		)),
	}
	srv := grpc.NewServer(append(base, opts...)...)
	linkspb.RegisterLinksServer(srv, svc)
	return srv
}
