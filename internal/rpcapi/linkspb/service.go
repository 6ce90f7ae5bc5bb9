package linkspb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LinksServer is the server-side contract for the links RPC service
// (SPEC_FULL.md §4.15): eight authenticated methods over redirects,
// vanity paths, and statistics.
type LinksServer interface {
	GetRedirect(context.Context, *GetRedirectRequest) (*GetRedirectResponse, error)
	SetRedirect(context.Context, *SetRedirectRequest) (*SetRedirectResponse, error)
	RemRedirect(context.Context, *RemRedirectRequest) (*RemRedirectResponse, error)
	GetVanity(context.Context, *GetVanityRequest) (*GetVanityResponse, error)
	SetVanity(context.Context, *SetVanityRequest) (*SetVanityResponse, error)
	RemVanity(context.Context, *RemVanityRequest) (*RemVanityResponse, error)
	GetStatistics(context.Context, *GetStatisticsRequest) (*GetStatisticsResponse, error)
	RemStatistics(context.Context, *RemStatisticsRequest) (*RemStatisticsResponse, error)
}

// ServiceName is the fully-qualified gRPC service name, used as the
// prefix of every method's wire path.
const ServiceName = "links.v1.Links"

// RegisterLinksServer registers srv with s under ServiceName.
func RegisterLinksServer(s grpc.ServiceRegistrar, srv LinksServer) {
	s.RegisterService(&serviceDesc, srv)
}

func methodDesc(name string, handler grpc.MethodHandler) grpc.MethodDesc {
	return grpc.MethodDesc{MethodName: name, Handler: handler}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinksServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("GetRedirect", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(GetRedirectRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).GetRedirect(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/GetRedirect"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).GetRedirect(ctx, reqIface.(*GetRedirectRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
		methodDesc("SetRedirect", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(SetRedirectRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).SetRedirect(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/SetRedirect"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).SetRedirect(ctx, reqIface.(*SetRedirectRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
		methodDesc("RemRedirect", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(RemRedirectRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).RemRedirect(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/RemRedirect"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).RemRedirect(ctx, reqIface.(*RemRedirectRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
		methodDesc("GetVanity", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(GetVanityRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).GetVanity(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/GetVanity"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).GetVanity(ctx, reqIface.(*GetVanityRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
		methodDesc("SetVanity", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(SetVanityRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).SetVanity(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/SetVanity"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).SetVanity(ctx, reqIface.(*SetVanityRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
		methodDesc("RemVanity", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(RemVanityRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).RemVanity(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/RemVanity"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).RemVanity(ctx, reqIface.(*RemVanityRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
		methodDesc("GetStatistics", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(GetStatisticsRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).GetStatistics(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/GetStatistics"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).GetStatistics(ctx, reqIface.(*GetStatisticsRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
		methodDesc("RemStatistics", func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(RemStatisticsRequest)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return srv.(LinksServer).RemStatistics(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/RemStatistics"}
			handler := func(ctx context.Context, reqIface any) (any, error) {
				return srv.(LinksServer).RemStatistics(ctx, reqIface.(*RemStatisticsRequest))
			}
			return interceptor(ctx, req, info, handler)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "links.proto",
}

// LinksClient is the client-side contract matching [LinksServer].
type LinksClient interface {
	GetRedirect(ctx context.Context, in *GetRedirectRequest, opts ...grpc.CallOption) (*GetRedirectResponse, error)
	SetRedirect(ctx context.Context, in *SetRedirectRequest, opts ...grpc.CallOption) (*SetRedirectResponse, error)
	RemRedirect(ctx context.Context, in *RemRedirectRequest, opts ...grpc.CallOption) (*RemRedirectResponse, error)
	GetVanity(ctx context.Context, in *GetVanityRequest, opts ...grpc.CallOption) (*GetVanityResponse, error)
	SetVanity(ctx context.Context, in *SetVanityRequest, opts ...grpc.CallOption) (*SetVanityResponse, error)
	RemVanity(ctx context.Context, in *RemVanityRequest, opts ...grpc.CallOption) (*RemVanityResponse, error)
	GetStatistics(ctx context.Context, in *GetStatisticsRequest, opts ...grpc.CallOption) (*GetStatisticsResponse, error)
	RemStatistics(ctx context.Context, in *RemStatisticsRequest, opts ...grpc.CallOption) (*RemStatisticsResponse, error)
}

type linksClient struct {
	cc grpc.ClientConnInterface
}

// NewLinksClient wraps cc, which must have been dialed with
// [WireCodec] installed via grpc.WithDefaultCallOptions(grpc.ForceCodec(...)).
func NewLinksClient(cc grpc.ClientConnInterface) LinksClient {
	return &linksClient{cc: cc}
}

func invoke[Resp Message](ctx context.Context, c *linksClient, method string, req Message, resp Resp, opts ...grpc.CallOption) (Resp, error) {
	if err := c.cc.Invoke(ctx, ServiceName+"/"+method, req, resp, opts...); err != nil {
		var zero Resp
		return zero, err
	}
	return resp, nil
}

func (c *linksClient) GetRedirect(ctx context.Context, in *GetRedirectRequest, opts ...grpc.CallOption) (*GetRedirectResponse, error) {
	return invoke(ctx, c, "GetRedirect", in, new(GetRedirectResponse), opts...)
}

func (c *linksClient) SetRedirect(ctx context.Context, in *SetRedirectRequest, opts ...grpc.CallOption) (*SetRedirectResponse, error) {
	return invoke(ctx, c, "SetRedirect", in, new(SetRedirectResponse), opts...)
}

func (c *linksClient) RemRedirect(ctx context.Context, in *RemRedirectRequest, opts ...grpc.CallOption) (*RemRedirectResponse, error) {
	return invoke(ctx, c, "RemRedirect", in, new(RemRedirectResponse), opts...)
}

func (c *linksClient) GetVanity(ctx context.Context, in *GetVanityRequest, opts ...grpc.CallOption) (*GetVanityResponse, error) {
	return invoke(ctx, c, "GetVanity", in, new(GetVanityResponse), opts...)
}

func (c *linksClient) SetVanity(ctx context.Context, in *SetVanityRequest, opts ...grpc.CallOption) (*SetVanityResponse, error) {
	return invoke(ctx, c, "SetVanity", in, new(SetVanityResponse), opts...)
}

func (c *linksClient) RemVanity(ctx context.Context, in *RemVanityRequest, opts ...grpc.CallOption) (*RemVanityResponse, error) {
	return invoke(ctx, c, "RemVanity", in, new(RemVanityResponse), opts...)
}

func (c *linksClient) GetStatistics(ctx context.Context, in *GetStatisticsRequest, opts ...grpc.CallOption) (*GetStatisticsResponse, error) {
	return invoke(ctx, c, "GetStatistics", in, new(GetStatisticsResponse), opts...)
}

func (c *linksClient) RemStatistics(ctx context.Context, in *RemStatisticsRequest, opts ...grpc.CallOption) (*RemStatisticsResponse, error) {
	return invoke(ctx, c, "RemStatistics", in, new(RemStatisticsResponse), opts...)
}

// errUnauthenticated and errInvalidArgument are convenience constructors
// used by the service implementation (SPEC_FULL.md §4.15's error mapping).
func errUnauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}

func errInvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

func errInternal(msg string) error {
	return status.Error(codes.Internal, msg)
}

// Errors exposes the error constructors above for use by package rpcapi,
// without exporting codes/status details beyond what callers need.
var Errors = struct {
	Unauthenticated func(string) error
	InvalidArgument func(string) error
	Internal        func(string) error
}{
	Unauthenticated: errUnauthenticated,
	InvalidArgument: errInvalidArgument,
	Internal:        errInternal,
}
