package rpcapi_test

import (
	"context"
	"testing"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/rpcapi"
	"github.com/janm-dev/links-go/internal/rpcapi/linkspb"
	"github.com/janm-dev/links-go/internal/store"
	_ "github.com/janm-dev/links-go/internal/store/memstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newService(t *testing.T) *rpcapi.Service {
	t.Helper()
	backend, err := store.New("memory", nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := backend.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return &rpcapi.Service{Store: store.NewCurrent(backend), Token: "test-token"}
}

func TestServiceSetAndGetRedirect(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id := linkid.New()
	setResp, err := svc.SetRedirect(ctx, &linkspb.SetRedirectRequest{Id: id.String(), Link: "https://example.com/"})
	if err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}
	if setResp.Replaced {
		t.Fatal("expected no previous value on first set")
	}

	getResp, err := svc.GetRedirect(ctx, &linkspb.GetRedirectRequest{Id: id.String()})
	if err != nil {
		t.Fatalf("GetRedirect: %v", err)
	}
	if !getResp.Found || getResp.Link != "https://example.com/" {
		t.Fatalf("GetRedirect = %+v", getResp)
	}
}

func TestServiceGetRedirectRejectsInvalidID(t *testing.T) {
	svc := newService(t)

	_, err := svc.GetRedirect(context.Background(), &linkspb.GetRedirectRequest{Id: "not an id"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestServiceRemRedirectReportsFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id := linkid.New()
	if _, err := svc.SetRedirect(ctx, &linkspb.SetRedirectRequest{Id: id.String(), Link: "https://example.com/"}); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}

	remResp, err := svc.RemRedirect(ctx, &linkspb.RemRedirectRequest{Id: id.String()})
	if err != nil {
		t.Fatalf("RemRedirect: %v", err)
	}
	if !remResp.Found || remResp.Link != "https://example.com/" {
		t.Fatalf("RemRedirect = %+v", remResp)
	}

	again, err := svc.RemRedirect(ctx, &linkspb.RemRedirectRequest{Id: id.String()})
	if err != nil {
		t.Fatalf("RemRedirect (second): %v", err)
	}
	if again.Found {
		t.Fatal("expected Found=false after removal")
	}
}

func TestServiceSetAndGetVanity(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id := linkid.New()
	if _, err := svc.SetVanity(ctx, &linkspb.SetVanityRequest{Vanity: "Example", Id: id.String()}); err != nil {
		t.Fatalf("SetVanity: %v", err)
	}

	getResp, err := svc.GetVanity(ctx, &linkspb.GetVanityRequest{Vanity: "example"})
	if err != nil {
		t.Fatalf("GetVanity: %v", err)
	}
	if !getResp.Found || getResp.Id != id.String() {
		t.Fatalf("GetVanity = %+v, want id %s (normalization should fold case)", getResp, id.String())
	}
}

func TestServiceGetStatisticsEmpty(t *testing.T) {
	svc := newService(t)

	resp, err := svc.GetStatistics(context.Background(), &linkspb.GetStatisticsRequest{})
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(resp.Entries))
	}
}

func TestAuthInterceptorRejectsMismatchedToken(t *testing.T) {
	interceptor := rpcapi.AuthInterceptor("correct-token")
	called := false
	handler := func(ctx context.Context, req any) (any, error) {
		called = true
		return nil, nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "links.v1.Links/GetRedirect"}

	md := metadata.New(map[string]string{"auth": "wrong-token"})
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_, err := interceptor(ctx, struct{}{}, info, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
	if called {
		t.Fatal("handler should not be called when auth fails")
	}
}

func TestAuthInterceptorAllowsMatchingToken(t *testing.T) {
	interceptor := rpcapi.AuthInterceptor("correct-token")
	handler := func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "links.v1.Links/GetRedirect"}

	md := metadata.New(map[string]string{"auth": "correct-token"})
	ctx := metadata.NewIncomingContext(context.Background(), md)

	resp, err := interceptor(ctx, struct{}{}, info, handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("resp = %v", resp)
	}
}
