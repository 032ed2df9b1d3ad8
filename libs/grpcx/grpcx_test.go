package grpcx

import (
	"context"
	"testing"

	"github.com/salondesk/salondesk/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestRequestIDInterceptorUsesIncomingMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "rid-1"))
	var seen string
	_, err := UnaryServerRequestIDInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, _ any) (any, error) {
			seen = httpx.RequestIDFromContext(ctx)
			return nil, nil
		})
	if err != nil {
		t.Fatalf("interceptor returned error: %v", err)
	}
	if seen != "rid-1" {
		t.Fatalf("expected rid-1, got %q", seen)
	}
}

func TestRequestIDInterceptorMintsID(t *testing.T) {
	var seen string
	_, _ = UnaryServerRequestIDInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, _ any) (any, error) {
			seen = httpx.RequestIDFromContext(ctx)
			return nil, nil
		})
	if len(seen) != 36 {
		t.Fatalf("expected a generated uuid, got %q", seen)
	}
}
