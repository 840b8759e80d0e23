package grpcproto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type recordingServer struct {
	UnimplementedSessionStoreServer
	written []byte
}

func (s *recordingServer) Write(_ context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	s.written = in.GetValue()
	return &emptypb.Empty{}, nil
}

func (s *recordingServer) Exists(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.written != nil), nil
}

func method(t *testing.T, name string) grpc.MethodDesc {
	t.Helper()
	for _, m := range SessionStoreServiceDesc.Methods {
		if m.MethodName == name {
			return m
		}
	}
	t.Fatalf("method %s not in service descriptor", name)
	return grpc.MethodDesc{}
}

func TestServiceDesc_Handlers(t *testing.T) {
	srv := &recordingServer{}
	ctx := context.Background()

	_, err := method(t, "Write").Handler(srv, ctx, func(m interface{}) error {
		m.(*wrapperspb.BytesValue).Value = []byte("blob")
		return nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("blob"), srv.written)

	var seen string
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	resp, err := method(t, "Exists").Handler(srv, ctx, func(interface{}) error { return nil }, interceptor)
	require.NoError(t, err)
	require.Equal(t, ExistsMethod, seen)
	require.True(t, resp.(*wrapperspb.BoolValue).GetValue())

	_, err = method(t, "Read").Handler(srv, ctx, func(interface{}) error { return nil }, nil)
	require.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestServiceDesc_DecodeError(t *testing.T) {
	_, err := method(t, "Delete").Handler(&recordingServer{}, context.Background(), func(interface{}) error {
		return status.Error(codes.InvalidArgument, "bad message")
	}, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBlobName(t *testing.T) {
	_, ok := BlobName(context.Background())
	require.False(t, ok)

	out := WithBlobName(context.Background(), "sessions/x")
	md, _ := metadata.FromOutgoingContext(out)
	name, ok := BlobName(metadata.NewIncomingContext(context.Background(), md))
	require.True(t, ok)
	require.Equal(t, "sessions/x", name)

	empty := metadata.NewIncomingContext(context.Background(), metadata.Pairs(BlobNameKey, ""))
	_, ok = BlobName(empty)
	require.False(t, ok)
}
