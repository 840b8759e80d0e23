package server

import (
	"context"
	"log"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/S0me0neR0man/qtistate/internal/grpcproto"
	"github.com/S0me0neR0man/qtistate/internal/storage"
	"github.com/S0me0neR0man/qtistate/internal/token"
)

var (
	once   sync.Once
	logger *zap.Logger
)

func getTestLogger() *zap.Logger {
	once.Do(func() {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
	})

	return logger
}

// startServer serves backend over an in-memory listener until the test ends.
func startServer(t *testing.T, backend storage.Backend, secret string) grpcproto.SessionStoreClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ss := NewGRPCServer(backend, token.NewTokens(secret), getTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ss.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		ss.Wait()
		require.NoError(t, <-done)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(token.NewTokens(secret)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpcproto.NewSessionStoreClient(conn)
}

func TestGRPCServer_Blobs(t *testing.T) {
	backend := storage.NewMemoryBackend()
	c := startServer(t, backend, "s3cret")
	ctx := grpcproto.WithBlobName(context.Background(), "sessions/a")

	exists, err := c.Exists(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.False(t, exists.GetValue())

	_, err = c.Read(ctx, &emptypb.Empty{})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Write(ctx, wrapperspb.Bytes([]byte{1, 2, 3}))
	require.NoError(t, err)
	stored, err := backend.Read(context.Background(), "sessions/a")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, stored)

	got, err := c.Read(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got.GetValue())

	exists, err = c.Exists(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	require.True(t, exists.GetValue())

	_, err = c.Delete(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	_, err = c.Delete(ctx, &emptypb.Empty{})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCServer_BadRequests(t *testing.T) {
	c := startServer(t, storage.NewMemoryBackend(), "")

	_, err := c.Read(context.Background(), &emptypb.Empty{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Write(grpcproto.WithBlobName(context.Background(), "../etc/passwd"), wrapperspb.Bytes(nil))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCServer_Token(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	ss := NewGRPCServer(storage.NewMemoryBackend(), token.NewTokens("s3cret"), getTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = ss.Serve(ctx, lis) }()
	defer func() {
		cancel()
		ss.Wait()
	}()

	for _, secret := range []string{"", "wrong"} {
		conn, err := grpc.NewClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithPerRPCCredentials(token.NewTokens(secret)),
		)
		require.NoError(t, err)
		_, err = grpcproto.NewSessionStoreClient(conn).
			Exists(grpcproto.WithBlobName(context.Background(), "x"), &emptypb.Empty{})
		require.Equal(t, codes.Unauthenticated, status.Code(err), "token %q", secret)
		require.NoError(t, conn.Close())
	}
}
