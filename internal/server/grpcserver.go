// Package server serves a storage.Backend over the qtistate.SessionStore
// gRPC service.
package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/S0me0neR0man/qtistate/internal/grpcproto"
	"github.com/S0me0neR0man/qtistate/internal/storage"
	"github.com/S0me0neR0man/qtistate/internal/token"
)

var (
	errMissingMetadata = status.Errorf(codes.InvalidArgument, "missing metadata")
	errMissingBlobName = status.Errorf(codes.InvalidArgument, "missing %s metadata", grpcproto.BlobNameKey)
	errInvalidToken    = status.Errorf(codes.Unauthenticated, "invalid token")
)

type GRPCServer struct {
	grpcproto.UnimplementedSessionStoreServer

	backend storage.Backend
	tokens  *token.Tokens
	sugar   *zap.SugaredLogger
	gserv   *grpc.Server

	wg sync.WaitGroup
}

func NewGRPCServer(backend storage.Backend, tokens *token.Tokens, logger *zap.Logger) *GRPCServer {
	ss := &GRPCServer{
		backend: backend,
		tokens:  tokens,
		sugar:   logger.Sugar(),
	}
	ss.gserv = grpc.NewServer(grpc.UnaryInterceptor(ss.ensureValidToken))
	grpcproto.RegisterSessionStoreServer(ss.gserv, ss)
	return ss
}

// Start listens on address and serves until ctx is done.
func (ss *GRPCServer) Start(ctx context.Context, address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return ss.Serve(ctx, lis)
}

// Serve serves lis until ctx is done, then stops gracefully.
func (ss *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	ss.sugar.Infow("grpcserver start", "address", lis.Addr().String())
	ss.wg.Add(1)
	go ss.gracefulStop(ctx)

	return ss.gserv.Serve(lis)
}

func (ss *GRPCServer) gracefulStop(ctx context.Context) {
	defer ss.wg.Done()

	<-ctx.Done()
	ss.gserv.GracefulStop()
	ss.sugar.Infow("grpcserver stopped")
}

func (ss *GRPCServer) Wait() {
	ss.wg.Wait()
}

func (ss *GRPCServer) ensureValidToken(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, errMissingMetadata
	}
	// The keys within metadata.MD are normalized to lowercase.
	if !ss.tokens.Valid(md[token.AuthorizationKey]) {
		ss.sugar.Warnw("ensureValidToken", "method", info.FullMethod)
		return nil, errInvalidToken
	}
	return handler(ctx, req)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidName):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (ss *GRPCServer) Write(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	name, ok := grpcproto.BlobName(ctx)
	if !ok {
		return nil, errMissingBlobName
	}
	if err := ss.backend.Write(ctx, name, in.GetValue()); err != nil {
		ss.sugar.Errorw("write", "blob", name, "error", err)
		return nil, toStatus(err)
	}
	ss.sugar.Debugw("write", "blob", name, "size", len(in.GetValue()))
	return &emptypb.Empty{}, nil
}

func (ss *GRPCServer) Read(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	name, ok := grpcproto.BlobName(ctx)
	if !ok {
		return nil, errMissingBlobName
	}
	data, err := ss.backend.Read(ctx, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(data), nil
}

func (ss *GRPCServer) Delete(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	name, ok := grpcproto.BlobName(ctx)
	if !ok {
		return nil, errMissingBlobName
	}
	if err := ss.backend.Delete(ctx, name); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (ss *GRPCServer) Exists(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	name, ok := grpcproto.BlobName(ctx)
	if !ok {
		return nil, errMissingBlobName
	}
	found, err := ss.backend.Exists(ctx, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(found), nil
}
