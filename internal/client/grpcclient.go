// Package client implements storage.Backend against a remote session store.
package client

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/S0me0neR0man/qtistate/internal/grpcproto"
	"github.com/S0me0neR0man/qtistate/internal/storage"
	"github.com/S0me0neR0man/qtistate/internal/token"
)

type GRPCClient struct {
	conn   *grpc.ClientConn
	client grpcproto.SessionStoreClient
}

// NewGRPClient connects lazily to target. opts are added after the token
// credentials and the insecure transport.
func NewGRPClient(target string, tokens *token.Tokens, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := GRPCClient{}

	opts = append([]grpc.DialOption{
		grpc.WithPerRPCCredentials(tokens),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	var err error
	c.conn, err = grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	c.client = grpcproto.NewSessionStoreClient(c.conn)

	return &c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// fromStatus maps status codes back to storage sentinels.
func fromStatus(err error, name string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errors.Wrap(storage.ErrNotFound, name)
	case codes.InvalidArgument:
		return errors.Wrapf(storage.ErrInvalidName, "%s: %s", name, status.Convert(err).Message())
	case codes.Canceled:
		return errors.Wrap(context.Canceled, name)
	case codes.DeadlineExceeded:
		return errors.Wrap(context.DeadlineExceeded, name)
	default:
		return errors.Wrap(err, name)
	}
}

func (c *GRPCClient) Write(ctx context.Context, name string, data []byte) error {
	_, err := c.client.Write(grpcproto.WithBlobName(ctx, name), wrapperspb.Bytes(data))
	if err != nil {
		return fromStatus(err, name)
	}
	return nil
}

func (c *GRPCClient) Read(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.client.Read(grpcproto.WithBlobName(ctx, name), &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus(err, name)
	}
	return resp.GetValue(), nil
}

func (c *GRPCClient) Delete(ctx context.Context, name string) error {
	_, err := c.client.Delete(grpcproto.WithBlobName(ctx, name), &emptypb.Empty{})
	if err != nil {
		return fromStatus(err, name)
	}
	return nil
}

func (c *GRPCClient) Exists(ctx context.Context, name string) (bool, error) {
	resp, err := c.client.Exists(grpcproto.WithBlobName(ctx, name), &emptypb.Empty{})
	if err != nil {
		return false, fromStatus(err, name)
	}
	return resp.GetValue(), nil
}
