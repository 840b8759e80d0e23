// Package grpcproto holds the qtistate.SessionStore service: a blob store
// keyed by name, the name travelling in request metadata. Messages are the
// protobuf well-known wrapper types.
package grpcproto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "qtistate.SessionStore"

	// BlobNameKey is the metadata key carrying the blob name of every call.
	BlobNameKey = "x-blob-name"

	WriteMethod  = "/" + ServiceName + "/Write"
	ReadMethod   = "/" + ServiceName + "/Read"
	DeleteMethod = "/" + ServiceName + "/Delete"
	ExistsMethod = "/" + ServiceName + "/Exists"
)

// WithBlobName returns ctx with name attached to outgoing metadata.
func WithBlobName(ctx context.Context, name string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, BlobNameKey, name)
}

// BlobName reads the blob name from incoming metadata.
func BlobName(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	v := md.Get(BlobNameKey)
	if len(v) != 1 || v[0] == "" {
		return "", false
	}
	return v[0], true
}

// SessionStoreServer is the server API for the SessionStore service.
type SessionStoreServer interface {
	Write(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Read(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Delete(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Exists(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
}

func RegisterSessionStoreServer(s grpc.ServiceRegistrar, srv SessionStoreServer) {
	s.RegisterService(&SessionStoreServiceDesc, srv)
}

// methodHandler is the signature of grpc.MethodDesc.Handler.
type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

// unaryHandler adapts a typed method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(SessionStoreServer, context.Context, *Req) (*Resp, error)) methodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SessionStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SessionStoreServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var SessionStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Write",
			Handler:    unaryHandler(WriteMethod, SessionStoreServer.Write),
		},
		{
			MethodName: "Read",
			Handler:    unaryHandler(ReadMethod, SessionStoreServer.Read),
		},
		{
			MethodName: "Delete",
			Handler:    unaryHandler(DeleteMethod, SessionStoreServer.Delete),
		},
		{
			MethodName: "Exists",
			Handler:    unaryHandler(ExistsMethod, SessionStoreServer.Exists),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "qtistate/sessionstore.proto",
}

// SessionStoreClient is the client API for the SessionStore service. Every
// call needs a context built with WithBlobName.
type SessionStoreClient interface {
	Write(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Read(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Delete(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Exists(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type sessionStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionStoreClient(cc grpc.ClientConnInterface) SessionStoreClient {
	return &sessionStoreClient{cc}
}

func (c *sessionStoreClient) Write(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, WriteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionStoreClient) Read(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ReadMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionStoreClient) Delete(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DeleteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionStoreClient) Exists(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, ExistsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// UnimplementedSessionStoreServer can be embedded to have forward compatible implementations.
type UnimplementedSessionStoreServer struct{}

func (UnimplementedSessionStoreServer) Write(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, errUnimplemented("Write")
}

func (UnimplementedSessionStoreServer) Read(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, errUnimplemented("Read")
}

func (UnimplementedSessionStoreServer) Delete(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, errUnimplemented("Delete")
}

func (UnimplementedSessionStoreServer) Exists(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return nil, errUnimplemented("Exists")
}

func errUnimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}
