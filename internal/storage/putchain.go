package storage

import (
	"context"
)

// Blob is what travels through the chains: a backend name and its bytes.
type Blob struct {
	Name string
	Data []byte
}

// PutHandler writes a blob.
type PutHandler interface {
	Put(ctx context.Context, blob *Blob) error
}

// The PutHandlerFunc type is an adapter to allow the use of
// ordinary functions as handlers. If f is a function
// with the appropriate signature, PutHandlerFunc(f) is a
// PutHandler that calls f.
type PutHandlerFunc func(ctx context.Context, blob *Blob) error

// Put calls f(ctx, blob).
func (f PutHandlerFunc) Put(ctx context.Context, blob *Blob) error {
	return f(ctx, blob)
}

// MiddlewarePutFunc is a function which receives a PutHandler and returns another PutHandler
type MiddlewarePutFunc func(PutHandler) PutHandler

// putMiddlewarer interface is anything which implements a MiddlewarePutFunc named PutMiddleware
type putMiddlewarer interface {
	PutMiddleware(PutHandler) PutHandler
}

// PutMiddleware allows MiddlewarePutFunc to implement the putMiddlewarer interface
func (mw MiddlewarePutFunc) PutMiddleware(h PutHandler) PutHandler {
	return mw(h)
}

// PutChain use pattern chain of responsibility to write blobs. Middlewares
// run in attach order, each one before the next, and the backend write last.
type PutChain struct {
	putMiddlewares []putMiddlewarer
	backend        Backend
}

// NewPutChain make new chain ending in backend
func NewPutChain(backend Backend) *PutChain {
	return &PutChain{backend: backend}
}

// Attach appends a MiddlewarePutFunc to the put chain
func (p *PutChain) Attach(mwf ...MiddlewarePutFunc) *PutChain {
	for _, fn := range mwf {
		p.putMiddlewares = append(p.putMiddlewares, fn)
	}
	return p
}

// Put runs blob through the chain. The chain may replace blob.Data.
func (p *PutChain) Put(ctx context.Context, blob *Blob) error {
	var h PutHandler = PutHandlerFunc(func(ctx context.Context, blob *Blob) error {
		return p.backend.Write(ctx, blob.Name, blob.Data)
	})
	for i := len(p.putMiddlewares) - 1; i >= 0; i-- {
		h = p.putMiddlewares[i].PutMiddleware(h)
	}

	return h.Put(ctx, blob)
}
