package storage

import (
	"context"
)

// FindHandler fills in blob.Data for blob.Name.
type FindHandler interface {
	Find(ctx context.Context, blob *Blob) error
}

// The FindHandlerFunc type is an adapter to allow the use of
// ordinary functions as handlers.
type FindHandlerFunc func(ctx context.Context, blob *Blob) error

// Find calls f(ctx, blob).
func (f FindHandlerFunc) Find(ctx context.Context, blob *Blob) error {
	return f(ctx, blob)
}

// MiddlewareFindFunc is a function which receives a FindHandler and returns another FindHandler
type MiddlewareFindFunc func(FindHandler) FindHandler

// findMiddlewarer interface is anything which implements a MiddlewareFindFunc named FindMiddleware
type findMiddlewarer interface {
	FindMiddleware(FindHandler) FindHandler
}

// FindMiddleware allows MiddlewareFindFunc to implement the findMiddlewarer interface
func (mw MiddlewareFindFunc) FindMiddleware(h FindHandler) FindHandler {
	return mw(h)
}

// FindChain use pattern chain of responsibility to read blobs. The backend
// read runs first. Middlewares see the data on the way back out, the last
// attached one first, so a unit attached to both chains undoes its own
// PutMiddleware.
type FindChain struct {
	findMiddlewares []findMiddlewarer
	backend         Backend
}

// NewFindChain make new chain starting at backend
func NewFindChain(backend Backend) *FindChain {
	return &FindChain{backend: backend}
}

// Attach appends a MiddlewareFindFunc to the find chain
func (p *FindChain) Attach(mwf ...MiddlewareFindFunc) *FindChain {
	for _, fn := range mwf {
		p.findMiddlewares = append(p.findMiddlewares, fn)
	}
	return p
}

func (p *FindChain) Find(ctx context.Context, blob *Blob) error {
	var h FindHandler = FindHandlerFunc(func(ctx context.Context, blob *Blob) error {
		data, err := p.backend.Read(ctx, blob.Name)
		if err != nil {
			return err
		}
		blob.Data = data
		return nil
	})
	for i := len(p.findMiddlewares) - 1; i >= 0; i-- {
		h = p.findMiddlewares[i].FindMiddleware(h)
	}

	return h.Find(ctx, blob)
}
