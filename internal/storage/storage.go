// Package storage keeps serialized assessment test sessions in named blobs.
//
// A SessionStorage turns a session into bytes with the qtibinary codec, runs
// them through a chain of units (logging, compression, checksum) and hands the
// result to a Backend. Reads run the same chain backwards.
package storage

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound          = errors.New("storage: blob not found")
	ErrInvalidName       = errors.New("storage: invalid blob name")
	ErrInvalidSessionID  = errors.New("storage: invalid session id")
	ErrCorruptEnvelope   = errors.New("storage: corrupt envelope")
	ErrChecksumMismatch  = errors.New("storage: checksum mismatch")
	ErrUnknownCompressor = errors.New("storage: unknown compression")
)

// Backend keeps blobs by name. Implementations must be safe for concurrent
// use. Read and Delete return ErrNotFound for unknown names.
type Backend interface {
	Write(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}
