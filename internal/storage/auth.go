package storage

import (
	"context"
	"crypto/subtle"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

const checksumSize = 32

// AuthUnit appends a BLAKE3 sum to every blob and checks it on the way back.
// With a key the sum is a keyed hash, so only holders of the key can produce
// blobs the unit accepts.
type AuthUnit struct {
	key []byte
}

// NewAuthUnit takes an empty key or a 32 byte one.
func NewAuthUnit(key []byte) (*AuthUnit, error) {
	if len(key) != 0 && len(key) != checksumSize {
		return nil, errors.Errorf("checksum key must be %d bytes, got %d", checksumSize, len(key))
	}
	return &AuthUnit{key: append([]byte(nil), key...)}, nil
}

func (a *AuthUnit) Name() string {
	if len(a.key) != 0 {
		return "blake3-keyed"
	}
	return "blake3"
}

func (a *AuthUnit) sum(data []byte) ([]byte, error) {
	if len(a.key) == 0 {
		s := blake3.Sum256(data)
		return s[:], nil
	}
	h, err := blake3.NewKeyed(a.key)
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(data)
	return h.Sum(nil), nil
}

func (a *AuthUnit) PutMiddleware(next PutHandler) PutHandler {
	return PutHandlerFunc(func(ctx context.Context, blob *Blob) error {
		sum, err := a.sum(blob.Data)
		if err != nil {
			return err
		}
		sealed := make([]byte, 0, len(blob.Data)+checksumSize)
		sealed = append(sealed, blob.Data...)
		blob.Data = append(sealed, sum...)
		return next.Put(ctx, blob)
	})
}

func (a *AuthUnit) FindMiddleware(next FindHandler) FindHandler {
	return FindHandlerFunc(func(ctx context.Context, blob *Blob) error {
		if err := next.Find(ctx, blob); err != nil {
			return err
		}
		if len(blob.Data) < checksumSize {
			return errors.Wrapf(ErrCorruptEnvelope, "%s: %d bytes, no checksum", blob.Name, len(blob.Data))
		}
		payload, stored := blob.Data[:len(blob.Data)-checksumSize], blob.Data[len(blob.Data)-checksumSize:]
		sum, err := a.sum(payload)
		if err != nil {
			return err
		}
		if subtle.ConstantTimeCompare(sum, stored) != 1 {
			return errors.Wrap(ErrChecksumMismatch, blob.Name)
		}
		blob.Data = payload
		return nil
	})
}
