package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// traceUnit records the order its middlewares run in.
type traceUnit struct {
	name  string
	trace *[]string
}

func (u traceUnit) Name() string { return u.name }

func (u traceUnit) PutMiddleware(next PutHandler) PutHandler {
	return PutHandlerFunc(func(ctx context.Context, blob *Blob) error {
		*u.trace = append(*u.trace, "put "+u.name)
		blob.Data = append(blob.Data, u.name...)
		return next.Put(ctx, blob)
	})
}

func (u traceUnit) FindMiddleware(next FindHandler) FindHandler {
	return FindHandlerFunc(func(ctx context.Context, blob *Blob) error {
		if err := next.Find(ctx, blob); err != nil {
			return err
		}
		*u.trace = append(*u.trace, "find "+u.name)
		if !bytes.HasSuffix(blob.Data, []byte(u.name)) {
			return ErrCorruptEnvelope
		}
		blob.Data = blob.Data[:len(blob.Data)-len(u.name)]
		return nil
	})
}

func TestChain_Order(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	var trace []string
	put, find := NewPutChain(b), NewFindChain(b)
	attachUnits(put, find, traceUnit{"a", &trace}, traceUnit{"b", &trace})

	require.NoError(t, put.Put(ctx, &Blob{Name: "x", Data: []byte("data")}))
	stored, err := b.Read(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, "dataab", string(stored))

	blob := &Blob{Name: "x"}
	require.NoError(t, find.Find(ctx, blob))
	require.Equal(t, "data", string(blob.Data))
	require.Equal(t, []string{"put a", "put b", "find b", "find a"}, trace)
}

func TestChain_Empty(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, NewPutChain(b).Put(ctx, &Blob{Name: "x", Data: []byte("raw")}))

	blob := &Blob{Name: "x"}
	require.NoError(t, NewFindChain(b).Find(ctx, blob))
	require.Equal(t, []byte("raw"), blob.Data)

	err := NewFindChain(b).Find(ctx, &Blob{Name: "y"})
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestCompressUnit(t *testing.T) {
	compressible := bytes.Repeat([]byte("RESPONSE ChoiceA SCORE 1.0 "), 200)
	random := make([]byte, 4096)
	_, err := rand.Read(random)
	require.NoError(t, err)

	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4, CompressionSnappy} {
		t.Run(c.String(), func(t *testing.T) {
			parsed, err := ParseCompression(c.String())
			require.NoError(t, err)
			require.Equal(t, c, parsed)

			for name, data := range map[string][]byte{"compressible": compressible, "random": random, "empty": {}} {
				sealed, err := seal(c, data)
				require.NoError(t, err)
				switch {
				case name == "compressible" && c != CompressionNone:
					require.Equal(t, byte(c), sealed[0], name)
					require.Less(t, len(sealed), len(data))
				default:
					require.Equal(t, byte(CompressionNone), sealed[0], name)
				}

				got, err := unseal(sealed)
				require.NoError(t, err, name)
				require.Equal(t, len(data), len(got), name)
				require.True(t, bytes.Equal(data, got), name)
			}
		})
	}
}

func TestCompressUnit_Errors(t *testing.T) {
	_, err := ParseCompression("brotli")
	require.True(t, errors.Is(err, ErrUnknownCompressor))
	_, err = NewCompressUnit(Compression(9))
	require.True(t, errors.Is(err, ErrUnknownCompressor))

	sealed, err := seal(CompressionZstd, bytes.Repeat([]byte("a"), 1000))
	require.NoError(t, err)

	tests := []struct {
		name     string
		envelope []byte
		want     error
	}{
		{name: "short header", envelope: sealed[:3], want: ErrCorruptEnvelope},
		{name: "unknown tag", envelope: append([]byte{9}, sealed[1:]...), want: ErrUnknownCompressor},
		{name: "truncated payload", envelope: sealed[:len(sealed)-2], want: ErrCorruptEnvelope},
		{name: "wrong size", envelope: append([]byte{0, 9, 0, 0, 0}, 'a'), want: ErrCorruptEnvelope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := unseal(tt.envelope)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestAuthUnit(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{7}, 32)

	for name, k := range map[string][]byte{"plain": nil, "keyed": key} {
		t.Run(name, func(t *testing.T) {
			b := NewMemoryBackend()
			auth, err := NewAuthUnit(k)
			require.NoError(t, err)
			put, find := NewPutChain(b), NewFindChain(b)
			attachUnits(put, find, auth)

			require.NoError(t, put.Put(ctx, &Blob{Name: "x", Data: []byte("payload")}))
			stored, err := b.Read(ctx, "x")
			require.NoError(t, err)
			require.Len(t, stored, len("payload")+checksumSize)

			blob := &Blob{Name: "x"}
			require.NoError(t, find.Find(ctx, blob))
			require.Equal(t, []byte("payload"), blob.Data)

			stored[0] ^= 0xFF
			require.NoError(t, b.Write(ctx, "x", stored))
			require.True(t, errors.Is(find.Find(ctx, &Blob{Name: "x"}), ErrChecksumMismatch))

			require.NoError(t, b.Write(ctx, "x", []byte("short")))
			require.True(t, errors.Is(find.Find(ctx, &Blob{Name: "x"}), ErrCorruptEnvelope))
		})
	}
}

func TestAuthUnit_WrongKey(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	writer, err := NewAuthUnit(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	reader, err := NewAuthUnit(bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)
	require.NoError(t, writer.PutMiddleware(PutHandlerFunc(func(ctx context.Context, blob *Blob) error {
		return b.Write(ctx, blob.Name, blob.Data)
	})).Put(ctx, &Blob{Name: "x", Data: []byte("payload")}))

	find := NewFindChain(b).Attach(reader.FindMiddleware)
	require.True(t, errors.Is(find.Find(ctx, &Blob{Name: "x"}), ErrChecksumMismatch))

	_, err = NewAuthUnit([]byte("short key"))
	require.Error(t, err)
}
