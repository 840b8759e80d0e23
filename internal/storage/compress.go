package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Compression identifies the algorithm of a compressed envelope. The values
// are stored in every envelope header and must not change.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
	CompressionSnappy
)

// envelope header: tag u8, uncompressed length u32
const envelopeHeaderSize = 5

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return 0, errors.Wrapf(ErrUnknownCompressor, "%q", name)
	}
}

// zstd encoder and decoder are safe for concurrent use
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("storage: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("storage: zstd decoder initialization failed: " + err.Error())
	}
}

// CompressUnit wraps blobs in a compression envelope. Data the algorithm
// cannot shrink is stored with CompressionNone.
type CompressUnit struct {
	algorithm Compression
}

func NewCompressUnit(algorithm Compression) (*CompressUnit, error) {
	if algorithm > CompressionSnappy {
		return nil, errors.Wrap(ErrUnknownCompressor, algorithm.String())
	}
	return &CompressUnit{algorithm: algorithm}, nil
}

func (c *CompressUnit) Name() string {
	return c.algorithm.String()
}

func (c *CompressUnit) PutMiddleware(next PutHandler) PutHandler {
	return PutHandlerFunc(func(ctx context.Context, blob *Blob) error {
		sealed, err := seal(c.algorithm, blob.Data)
		if err != nil {
			return errors.Wrapf(err, "compress %s", blob.Name)
		}
		blob.Data = sealed
		return next.Put(ctx, blob)
	})
}

func (c *CompressUnit) FindMiddleware(next FindHandler) FindHandler {
	return FindHandlerFunc(func(ctx context.Context, blob *Blob) error {
		if err := next.Find(ctx, blob); err != nil {
			return err
		}
		data, err := unseal(blob.Data)
		if err != nil {
			return errors.Wrapf(err, "decompress %s", blob.Name)
		}
		blob.Data = data
		return nil
	})
}

func seal(algorithm Compression, data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, errors.Errorf("%d bytes do not fit an envelope", len(data))
	}
	payload, ok, err := compress(algorithm, data)
	if err != nil {
		return nil, err
	}
	if !ok {
		algorithm, payload = CompressionNone, data
	}

	out := make([]byte, envelopeHeaderSize, envelopeHeaderSize+len(payload))
	out[0] = byte(algorithm)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	return append(out, payload...), nil
}

// compress reports false when the result would not be smaller than data.
func compress(algorithm Compression, data []byte) ([]byte, bool, error) {
	var out []byte
	switch algorithm {
	case CompressionNone:
		return data, false, nil
	case CompressionZstd:
		out = zstdEncoder.EncodeAll(data, nil)
	case CompressionLZ4:
		out = make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, out, nil)
		if err != nil {
			return nil, false, errors.Wrap(err, "lz4")
		}
		// zero means incompressible
		if n == 0 {
			return nil, false, nil
		}
		out = out[:n]
	case CompressionSnappy:
		out = snappy.Encode(nil, data)
	default:
		return nil, false, errors.Wrap(ErrUnknownCompressor, algorithm.String())
	}
	return out, len(out) < len(data), nil
}

func unseal(envelope []byte) ([]byte, error) {
	if len(envelope) < envelopeHeaderSize {
		return nil, errors.Wrapf(ErrCorruptEnvelope, "%d byte header", len(envelope))
	}
	algorithm := Compression(envelope[0])
	size := int(binary.LittleEndian.Uint32(envelope[1:envelopeHeaderSize]))
	payload := envelope[envelopeHeaderSize:]

	var (
		out []byte
		err error
	)
	switch algorithm {
	case CompressionNone:
		out = payload
	case CompressionZstd:
		out, err = zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
	case CompressionLZ4:
		out = make([]byte, size)
		var n int
		n, err = lz4.UncompressBlock(payload, out)
		out = out[:max(n, 0)]
	case CompressionSnappy:
		out, err = snappy.Decode(nil, payload)
	default:
		return nil, errors.Wrap(ErrUnknownCompressor, algorithm.String())
	}
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptEnvelope, "%s: %v", algorithm, err)
	}
	if len(out) != size {
		return nil, errors.Wrapf(ErrCorruptEnvelope, "%s: %d bytes, header says %d", algorithm, len(out), size)
	}
	return out, nil
}
