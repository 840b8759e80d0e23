// Package binstream reads and writes the fixed-width and length-prefixed
// primitives of the session binary format on top of a stream.Stream.
//
// Every multi-byte value is little-endian. Strings and binaries carry a
// 2-byte length prefix, so a string is at most MaxStringLength bytes long:
// longer strings are truncated on write.
package binstream

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/stream"
)

const MaxStringLength = math.MaxUint16

var byteOrder = binary.LittleEndian

var (
	ErrByteRead     = errors.New("binstream: cannot read byte")
	ErrShortRead    = errors.New("binstream: cannot read short")
	ErrIntegerRead  = errors.New("binstream: cannot read integer")
	ErrFloatRead    = errors.New("binstream: cannot read float")
	ErrBooleanRead  = errors.New("binstream: cannot read boolean")
	ErrStringRead   = errors.New("binstream: cannot read string")
	ErrBinaryRead   = errors.New("binstream: cannot read binary")
	ErrDateTimeRead = errors.New("binstream: cannot read datetime")

	ErrByteWrite     = errors.New("binstream: cannot write byte")
	ErrShortWrite    = errors.New("binstream: cannot write short")
	ErrIntegerWrite  = errors.New("binstream: cannot write integer")
	ErrFloatWrite    = errors.New("binstream: cannot write float")
	ErrBooleanWrite  = errors.New("binstream: cannot write boolean")
	ErrStringWrite   = errors.New("binstream: cannot write string")
	ErrBinaryWrite   = errors.New("binstream: cannot write binary")
	ErrDateTimeWrite = errors.New("binstream: cannot write datetime")

	ErrInvalidBoolean = errors.New("binstream: boolean byte is neither 0 nor 1")
)

// Access is the primitive codec. It holds no state besides the stream.
type Access struct {
	stream stream.Stream
}

func NewAccess(s stream.Stream) *Access {
	return &Access{stream: s}
}

// Stream returns the underlying stream.
func (a *Access) Stream() stream.Stream {
	return a.stream
}

func (a *Access) read(length int, kind error) ([]byte, error) {
	b, err := a.stream.Read(length)
	if err != nil {
		if errors.Is(err, stream.ErrNotOpen) {
			return nil, err
		}
		return nil, errors.Wrap(kind, err.Error())
	}
	return b, nil
}

func (a *Access) write(b []byte, kind error) error {
	if _, err := a.stream.Write(b); err != nil {
		if errors.Is(err, stream.ErrNotOpen) {
			return err
		}
		return errors.Wrap(kind, err.Error())
	}
	return nil
}

func (a *Access) ReadByte() (byte, error) {
	b, err := a.read(1, ErrByteRead)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (a *Access) WriteByte(v byte) error {
	return a.write([]byte{v}, ErrByteWrite)
}

func (a *Access) ReadShort() (uint16, error) {
	b, err := a.read(2, ErrShortRead)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint16(b), nil
}

func (a *Access) WriteShort(v uint16) error {
	b := make([]byte, 2)
	byteOrder.PutUint16(b, v)
	return a.write(b, ErrShortWrite)
}

func (a *Access) ReadInteger() (int32, error) {
	b, err := a.read(4, ErrIntegerRead)
	if err != nil {
		return 0, err
	}
	return int32(byteOrder.Uint32(b)), nil
}

func (a *Access) WriteInteger(v int32) error {
	b := make([]byte, 4)
	byteOrder.PutUint32(b, uint32(v))
	return a.write(b, ErrIntegerWrite)
}

func (a *Access) ReadFloat() (float64, error) {
	b, err := a.read(8, ErrFloatRead)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(byteOrder.Uint64(b)), nil
}

func (a *Access) WriteFloat(v float64) error {
	b := make([]byte, 8)
	byteOrder.PutUint64(b, math.Float64bits(v))
	return a.write(b, ErrFloatWrite)
}

func (a *Access) ReadBoolean() (bool, error) {
	b, err := a.read(1, ErrBooleanRead)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(ErrInvalidBoolean, "got 0x%02x", b[0])
	}
}

func (a *Access) WriteBoolean(v bool) error {
	var b byte
	if v {
		b = 1
	}
	return a.write([]byte{b}, ErrBooleanWrite)
}

// ReadString reads a 2-byte length followed by that many bytes.
func (a *Access) ReadString() (string, error) {
	b, err := a.read(2, ErrStringRead)
	if err != nil {
		return "", err
	}
	b, err = a.read(int(byteOrder.Uint16(b)), ErrStringRead)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteString writes v with a 2-byte length prefix. Only the first
// MaxStringLength bytes of v are written.
func (a *Access) WriteString(v string) error {
	if len(v) > MaxStringLength {
		v = v[:MaxStringLength]
	}
	b := make([]byte, 2+len(v))
	byteOrder.PutUint16(b, uint16(len(v)))
	copy(b[2:], v)
	return a.write(b, ErrStringWrite)
}

func (a *Access) ReadBinary() ([]byte, error) {
	b, err := a.read(2, ErrBinaryRead)
	if err != nil {
		return nil, err
	}
	return a.read(int(byteOrder.Uint16(b)), ErrBinaryRead)
}

func (a *Access) WriteBinary(v []byte) error {
	if len(v) > MaxStringLength {
		return errors.Wrapf(ErrBinaryWrite, "%d bytes exceed the %d bytes limit", len(v), MaxStringLength)
	}
	b := make([]byte, 2+len(v))
	byteOrder.PutUint16(b, uint16(len(v)))
	copy(b[2:], v)
	return a.write(b, ErrBinaryWrite)
}

// ReadDateTime reads a 4-byte Unix timestamp. The result is in UTC.
func (a *Access) ReadDateTime() (time.Time, error) {
	b, err := a.read(4, ErrDateTimeRead)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(int32(byteOrder.Uint32(b))), 0).UTC(), nil
}

// WriteDateTime writes v as whole seconds since the Unix epoch.
func (a *Access) WriteDateTime(v time.Time) error {
	sec := v.Unix()
	if sec < math.MinInt32 || sec > math.MaxInt32 {
		return errors.Wrapf(ErrDateTimeWrite, "%s is out of the 32-bit timestamp range", v)
	}
	b := make([]byte, 4)
	byteOrder.PutUint32(b, uint32(int32(sec)))
	return a.write(b, ErrDateTimeWrite)
}
