// Package stream provides the byte streams the binary session codec reads
// from and writes to.
package stream

import (
	"github.com/pkg/errors"
)

const initialBufferSize = 512

var (
	ErrNotOpen     = errors.New("stream is not open")
	ErrAlreadyOpen = errors.New("stream is already open")
	ErrEndOfStream = errors.New("end of stream")
)

// Stream is a byte stream with a read cursor. Writes always append at the end.
type Stream interface {
	Open() error
	Close() error
	IsOpen() bool
	Read(length int) ([]byte, error)
	Write(data []byte) (int, error)
	Rewind() error
}

// MemoryStream is an in-memory Stream.
//
// IMPORTANT: does not provide thread safety
type MemoryStream struct {
	buff     []byte
	length   int
	position int
	open     bool
}

// NewMemoryStream returns a closed stream holding a copy of data.
func NewMemoryStream(data []byte) *MemoryStream {
	s := &MemoryStream{}
	s.ensureCapacity(len(data))
	copy(s.buff, data)
	s.length = len(data)
	return s
}

func (s *MemoryStream) Open() error {
	if s.open {
		return ErrAlreadyOpen
	}
	s.open = true
	return nil
}

func (s *MemoryStream) Close() error {
	if !s.open {
		return ErrNotOpen
	}
	s.open = false
	return nil
}

func (s *MemoryStream) IsOpen() bool {
	return s.open
}

// Read returns the next length bytes and moves the read cursor past them.
// Nothing is consumed when fewer than length bytes remain.
func (s *MemoryStream) Read(length int) ([]byte, error) {
	if !s.open {
		return nil, ErrNotOpen
	}
	if length < 0 || s.position+length > s.length {
		return nil, errors.Wrapf(ErrEndOfStream, "%d byte(s) requested, %d available", length, s.length-s.position)
	}

	v := make([]byte, length)
	copy(v, s.buff[s.position:s.position+length])
	s.position += length
	return v, nil
}

// Write appends data at the end of the stream.
func (s *MemoryStream) Write(data []byte) (int, error) {
	if !s.open {
		return 0, ErrNotOpen
	}

	s.ensureCapacity(len(data))
	copy(s.buff[s.length:], data)
	s.length += len(data)
	return len(data), nil
}

// Rewind moves the read cursor back to the first byte.
func (s *MemoryStream) Rewind() error {
	if !s.open {
		return ErrNotOpen
	}
	s.position = 0
	return nil
}

// EOF reports whether every byte has been read.
func (s *MemoryStream) EOF() bool {
	return s.position >= s.length
}

// Len returns the number of bytes held by the stream.
func (s *MemoryStream) Len() int {
	return s.length
}

// Position returns the read cursor.
func (s *MemoryStream) Position() int {
	return s.position
}

// Bytes returns a copy of the stream content, regardless of the read cursor.
func (s *MemoryStream) Bytes() []byte {
	v := make([]byte, s.length)
	copy(v, s.buff[:s.length])
	return v
}

func (s *MemoryStream) ensureCapacity(n int) {
	capacity := len(s.buff)
	if s.length+n <= capacity {
		return
	}

	if capacity == 0 {
		capacity = initialBufferSize
	}
	for s.length+n > capacity {
		capacity *= 2
	}

	old := s.buff
	s.buff = make([]byte, capacity)
	copy(s.buff, old[:s.length])
}
