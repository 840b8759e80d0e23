package storage

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

const memoryShards = 16

// MemoryBackend the in-memory Backend. Blobs are spread over sync.Map shards
// by the xxhash of their name.
type MemoryBackend struct {
	shards [memoryShards]sync.Map
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) shard(name string) *sync.Map {
	return &m.shards[xxhash.Sum64String(name)%memoryShards]
}

func (m *MemoryBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.shard(name).Store(name, append([]byte(nil), data...))
	return nil
}

func (m *MemoryBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := m.shard(name).Load(name)
	if !ok {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return append([]byte(nil), v.([]byte)...), nil
}

func (m *MemoryBackend) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, loaded := m.shard(name).LoadAndDelete(name); !loaded {
		return errors.Wrap(ErrNotFound, name)
	}
	return nil
}

func (m *MemoryBackend) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.shard(name).Load(name)
	return ok, nil
}

// Len counts the stored blobs.
func (m *MemoryBackend) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].Range(func(_, _ any) bool {
			n++
			return true
		})
	}
	return n
}
