package fixture

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/qtistate/internal/storage"
)

func TestRandomSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	files := storage.NewFileManager(backend)
	s, err := storage.NewSessionStorage(backend, zap.NewNop(),
		storage.WithFiles(files), storage.WithCompression(storage.CompressionLZ4), storage.WithChecksum(nil))
	require.NoError(t, err)

	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		test := NestedTest()
		if seed%2 == 0 {
			test = FlatTest()
		}

		session, err := RandomSession(rng, test, files.Bind(ctx))
		require.NoError(t, err, "seed %d", seed)

		id := storage.NewSessionID()
		require.NoError(t, s.Persist(ctx, id, session), "seed %d", seed)
		got, err := s.Retrieve(ctx, id, test)
		require.NoError(t, err, "seed %d", seed)
		require.Equal(t, session, got, "seed %d", seed)
	}
}

func TestRandomSession_Deterministic(t *testing.T) {
	test := NestedTest()
	a, err := RandomSession(rand.New(rand.NewSource(7)), test, nil)
	require.NoError(t, err)
	b, err := RandomSession(rand.New(rand.NewSource(7)), test, nil)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
