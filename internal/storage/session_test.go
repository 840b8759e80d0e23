package storage

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/definition"
	"github.com/S0me0neR0man/qtistate/internal/fixture"
	"github.com/S0me0neR0man/qtistate/internal/qtibinary"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
)

func newSession(t *testing.T, test *definition.AssessmentTest) *runtime.TestSession {
	t.Helper()
	session := runtime.NewSession(runtime.DefaultFactory{}, test)
	session.State = runtime.TestInteracting
	require.NoError(t, session.Visit(0))
	require.NoError(t, session.Visit(1))

	q01, ok := session.ItemSession(fixture.Item(test, "Q01"), 0)
	require.True(t, ok)
	q01.State = runtime.ItemClosed
	q01.NumAttempts = 1
	q01.Duration = datatype.Duration(30 * time.Second)
	response, _ := q01.Variable("RESPONSE")
	response.Value = datatype.Identifier("ChoiceA")

	score, _ := session.Outcome("SCORE")
	score.Value = datatype.Float(1)
	last := time.Unix(1760000000, 0).UTC()
	session.LastAction = &last
	return session
}

func TestSessionStorage_PersistRetrieve(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte{3}, 32)

	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4, CompressionSnappy} {
		for name, opts := range map[string][]Option{
			"plain":    {WithCompression(c)},
			"checksum": {WithCompression(c), WithChecksum(nil)},
			"keyed":    {WithCompression(c), WithChecksum(key)},
		} {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				s, err := NewSessionStorage(NewMemoryBackend(), getTestLogger(), opts...)
				require.NoError(t, err)

				test := fixture.NestedTest()
				session := newSession(t, test)
				id := NewSessionID()
				require.NoError(t, s.Persist(ctx, id, session))

				ok, err := s.Exists(ctx, id)
				require.NoError(t, err)
				require.True(t, ok)

				got, err := s.Retrieve(ctx, id, test)
				require.NoError(t, err)
				require.Equal(t, session, got)

				require.NoError(t, s.Delete(ctx, id))
				_, err = s.Retrieve(ctx, id, test)
				require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
			})
		}
	}
}

func TestSessionStorage_Units(t *testing.T) {
	s, err := NewSessionStorage(NewMemoryBackend(), getTestLogger(),
		WithCompression(CompressionLZ4), WithChecksum(bytes.Repeat([]byte{1}, 32)))
	require.NoError(t, err)
	require.Equal(t, []string{"sys", "lz4", "blake3-keyed"}, s.Units())

	s, err = NewSessionStorage(NewMemoryBackend(), getTestLogger())
	require.NoError(t, err)
	require.Equal(t, []string{"sys", "none"}, s.Units())
}

func TestSessionStorage_Options(t *testing.T) {
	_, err := NewSessionStorage(NewMemoryBackend(), getTestLogger(), WithChecksum([]byte("short")))
	require.Error(t, err)

	_, err = NewSessionStorage(NewMemoryBackend(), getTestLogger(), WithVersion(qtibinary.Legacy(0)))
	require.True(t, errors.Is(err, qtibinary.ErrUnknownVersion))

	_, err = NewSessionStorage(NewMemoryBackend(), getTestLogger(), WithCompression(Compression(7)))
	require.True(t, errors.Is(err, ErrUnknownCompressor))
}

func TestSessionStorage_LegacyVersion(t *testing.T) {
	ctx := context.Background()
	s, err := NewSessionStorage(NewMemoryBackend(), getTestLogger(), WithVersion(qtibinary.Legacy(5)))
	require.NoError(t, err)

	test := fixture.FlatTest()
	session := newSession(t, test)
	id := NewSessionID()
	require.NoError(t, s.Persist(ctx, id, session))

	got, err := s.Retrieve(ctx, id, test)
	require.NoError(t, err)
	require.Nil(t, got.LastAction)
	require.Nil(t, got.Path)
	require.Equal(t, session.Route.Position(), got.Route.Position())
}

func TestSessionStorage_Files(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	files := NewFileManager(backend)
	s, err := NewSessionStorage(backend, getTestLogger(), WithFiles(files), WithCompression(CompressionZstd))
	require.NoError(t, err)

	test := fixture.NestedTest()
	session := newSession(t, test)
	q05, ok := session.ItemSession(fixture.Item(test, "Q05"), 0)
	require.True(t, ok)
	upload, _ := q05.Variable("UPLOAD")
	upload.Value = datatype.File{Filename: "essay.txt", MimeType: "text/plain", Data: []byte("It was a dark night")}

	id := NewSessionID()
	require.NoError(t, s.Persist(ctx, id, session))
	require.Equal(t, 2, backend.Len())

	got, err := s.Retrieve(ctx, id, test)
	require.NoError(t, err)
	gq05, _ := got.ItemSession(fixture.Item(test, "Q05"), 0)
	gupload, _ := gq05.Variable("UPLOAD")
	f := gupload.Value.(datatype.File)
	require.Equal(t, "essay.txt", f.Filename)
	require.Equal(t, []byte("It was a dark night"), f.Data)
	require.Len(t, f.ID, 64)

	// without a file manager File values cannot be written
	bare, err := NewSessionStorage(NewMemoryBackend(), getTestLogger())
	require.NoError(t, err)
	require.True(t, errors.Is(bare.Persist(ctx, NewSessionID(), session), qtibinary.ErrNoFileManager))
}

func TestSessionStorage_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s, err := NewSessionStorage(backend, getTestLogger(), WithChecksum(nil))
	require.NoError(t, err)

	test := fixture.FlatTest()
	id := NewSessionID()
	require.NoError(t, s.Persist(ctx, id, newSession(t, test)))

	data, err := backend.Read(ctx, id.BlobName())
	require.NoError(t, err)
	data[len(data)/2] ^= 0x01
	require.NoError(t, backend.Write(ctx, id.BlobName(), data))

	_, err = s.Retrieve(ctx, id, test)
	require.True(t, errors.Is(err, ErrChecksumMismatch), "got %v", err)
}

func TestSessionStorage_Persist_Errors(t *testing.T) {
	s, err := NewSessionStorage(NewMemoryBackend(), getTestLogger())
	require.NoError(t, err)
	require.Error(t, s.Persist(context.Background(), NewSessionID(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Persist(ctx, NewSessionID(), newSession(t, fixture.FlatTest()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSessionStorage_inGoroutines(t *testing.T) {
	ctx := context.Background()
	fb, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	s, err := NewSessionStorage(fb, getTestLogger(), WithCompression(CompressionSnappy), WithChecksum(nil))
	require.NoError(t, err)

	test := fixture.NestedTest()
	session := newSession(t, test)
	id := NewSessionID()
	require.NoError(t, s.Persist(ctx, id, session))

	const goroutinesCount = 32
	var wg sync.WaitGroup
	wg.Add(goroutinesCount)
	results := make([]*runtime.TestSession, goroutinesCount)
	for i := 0; i < goroutinesCount; i++ {
		go func(i int) {
			defer wg.Done()
			got, err := s.Retrieve(ctx, id, test)
			require.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		require.Equal(t, session, got, "goroutine %d", i)
		if i > 0 {
			require.NotSame(t, results[0], got)
		}
	}
}

func TestFileManager(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := NewFileManager(backend)

	a, err := m.Store(ctx, "a.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	b, err := m.Store(ctx, "a.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, 1, backend.Len())

	c, err := m.Bind(ctx).Store("b.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	require.NotEqual(t, a.ID, c.ID)

	got, err := m.Bind(ctx).Retrieve(a.ID)
	require.NoError(t, err)
	require.Equal(t, a, got)

	require.NoError(t, m.Delete(ctx, a))
	_, err = m.Retrieve(ctx, a.ID)
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = m.Retrieve(ctx, "../sessions/x")
	require.True(t, errors.Is(err, ErrInvalidName))

	// content no longer matching its id
	require.NoError(t, backend.Write(ctx, filesPrefix+c.ID, []byte{0xA0}))
	_, err = m.Retrieve(ctx, c.ID)
	require.True(t, errors.Is(err, ErrChecksumMismatch))
}
