package storage

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/S0me0neR0man/qtistate/internal/definition"
	"github.com/S0me0neR0man/qtistate/internal/qtibinary"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
	"github.com/S0me0neR0man/qtistate/internal/seeker"
	"github.com/S0me0neR0man/qtistate/internal/stream"
)

type sessionOptions struct {
	compression Compression
	checksum    bool
	key         []byte
	version     qtibinary.Version
	files       *FileManager
	factory     runtime.SessionFactory
}

type Option func(*sessionOptions)

// WithCompression selects the algorithm new blobs are written with. Reads
// accept every algorithm.
func WithCompression(c Compression) Option {
	return func(o *sessionOptions) {
		o.compression = c
	}
}

// WithChecksum appends a BLAKE3 sum to every blob, keyed when key is not
// empty. Blobs written with a checksum must be read with the same setting.
func WithChecksum(key []byte) Option {
	return func(o *sessionOptions) {
		o.checksum = true
		o.key = key
	}
}

// WithVersion selects the binary format version sessions are written in.
func WithVersion(v qtibinary.Version) Option {
	return func(o *sessionOptions) {
		o.version = v
	}
}

// WithFiles keeps the content of File values in files.
func WithFiles(files *FileManager) Option {
	return func(o *sessionOptions) {
		o.files = files
	}
}

// WithFactory sets the factory retrieved sessions are built with.
func WithFactory(f runtime.SessionFactory) Option {
	return func(o *sessionOptions) {
		o.factory = f
	}
}

// SessionStorage persists assessment test sessions under a SessionID.
// It is safe for concurrent use. Concurrent retrieves of one id share a
// single backend read.
type SessionStorage struct {
	backend Backend
	put     *PutChain
	find    *FindChain
	units   []Uniter
	opts    sessionOptions

	seekers sync.Map // *definition.AssessmentTest -> *seeker.Seeker
	sfg     singleflight.Group

	sugar *zap.SugaredLogger
}

func NewSessionStorage(backend Backend, logger *zap.Logger, opts ...Option) (*SessionStorage, error) {
	o := sessionOptions{
		compression: CompressionNone,
		version:     qtibinary.Current(),
		factory:     runtime.DefaultFactory{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.version.Validate(); err != nil {
		return nil, err
	}

	units := []Uniter{NewSysUnit(logger)}
	compress, err := NewCompressUnit(o.compression)
	if err != nil {
		return nil, err
	}
	units = append(units, compress)
	if o.checksum {
		auth, err := NewAuthUnit(o.key)
		if err != nil {
			return nil, err
		}
		units = append(units, auth)
	}

	s := &SessionStorage{
		backend: backend,
		put:     NewPutChain(backend),
		find:    NewFindChain(backend),
		units:   units,
		opts:    o,
		sugar:   logger.Sugar(),
	}
	attachUnits(s.put, s.find, units...)
	return s, nil
}

// Units names the units blobs pass through, outermost first.
func (s *SessionStorage) Units() []string {
	names := make([]string, 0, len(s.units))
	for _, u := range s.units {
		names = append(names, u.Name())
	}
	return names
}

// seeker returns the position index of test, built once per test.
func (s *SessionStorage) seeker(test *definition.AssessmentTest) *seeker.Seeker {
	if sk, ok := s.seekers.Load(test); ok {
		return sk.(*seeker.Seeker)
	}
	sk, _ := s.seekers.LoadOrStore(test, qtibinary.NewSeeker(test))
	return sk.(*seeker.Seeker)
}

func (s *SessionStorage) codecOptions(ctx context.Context) []qtibinary.Option {
	opts := []qtibinary.Option{
		qtibinary.WithVersion(s.opts.version),
		qtibinary.WithFactory(s.opts.factory),
	}
	if s.opts.files != nil {
		opts = append(opts, qtibinary.WithFileManager(s.opts.files.Bind(ctx)))
	}
	return opts
}

// Persist writes session under id, replacing what was stored there.
func (s *SessionStorage) Persist(ctx context.Context, id SessionID, session *runtime.TestSession) error {
	const msg = "persist session"
	if session == nil || session.Test == nil {
		return errors.Errorf("%s %s: no session or test definition", msg, id)
	}

	st := stream.NewMemoryStream(nil)
	if err := st.Open(); err != nil {
		return errors.Wrapf(err, "%s %s", msg, id)
	}
	defer st.Close()

	if err := qtibinary.Persist(st, s.seeker(session.Test), session, s.codecOptions(ctx)...); err != nil {
		s.sugar.Errorw(msg, "id", id, "error", err)
		return errors.Wrapf(err, "%s %s", msg, id)
	}

	blob := &Blob{Name: id.BlobName(), Data: st.Bytes()}
	if err := s.put.Put(ctx, blob); err != nil {
		return errors.Wrapf(err, "%s %s", msg, id)
	}
	return nil
}

// Retrieve reads the session stored under id against test, which must be
// the definition the session was persisted with. Every caller gets its own
// session.
func (s *SessionStorage) Retrieve(ctx context.Context, id SessionID, test *definition.AssessmentTest) (*runtime.TestSession, error) {
	const msg = "retrieve session"
	name := id.BlobName()

	v, err, shared := s.sfg.Do(name, func() (interface{}, error) {
		blob := &Blob{Name: name}
		if err := s.find.Find(ctx, blob); err != nil {
			return nil, err
		}
		return blob.Data, nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.sugar.Errorw(msg, "id", id, "error", err)
		}
		return nil, errors.Wrapf(err, "%s %s", msg, id)
	}
	if shared {
		s.sugar.Debugw(msg, "id", id, "shared", shared)
	}

	st := stream.NewMemoryStream(v.([]byte))
	if err := st.Open(); err != nil {
		return nil, errors.Wrapf(err, "%s %s", msg, id)
	}
	defer st.Close()

	session, err := qtibinary.Retrieve(st, s.seeker(test), s.codecOptions(ctx)...)
	if err != nil {
		s.sugar.Errorw(msg, "id", id, "error", err)
		return nil, errors.Wrapf(err, "%s %s", msg, id)
	}
	return session, nil
}

func (s *SessionStorage) Delete(ctx context.Context, id SessionID) error {
	if err := s.backend.Delete(ctx, id.BlobName()); err != nil {
		return errors.Wrapf(err, "delete session %s", id)
	}
	return nil
}

func (s *SessionStorage) Exists(ctx context.Context, id SessionID) (bool, error) {
	return s.backend.Exists(ctx, id.BlobName())
}
