package qtibinary

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/stream"
)

var errNoSuchFile = errors.New("no such file")

// memoryFiles is a runtime.FileManager keeping files in a map.
type memoryFiles struct {
	files map[string]datatype.File
	next  int
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: make(map[string]datatype.File)}
}

func (m *memoryFiles) Store(filename, mimeType string, data []byte) (datatype.File, error) {
	m.next++
	f := datatype.File{
		ID:       fmt.Sprintf("file-%d", m.next),
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
	}
	m.files[f.ID] = f
	return f, nil
}

func (m *memoryFiles) Retrieve(id string) (datatype.File, error) {
	f, ok := m.files[id]
	if !ok {
		return datatype.File{}, errors.Wrap(errNoSuchFile, id)
	}
	return f, nil
}

func (m *memoryFiles) Delete(f datatype.File) error {
	delete(m.files, f.ID)
	return nil
}

func openStream(t *testing.T, data []byte) *stream.MemoryStream {
	t.Helper()
	s := stream.NewMemoryStream(data)
	require.NoError(t, s.Open())
	return s
}

// newTestAccess returns an Access over an open, empty stream.
func newTestAccess(t *testing.T, version Version) (*Access, *stream.MemoryStream) {
	t.Helper()
	s := openStream(t, nil)
	return NewAccess(s, version, newMemoryFiles()), s
}

// reread returns an Access reading back what a wrote.
func reread(t *testing.T, a *Access, s *stream.MemoryStream) *Access {
	t.Helper()
	return NewAccess(openStream(t, s.Bytes()), a.version, a.files)
}
