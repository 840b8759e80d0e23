package storage

import (
	"context"
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"github.com/S0me0neR0man/qtistate/internal/datatype"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
)

const filesPrefix = "files/"

type fileRecord struct {
	Filename string `cbor:"1,keyasint"`
	MimeType string `cbor:"2,keyasint"`
	Data     []byte `cbor:"3,keyasint"`
}

// FileManager keeps the content of candidate-submitted files on a Backend.
// A file's id is the BLAKE3 hex digest of its record, so storing the same
// file twice yields the same id.
type FileManager struct {
	backend Backend
}

func NewFileManager(backend Backend) *FileManager {
	return &FileManager{backend: backend}
}

func (m *FileManager) Store(ctx context.Context, filename, mimeType string, data []byte) (datatype.File, error) {
	const msg = "store file"
	rec, err := cbor.Marshal(fileRecord{Filename: filename, MimeType: mimeType, Data: data})
	if err != nil {
		return datatype.File{}, errors.Wrapf(err, "%s %s", msg, filename)
	}
	sum := blake3.Sum256(rec)
	id := hex.EncodeToString(sum[:])
	if err := m.backend.Write(ctx, filesPrefix+id, rec); err != nil {
		return datatype.File{}, errors.Wrapf(err, "%s %s", msg, filename)
	}
	return datatype.File{ID: id, Filename: filename, MimeType: mimeType, Data: data}, nil
}

func (m *FileManager) Retrieve(ctx context.Context, id string) (datatype.File, error) {
	const msg = "retrieve file"
	if _, err := hex.DecodeString(id); err != nil || len(id) != 2*checksumSize {
		return datatype.File{}, errors.Wrapf(ErrInvalidName, "%s %q", msg, id)
	}
	rec, err := m.backend.Read(ctx, filesPrefix+id)
	if err != nil {
		return datatype.File{}, errors.Wrapf(err, "%s %s", msg, id)
	}
	sum := blake3.Sum256(rec)
	if hex.EncodeToString(sum[:]) != id {
		return datatype.File{}, errors.Wrapf(ErrChecksumMismatch, "%s %s", msg, id)
	}
	var r fileRecord
	if err := cbor.Unmarshal(rec, &r); err != nil {
		return datatype.File{}, errors.Wrapf(ErrCorruptEnvelope, "%s %s: %v", msg, id, err)
	}
	return datatype.File{ID: id, Filename: r.Filename, MimeType: r.MimeType, Data: r.Data}, nil
}

func (m *FileManager) Delete(ctx context.Context, f datatype.File) error {
	return m.backend.Delete(ctx, filesPrefix+f.ID)
}

// Bind returns a runtime.FileManager doing every call under ctx.
func (m *FileManager) Bind(ctx context.Context) runtime.FileManager {
	return boundFiles{ctx: ctx, m: m}
}

type boundFiles struct {
	ctx context.Context
	m   *FileManager
}

func (b boundFiles) Store(filename, mimeType string, data []byte) (datatype.File, error) {
	return b.m.Store(b.ctx, filename, mimeType, data)
}

func (b boundFiles) Retrieve(id string) (datatype.File, error) {
	return b.m.Retrieve(b.ctx, id)
}

func (b boundFiles) Delete(f datatype.File) error {
	return b.m.Delete(b.ctx, f)
}
