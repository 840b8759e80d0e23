package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// checkName accepts slash separated relative names without dot segments.
func checkName(name string) error {
	if name == "" || path.IsAbs(name) || path.Clean(name) != name ||
		name == ".." || strings.HasPrefix(name, "../") || strings.Contains(name, `\`) {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

// FileBackend keeps one file per blob under a root directory. Writes go
// to a temporary file renamed over the target, so readers never see a
// partial blob.
type FileBackend struct {
	root string
}

// NewFileBackend creates root if needed.
func NewFileBackend(root string) (*FileBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create store directory %s", root)
	}
	return &FileBackend{root: root}, nil
}

func (b *FileBackend) Root() string {
	return b.root
}

func (b *FileBackend) path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(name)), nil
}

func (b *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	const msg = "file backend write"
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := b.path(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "%s %s", msg, name)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "%s %s", msg, name)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "%s %s", msg, name)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "%s %s", msg, name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "%s %s", msg, name)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return errors.Wrapf(err, "%s %s", msg, name)
	}
	return nil
}

func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := b.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "file backend read %s", name)
	}
	return data, nil
}

func (b *FileBackend) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := b.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if os.IsNotExist(err) {
		return errors.Wrap(ErrNotFound, name)
	}
	return errors.Wrapf(err, "file backend delete %s", name)
}

func (b *FileBackend) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := b.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Wrapf(err, "file backend stat %s", name)
	}
}
