package storagesvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
)

type localStorage struct {
	root         string
	baseURL      string
	maxImageSize int
}

var _ core.FileStorage = (*localStorage)(nil) // interface compliance check

// NewLocalStorage stores files under conf.Storage.LocalRoot.
func NewLocalStorage(conf *core.Config) *localStorage {
	return &localStorage{
		root:         conf.Storage.LocalRoot,
		baseURL:      conf.Storage.PublicBaseURL,
		maxImageSize: conf.Storage.MaxImageSize,
	}
}

func (s *localStorage) Save(ctx context.Context, kind core.FileKind, filename string, r io.Reader) (string, error) {
	r, err := prepare(kind, filename, r, s.maxImageSize)
	if err != nil {
		return "", err
	}

	key := newKey(kind, filename)
	fpath := filepath.Join(s.root, filepath.FromSlash(key))
	if err = os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
		return "", errors.Wrap(err, "creating storage dir")
	}

	f, err := os.Create(fpath)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer f.Close()

	if _, err = io.Copy(f, r); err != nil {
		_ = os.Remove(fpath)
		return "", errors.Wrap(err, "writing file")
	}
	return key, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

func (s *localStorage) URL(key string) string {
	return publicURL(s.baseURL, key)
}
