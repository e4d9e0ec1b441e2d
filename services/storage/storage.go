package storagesvc

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
)

// NewService returns the file storage configured by conf.Storage.Backend.
func NewService(conf *core.Config) (core.FileStorage, error) {
	switch conf.Storage.Backend {
	case "", "local":
		return NewLocalStorage(conf), nil
	case "oss":
		return NewOSSStorage(conf)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

// newKey builds a unique key: <kind dir>/<yyyymmdd>-<uuid>.<ext>
func newKey(kind core.FileKind, filename string) string {
	name := time.Now().UTC().Format("20060102") + "-" + uuid.New().String()
	if ext := core.FileExtension(filename); ext != "" {
		name += "." + ext
	}
	return path.Join(kind.Dir(), name)
}

// prepare validates the file name and downscales images of kind to fit in maxSize x maxSize pixels.
func prepare(kind core.FileKind, filename string, r io.Reader, maxSize int) (io.Reader, error) {
	if err := core.ValidateFileName(kind, filename); err != nil {
		return nil, err
	}
	if !kind.IsImage() || maxSize <= 0 {
		return r, nil
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, core.NewFieldError("file", "invalid image")
	}
	b := img.Bounds()
	if b.Dx() > maxSize || b.Dy() > maxSize {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return nil, core.NewFieldError("file", err.Error())
	}
	buf := new(bytes.Buffer)
	if err = imaging.Encode(buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, errors.Wrap(err, "encoding image")
	}
	return buf, nil
}

func publicURL(baseURL, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + key
}

