package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
)

var fileField = "file"

// saveUpload stores the multipart file of the request. An absent file gives "" and no error.
func saveUpload(ctx echo.Context, files core.FileStorage, kind core.FileKind) (string, error) {
	fh, err := ctx.FormFile(fileField)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return "", nil
		}
		return "", errors.Wrap(err, "reading uploaded file")
	}
	if err = core.ValidateFileName(kind, fh.Filename); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	key, err := files.Save(ctx.Request().Context(), kind, fh.Filename, src)
	if err != nil {
		return "", errors.Wrap(err, "saving uploaded file")
	}
	return key, nil
}

// replaceFile stores the uploaded file and hands its key to set, which returns the key it replaced.
// The replaced file is deleted afterwards; the new one is deleted again if set fails.
func replaceFile(ctx echo.Context, deps ServerDeps, kind core.FileKind, set func(key string) (string, error)) error {
	key, err := saveUpload(ctx, deps.Files, kind)
	if err != nil {
		return err
	}
	if key == "" {
		return core.NewFieldError(fileField, "no file was submitted")
	}

	old, err := set(key)
	if err != nil {
		removeFile(ctx, deps, key)
		return err
	}
	if old != "" {
		removeFile(ctx, deps, old)
	}
	return nil
}

func removeFile(ctx echo.Context, deps ServerDeps, key string) {
	if err := deps.Files.Delete(ctx.Request().Context(), key); err != nil {
		deps.Logger.Warn("could not delete stored file", err, map[string]interface{}{"key": key})
	}
}

// fileURL resolves the public URL of a stored file key.
func fileURL(files core.FileStorage, key string) string {
	if key == "" {
		return ""
	}
	return files.URL(key)
}

// withFileURL renders obj as a JSON object and adds the public URL of the file stored under key as field.
func withFileURL(files core.FileStorage, obj interface{}, field, key string) (map[string]interface{}, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling object")
	}
	res := make(map[string]interface{})
	if err = json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "unmarshalling object")
	}
	res[field] = fileURL(files, key)
	return res, nil
}
