package core

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// FileKind identifies what an uploaded file is used for.
type FileKind string

const (
	FileLogo               FileKind = "logo"
	FileAvatar             FileKind = "avatar"
	FileHomeworkAttachment FileKind = "homework"
	FileSubmission         FileKind = "submission"
)

var (
	imageExtensions = []string{"jpg", "jpeg", "png", "gif"}

	allowedExtensions = map[FileKind][]string{
		FileLogo:               imageExtensions,
		FileAvatar:             imageExtensions,
		FileHomeworkAttachment: {"pdf", "doc", "docx", "jpg", "jpeg", "png", "txt"},
		FileSubmission:         {"pdf", "doc", "docx", "txt", "jpeg", "png"},
	}

	fileDirs = map[FileKind]string{
		FileLogo:               "edu_logo",
		FileAvatar:             "profile_pictures",
		FileHomeworkAttachment: "homework_attachments",
		FileSubmission:         "homeworks",
	}
)

// FileStorage persists uploaded files and resolves their public URL.
type FileStorage interface {
	// Save stores the content of r and returns the key of the stored file.
	Save(ctx context.Context, kind FileKind, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Dir returns the directory (key prefix) files of this kind are stored under.
func (k FileKind) Dir() string {
	if dir, ok := fileDirs[k]; ok {
		return dir
	}
	return string(k)
}

// IsImage reports whether files of this kind are downscaled images.
func (k FileKind) IsImage() bool {
	return k == FileLogo || k == FileAvatar
}

func (k FileKind) AllowedExtensions() []string {
	return allowedExtensions[k]
}

// FileExtension returns the lowered extension of filename, without the dot.
func FileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// ValidateFileName checks filename against the extension allow-list of kind.
func ValidateFileName(kind FileKind, filename string) error {
	allowed, ok := allowedExtensions[kind]
	if !ok {
		return NewFieldError("file", fmt.Sprintf("unknown file kind %q", kind))
	}
	ext := FileExtension(filename)
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return NewFieldError("file", fmt.Sprintf("file extension %q is not allowed; allowed extensions are: %s", ext, strings.Join(allowed, ", ")))
}
