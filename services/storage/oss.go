package storagesvc

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
)

type ossStorage struct {
	bucket       *oss.Bucket
	baseURL      string
	maxImageSize int
}

var _ core.FileStorage = (*ossStorage)(nil) // interface compliance check

// NewOSSStorage stores files in an Alibaba Cloud OSS bucket.
func NewOSSStorage(conf *core.Config) (*ossStorage, error) {
	sc := conf.Storage
	client, err := oss.New(sc.OSSEndpoint, sc.OSSAccessKeyID, sc.OSSAccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "creating oss client")
	}
	bucket, err := client.Bucket(sc.OSSBucket)
	if err != nil {
		return nil, errors.Wrap(err, "opening oss bucket")
	}

	baseURL := sc.PublicBaseURL
	if baseURL == "" || baseURL[0] == '/' {
		baseURL = fmt.Sprintf("https://%s.%s", sc.OSSBucket, sc.OSSEndpoint)
	}
	return &ossStorage{bucket: bucket, baseURL: baseURL, maxImageSize: sc.MaxImageSize}, nil
}

func (s *ossStorage) Save(ctx context.Context, kind core.FileKind, filename string, r io.Reader) (string, error) {
	r, err := prepare(kind, filename, r, s.maxImageSize)
	if err != nil {
		return "", err
	}
	key := newKey(kind, filename)
	if err = s.bucket.PutObject(key, r, oss.WithContext(ctx)); err != nil {
		return "", errors.Wrap(err, "uploading object")
	}
	return key, nil
}

func (s *ossStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return errors.Wrap(s.bucket.DeleteObject(key, oss.WithContext(ctx)), "deleting object")
}

func (s *ossStorage) URL(key string) string {
	return publicURL(s.baseURL, key)
}
