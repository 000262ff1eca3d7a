// Package b2 stores uploads in a Backblaze B2 bucket.
package b2

import (
	"context"
	"io"

	blazer "github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/storage/files"
)

type Storage struct {
	client *blazer.Client
	bucket *blazer.Bucket
}

var _ files.Storage = (*Storage)(nil)

func NewStorage(ctx context.Context, accountID, appKey, bucketName string) (*Storage, error) {
	client, err := blazer.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &Storage{client: client, bucket: bucket}, nil
}

func (s *Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	ref, err := files.UniqueName(name)
	if err != nil {
		return "", err
	}

	w := s.bucket.Object(ref).NewWriter(ctx)
	if err = files.CopyLimited(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err = w.Close(); err != nil {
		return "", errors.Wrap(err, "closing b2 writer")
	}
	return ref, nil
}

func (s *Storage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return s.bucket.Object(ref).NewReader(ctx), nil
}
