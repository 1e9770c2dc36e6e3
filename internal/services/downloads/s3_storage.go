package downloads

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// S3Storage serves product files from an object-store bucket, for
// deployments where the downloads directory lives in minio/S3 instead
// of on the api host.
type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

func (s *S3Storage) Open(ctx context.Context, fileName string) (io.ReadCloser, int64, error) {
	if s.client == nil {
		return nil, 0, fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return nil, 0, fmt.Errorf("s3 bucket is empty")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, 0, ErrFileNotFound
	}

	object, err := s.client.GetObject(ctx, s.bucket, fileName, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get object from s3: %w", err)
	}

	info, err := object.Stat()
	if err != nil {
		_ = object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, ErrFileNotFound
		}
		return nil, 0, fmt.Errorf("stat s3 object: %w", err)
	}

	return object, info.Size, nil
}
