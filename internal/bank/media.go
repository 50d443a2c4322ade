package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignExpiry bounds how long issued media URLs stay valid.
const presignExpiry = 5 * time.Minute

// MediaStore issues time-limited URLs for bank member media held in an
// S3-compatible object store.
type MediaStore struct {
	client *minio.Client
	bucket string
}

// NewMediaStore connects to the object store at endpoint using static
// credentials. The bucket must already exist or be creatable.
func NewMediaStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MediaStore, error) {
	if endpoint == "" || bucket == "" {
		return nil, fmt.Errorf("media store needs an endpoint and a bucket")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to media store %s: %w", endpoint, err)
	}
	return &MediaStore{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the configured bucket if it does not exist yet.
func (m *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("cannot check media bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("cannot create media bucket %s: %w", m.bucket, err)
	}
	return nil
}

// PreviewURL returns a presigned GET URL for a stored object.
func (m *MediaStore) PreviewURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("cannot presign download of %s: %w", key, err)
	}
	return u.String(), nil
}

// UploadURL returns a presigned PUT URL so a client can upload member
// media directly to the object store.
func (m *MediaStore) UploadURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("cannot presign upload of %s: %w", key, err)
	}
	return u.String(), nil
}

// Bucket returns the configured bucket name.
func (m *MediaStore) Bucket() string { return m.bucket }
