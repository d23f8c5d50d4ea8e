package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Buckets the media relay is allowed to serve from.
const (
	BucketProfileImages    = "profile-images"
	BucketIngredientImages = "ingredient-images"
)

// ErrObjectNotFound indicates the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrBucketNotAllowed indicates a bucket outside the serving allowlist.
var ErrBucketNotAllowed = errors.New("bucket not allowed")

// ObjectStore provides bucket-scoped access to object storage.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
}

// AllowedBucket reports whether the relay may serve from the bucket.
func AllowedBucket(bucket string) bool {
	return bucket == BucketProfileImages || bucket == BucketIngredientImages
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore connects to MinIO and ensures the image buckets exist.
func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, bucket := range []string{BucketProfileImages, BucketIngredientImages} {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return &MinioStore{client: client}, nil
}

// Get downloads an object body. Missing objects map to ErrObjectNotFound so
// the relay can answer 404 instead of 500.
func (m *MinioStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if !AllowedBucket(bucket) {
		return nil, ErrBucketNotAllowed
	}
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// Put uploads an object.
func (m *MinioStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	if !AllowedBucket(bucket) {
		return ErrBucketNotAllowed
	}
	_, err := m.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	if !AllowedBucket(bucket) {
		return ErrBucketNotAllowed
	}
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
