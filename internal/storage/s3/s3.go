package s3

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage"
)

// Config holds the connection parameters for an S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// FileStore implements storage.FileStore against an S3-compatible object
// store via the MinIO client.
type FileStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New creates an S3-backed file store and ensures the bucket exists.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*FileStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", cfg.Endpoint, err)
	}

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, cfg.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
		}
	}

	logger.Info("s3 file store ready",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("bucket", cfg.Bucket),
	)

	return &FileStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Store uploads the object under a fresh key and returns its URL.
func (s *FileStore) Store(ctx context.Context, ref storage.ObjectRef, file storage.Upload) (*storage.StoredObject, error) {
	key := storage.NewKey(ref)

	info, err := s.client.PutObject(ctx, s.bucket, key, file.Data, file.Size, minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("object stored",
		slog.String("bucket", s.bucket),
		slog.String("key", info.Key),
		slog.Int64("size", info.Size),
	)

	return &storage.StoredObject{
		Key: key,
		URL: fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key),
	}, nil
}

// Delete removes a stored object from the bucket.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}
