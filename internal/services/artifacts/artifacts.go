package artifacts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/config"
)

// Uploader copies a finished local artifact to object storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectName string) error
}

// New returns a MinIO uploader when an endpoint is configured, otherwise Noop.
func New(ctx context.Context, cfg config.MinioConfig) (Uploader, error) {
	if cfg.Endpoint == "" {
		return Noop{}, nil
	}
	return NewMinio(ctx, cfg)
}

type Minio struct {
	client *minio.Client
	bucket string
}

func NewMinio(ctx context.Context, cfg config.MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("Created artifact bucket")
	}

	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("Artifact upload enabled")
	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

func (m *Minio) Upload(ctx context.Context, localPath, objectName string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: ContentType(localPath),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	return nil
}

// ContentType maps artifact extensions to MIME types.
func ContentType(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// Noop skips uploads.
type Noop struct{}

func (Noop) Upload(context.Context, string, string) error { return nil }
