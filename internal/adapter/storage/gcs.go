package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"study-mitra/internal/config"
	"study-mitra/internal/domain"
	"study-mitra/internal/logger"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSPhotoStorage uploads profile photos to a single Cloud Storage bucket.
type GCSPhotoStorage struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

// NewGCSClient uses the credentials file when configured and application default credentials otherwise.
func NewGCSClient(ctx context.Context, cfg config.StorageConfig) (*gcs.Client, error) {
	opts := []option.ClientOption{option.WithScopes(gcs.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

func NewGCSPhotoStorage(client *gcs.Client, cfg config.StorageConfig) (*GCSPhotoStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	return &GCSPhotoStorage{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

// Upload overwrites the object at key. The returned URL carries the object generation
// so a replaced photo is never served from a stale cache.
func (s *GCSPhotoStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", domain.NewStorageServiceError(fmt.Errorf("write object %s: %w", key, err))
	}
	if err := w.Close(); err != nil {
		return "", domain.NewStorageServiceError(fmt.Errorf("finalize object %s: %w", key, err))
	}

	var generation int64
	if attrs := w.Attrs(); attrs != nil {
		generation = attrs.Generation
	}
	logger.Get().Info("Uploaded profile photo", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int64("generation", generation))
	return PublicURL(s.publicBaseURL, s.bucket, key, generation), nil
}

// PublicURL joins base, bucket and key; a positive generation is appended as a version query.
func PublicURL(baseURL, bucket, key string, generation int64) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	u := fmt.Sprintf("%s/%s/%s", base, bucket, strings.TrimLeft(key, "/"))
	if generation > 0 {
		u = fmt.Sprintf("%s?v=%d", u, generation)
	}
	return u
}
