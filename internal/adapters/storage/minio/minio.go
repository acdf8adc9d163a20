package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sociallink/internal/config"
	"sociallink/internal/core/domain"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

// Adapter is an adapter for minio implementing port.ObjectStorage
type Adapter struct {
	client  *minio.Client
	config  config.MinioConfig
	baseURL string
	logger  *slog.Logger
}

// NewAdapter returns Adapter. The bucket is created if missing and made publicly readable.
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		if err := client.SetBucketPolicy(ctx, cfg.BucketName, fmt.Sprintf(publicReadPolicy, cfg.BucketName)); err != nil {
			return nil, fmt.Errorf("failed to set bucket policy: %w", err)
		}
	}

	return &Adapter{client: client, config: cfg, baseURL: BaseURL(cfg), logger: logger}, nil
}

// BaseURL is the prefix shared by every public object URL of the bucket
func BaseURL(cfg config.MinioConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint + "/" + cfg.BucketName
}

// KeyFromURL extracts the object key of a public URL, rejecting URLs outside the bucket
func KeyFromURL(baseURL string, rawURL string) (string, error) {
	prefix := baseURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidStorageURL, rawURL)
	}

	escaped := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(escaped, "?#"); i >= 0 {
		escaped = escaped[:i]
	}
	key, err := url.PathUnescape(escaped)
	if err != nil || key == "" || path.Clean("/"+key) != "/"+key {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidStorageURL, rawURL)
	}
	return key, nil
}

func (a *Adapter) publicURL(key string) string {
	return a.baseURL + "/" + key
}

// Put uploads an object and returns its public URL. size may be -1 when unknown.
func (a *Adapter) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := a.client.PutObject(ctx, a.config.BucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	a.logger.Debug("object stored", slog.String("fileKey", key), slog.Int64("size", size))
	return a.publicURL(key), nil
}

// Open streams an object of the bucket
func (a *Adapter) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	key, err := KeyFromURL(a.baseURL, rawURL)
	if err != nil {
		return nil, err
	}

	object, err := a.client.GetObject(ctx, a.config.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return object, nil
}

// Delete removes an object. A URL outside the bucket is reported, not raised, and
// a missing object counts as already deleted.
func (a *Adapter) Delete(ctx context.Context, rawURL string) (domain.DeleteOutcome, error) {
	key, err := KeyFromURL(a.baseURL, rawURL)
	if err != nil {
		a.logger.Warn("refusing to delete object outside the bucket", slog.String("url", rawURL))
		return domain.DeleteOutcomeInvalidURL, nil
	}

	if _, err := a.client.StatObject(ctx, a.config.BucketName, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return domain.DeleteOutcomeAlreadyGone, nil
		}
		return "", fmt.Errorf("failed to stat object: %w", err)
	}

	if err := a.client.RemoveObject(ctx, a.config.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return domain.DeleteOutcomeAlreadyGone, nil
		}
		return "", fmt.Errorf("failed to delete object: %w", err)
	}

	a.logger.Info("object deleted",
		slog.String("fileKey", key),
		slog.String("bucket", a.config.BucketName))

	return domain.DeleteOutcomeDeleted, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
