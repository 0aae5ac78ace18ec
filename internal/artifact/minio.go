package artifact

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/oshokin/release-packager/internal/config"
)

// MinioStore keeps artifacts in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioStore builds the client; no request is made until first use.
func NewMinioStore(cfg config.S3Config) (*MinioStore, error) {
	client, err := newMinioClient(cfg)
	if err != nil {
		return nil, err
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

func newMinioClient(cfg config.S3Config) (*minio.Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket: %w", ErrStoreNotInitialized)
	}

	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return client, nil
}

// Put uploads body, creating the bucket on first use.
func (s *MinioStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s == nil || s.client == nil {
		return ErrStoreNotInitialized
	}

	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})

	return err
}

// Get streams the object stored under key.
func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	return object, info, nil
}

// Stat describes the object stored under key.
func (s *MinioStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if s == nil || s.client == nil {
		return ObjectInfo{}, ErrStoreNotInitialized
	}

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ObjectInfo{}, fmt.Errorf("%s: %w", key, ErrNotFound)
		}

		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// Delete removes the object stored under key.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return ErrStoreNotInitialized
	}

	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
