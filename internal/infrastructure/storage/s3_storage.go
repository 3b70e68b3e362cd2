// Package storage provides object storage backends for receipt files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	"github.com/pharmassoc/backend/internal/domain/dues"
	infraconfig "github.com/pharmassoc/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3ReceiptStorage implements ReceiptStorage
var _ duesapp.ReceiptStorage = (*S3ReceiptStorage)(nil)

// S3ReceiptStorage holds receipts in an S3 bucket using AWS SDK v2.
// It is compatible with any S3-compatible storage (AWS S3, MinIO, etc.)
type S3ReceiptStorage struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3ReceiptStorageOption is a functional option for configuring S3ReceiptStorage
type S3ReceiptStorageOption func(*S3ReceiptStorage)

// WithLogger sets a custom logger for S3ReceiptStorage
func WithLogger(logger *zap.Logger) S3ReceiptStorageOption {
	return func(s *S3ReceiptStorage) {
		s.logger = logger
	}
}

// WithPresignExpiration sets a custom presign expiration duration
func WithPresignExpiration(d time.Duration) S3ReceiptStorageOption {
	return func(s *S3ReceiptStorage) {
		s.presignExpiration = d
	}
}

// NewS3ReceiptStorage creates a new S3ReceiptStorage from configuration.
// It supports any S3-compatible storage backend.
func NewS3ReceiptStorage(cfg *infraconfig.StorageConfig, opts ...S3ReceiptStorageOption) (*S3ReceiptStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.S3Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.S3AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.S3SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"", // session token (not used for static credentials)
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3ForcePath
		if cfg.S3Endpoint != "" {
			endpoint := cfg.S3Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			if _, err := url.Parse(endpoint); err == nil {
				o.BaseEndpoint = aws.String(endpoint)
			}
		}
	})

	store := &S3ReceiptStorage{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.S3Bucket,
		presignExpiration: 15 * time.Minute,
		logger:            zap.NewNop(),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3ReceiptStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("creating receipt bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		// Ignore "BucketAlreadyOwnedByYou" error (race condition)
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Upload stores a receipt object and returns its durable URL
func (s *S3ReceiptStorage) Upload(ctx context.Context, key, contentType string, content io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Delete removes a stored receipt object
func (s *S3ReceiptStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}

	return nil
}

// PresignDownload generates a time-limited download URL for a stored receipt
func (s *S3ReceiptStorage) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}

	presignReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return presignReq.URL, nil
}

// ObjectExists checks if a receipt object exists in storage.
func (s *S3ReceiptStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		// Some S3-compatible services report the code differently
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check receipt existence: %w", err)
	}

	return true, nil
}

// Kind identifies this backend on stored payments
func (s *S3ReceiptStorage) Kind() dues.ReceiptStorageKind {
	return dues.ReceiptStorageS3
}

// GetBucket returns the bucket name
func (s *S3ReceiptStorage) GetBucket() string {
	return s.bucket
}
