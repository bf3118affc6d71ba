package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"zentasks/verification-backend/internal/config"
)

// ErrObjectExists is returned when a write-once put targets a key that is
// already present in the bucket.
var ErrObjectExists = errors.New("object already exists")

// ObjectStore is durable blob storage keyed by path. Put has write-once
// semantics: an existing key is never overwritten.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type s3ObjectStore struct {
	client *s3.Client
	bucket string
	log    *zap.Logger
}

// NewS3ObjectStore builds an ObjectStore backed by S3 or an S3-compatible
// endpoint (MinIO in development).
func NewS3ObjectStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &s3ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		log:    log,
	}, nil
}

func (s *s3ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		// Conditional write: fail instead of silently overwriting.
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return ErrObjectExists
		}
		s.log.Error("Failed to upload object",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	s.log.Info("Object uploaded",
		zap.String("key", key),
		zap.Int("size", len(data)))

	return nil
}

func (s *s3ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Error("Failed to download object",
			zap.String("key", key),
			zap.Error(err))
		return nil, err
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
