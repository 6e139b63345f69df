package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
	clients3 "github.com/thewiin/aws-saas-etl/pkg/client/s3"
)

// S3Repo is the object-store gateway. Buckets are passed per call because the
// pipeline reads from the raw bucket and writes to the processed one.
type S3Repo struct {
	StorageS3 *clients3.StorageS3
}

func NewS3Repo(storageS3 *clients3.StorageS3) *S3Repo {
	return &S3Repo{StorageS3: storageS3}
}

func (s *S3Repo) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return nil, fmt.Errorf("s3 client not initialized")
	}

	obj, err := s.StorageS3.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", mapMinioError(err))
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; missing keys surface on the first read
		return nil, fmt.Errorf("s3 read object: %w", mapMinioError(err))
	}
	return data, nil
}

func (s *S3Repo) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return fmt.Errorf("s3 client not initialized")
	}

	reader := bytes.NewReader(data)

	_, err := s.StorageS3.Client.PutObject(
		ctx,
		bucket,
		key,
		reader,
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return fmt.Errorf("s3 put object: %w", mapMinioError(err))
	}

	return nil
}

func (s *S3Repo) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return "", fmt.Errorf("s3 client not initialized")
	}

	presignedURL, err := s.StorageS3.Client.PresignedGetObject(ctx, bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presigned get object: %w", err)
	}
	return presignedURL.String(), nil
}

func (s *S3Repo) PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return "", fmt.Errorf("s3 client not initialized")
	}

	presignedURL, err := s.StorageS3.Client.PresignedPutObject(ctx, bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presigned put object: %w", err)
	}
	return presignedURL.String(), nil
}

func mapMinioError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", entity.ErrObjectNotFound, resp.Key)
	case "AccessDenied":
		return fmt.Errorf("%w: %s", entity.ErrObjectAccess, resp.Key)
	default:
		return err
	}
}
