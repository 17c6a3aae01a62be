package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/port/outbound"
)

// Store implements ObjectStorePort using S3.
type Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	now       func() time.Time
}

// NewStore creates a new S3 store.
func NewStore(client *s3.Client) *Store {
	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		now:       time.Now,
	}
}

// PutObject uploads an object.
func (s *Store) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}

	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

// HeadObject returns object metadata.
func (s *Store) HeadObject(ctx context.Context, bucket, key string) (*model.ObjectInfo, error) {
	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, outbound.ErrObjectNotFound
		}
		return nil, fmt.Errorf("head object: %w", err)
	}

	info := &model.ObjectInfo{
		Key:          key,
		LastModified: result.LastModified,
	}
	if result.ContentLength != nil {
		info.Size = *result.ContentLength
	}
	if result.ContentType != nil {
		info.ContentType = *result.ContentType
	}

	return info, nil
}

// PresignGetObject generates a presigned URL for downloading an object.
func (s *Store) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*model.PresignedURL, error) {
	issued := s.now()

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	return &model.PresignedURL{
		Key:       key,
		URL:       req.URL,
		Method:    method,
		ExpiresAt: issued.Add(expiry),
	}, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Compile-time check
var _ outbound.ObjectStorePort = (*Store)(nil)
