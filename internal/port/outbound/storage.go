package outbound

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/uniedit/filelink/internal/model"
)

// ErrObjectNotFound is returned by HeadObject when the key does not exist (yet).
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorePort defines the object storage operations the upload flow needs.
type ObjectStorePort interface {
	// PutObject uploads an object to storage.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error

	// HeadObject returns object metadata, or ErrObjectNotFound.
	HeadObject(ctx context.Context, bucket, key string) (*model.ObjectInfo, error)

	// PresignGetObject generates a presigned GET URL valid for expiry.
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*model.PresignedURL, error)
}

// ObjectStoreFactoryPort builds object stores bound to explicit credentials.
type ObjectStoreFactoryPort interface {
	// StoreFor returns a store for region that signs with creds.
	StoreFor(ctx context.Context, region string, creds *model.AssumedCredentials) (ObjectStorePort, error)
}

// RoleAssumerPort exchanges a role ARN for temporary credentials.
type RoleAssumerPort interface {
	AssumeRole(ctx context.Context, region, roleARN, sessionName string) (*model.AssumedCredentials, error)
}
