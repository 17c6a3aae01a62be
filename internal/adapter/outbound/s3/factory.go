package s3

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/port/outbound"
)

// Factory builds stores that sign with explicit session credentials.
type Factory struct {
	base aws.Config
	cfg  *Config
}

// NewFactory creates a store factory inheriting base settings and endpoint overrides.
func NewFactory(base aws.Config, cfg *Config) *Factory {
	return &Factory{base: base, cfg: cfg}
}

// StoreFor returns a store for region using creds.
func (f *Factory) StoreFor(ctx context.Context, region string, creds *model.AssumedCredentials) (outbound.ObjectStorePort, error) {
	if creds == nil || creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, errors.New("incomplete session credentials")
	}

	awsCfg := f.base.Copy()
	if region != "" {
		awsCfg.Region = region
	}
	awsCfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID,
		creds.SecretAccessKey,
		creds.SessionToken,
	))

	return NewStore(NewClient(awsCfg, f.cfg)), nil
}

// Compile-time check
var _ outbound.ObjectStoreFactoryPort = (*Factory)(nil)
