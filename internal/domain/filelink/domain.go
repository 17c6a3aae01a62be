package filelink

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/port/inbound"
	"github.com/uniedit/filelink/internal/port/outbound"
	apperrors "github.com/uniedit/filelink/internal/shared/errors"
	"github.com/uniedit/filelink/internal/utils/metrics"
)

const (
	presignModeDirect = "direct"
	presignModeRole   = "role"
)

// Domain uploads local files and issues presigned download links.
// A Domain is immutable; WithBucket, WithStore and AssumeRole return copies,
// so one value can be shared by concurrent callers.
type Domain struct {
	store   outbound.ObjectStorePort
	roles   outbound.RoleAssumerPort
	factory outbound.ObjectStoreFactoryPort
	config  *Config
	clock   Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDomain creates a new filelink domain. roles and factory may be nil when
// role assumption is not used.
func NewDomain(
	store outbound.ObjectStorePort,
	roles outbound.RoleAssumerPort,
	factory outbound.ObjectStoreFactoryPort,
	config *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Domain {
	if config == nil {
		config = DefaultConfig()
	}
	if m == nil {
		m = metrics.NewWithRegisterer("", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Domain{
		store:   store,
		roles:   roles,
		factory: factory,
		config:  config,
		clock:   realClock{},
		metrics: m,
		logger:  logger,
	}
}

func (d *Domain) clone() *Domain {
	c := *d
	cfg := *d.config
	c.config = &cfg
	return &c
}

// WithBucket returns a copy of the domain targeting bucket.
func (d *Domain) WithBucket(bucket string) *Domain {
	c := d.clone()
	c.config.Bucket = bucket
	return c
}

// WithStore returns a copy of the domain using store.
func (d *Domain) WithStore(store outbound.ObjectStorePort) *Domain {
	c := d.clone()
	c.store = store
	return c
}

// WithClock returns a copy of the domain using clock.
func (d *Domain) WithClock(clock Clock) *Domain {
	c := d.clone()
	c.clock = clock
	return c
}

// Bucket returns the target bucket.
func (d *Domain) Bucket() string { return d.config.Bucket }

// Store returns the object store in use.
func (d *Domain) Store() outbound.ObjectStorePort { return d.store }

// CheckBucketSet fails with a configuration error when no bucket is set.
func (d *Domain) CheckBucketSet() error {
	if d.config.Bucket == "" {
		return apperrors.Configuration("bucket name is not set")
	}
	return nil
}

// Folder returns the environment folder for today: <env>/<YYYY>/<MM>/<DD>/.
func (d *Domain) Folder() string {
	return d.FolderAt(d.clock.Now())
}

// FolderAt returns the environment folder for t.
func (d *Domain) FolderAt(t time.Time) string {
	return fmt.Sprintf("%s/%s/", d.config.Environment, t.Format("2006/01/02"))
}

// ObjectKey returns the key a file is stored under.
func (d *Domain) ObjectKey(fileName string, useEnvFolder bool) string {
	if useEnvFolder {
		return d.Folder() + fileName
	}
	return fileName
}

// ClampSTSDuration caps a role-signed link duration. Zero or negative
// requests get the cap. The cap never exceeds MaxSTSLinkHours.
func (d *Domain) ClampSTSDuration(duration time.Duration) time.Duration {
	limit := d.config.MaxSTSLinkDuration
	if limit <= 0 || limit > MaxSTSLinkHours*time.Hour {
		limit = MaxSTSLinkHours * time.Hour
	}
	if duration <= 0 || duration > limit {
		return limit
	}
	return duration
}

// PutFile uploads req.LocalDir/req.FileName and waits until the object is readable.
// It returns the stored key.
func (d *Domain) PutFile(ctx context.Context, req *model.UploadRequest) (string, error) {
	if err := d.CheckBucketSet(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(req.LocalDir, req.FileName)
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() || req.FileName == "" {
		d.logger.Error("file for upload not found", zap.String("path", fullPath))
		d.metrics.RecordUpload(false, 0)
		return "", apperrors.FileNotFound(fullPath)
	}

	key := d.ObjectKey(req.FileName, req.UseEnvFolder)
	log := d.logger.With(zap.String("bucket", d.config.Bucket), zap.String("key", key))

	f, err := os.Open(fullPath)
	if err != nil {
		d.metrics.RecordUpload(false, 0)
		return "", fmt.Errorf("open %s: %w", fullPath, err)
	}
	defer f.Close()

	log.Info("putting file", zap.Int64("size", info.Size()))
	if err := d.store.PutObject(ctx, d.config.Bucket, key, f, info.Size(), contentTypeFor(req.FileName)); err != nil {
		log.Error("failed to save file", zap.Error(err))
		d.metrics.RecordUpload(false, 0)
		return "", apperrors.RemoteOperation("put object", err)
	}

	if err := d.waitUntilExists(ctx, key); err != nil {
		log.Error("stored file never became visible", zap.Error(err))
		d.metrics.RecordUpload(false, 0)
		return "", err
	}

	d.metrics.RecordUpload(true, info.Size())
	log.Info("file stored")
	return key, nil
}

// PresignURL returns a GET link for key valid for duration. A non-positive
// duration uses the configured default.
func (d *Domain) PresignURL(ctx context.Context, key string, duration time.Duration) (*model.PresignedURL, error) {
	if duration <= 0 {
		duration = d.config.DefaultLinkDuration
	}
	return d.presign(ctx, key, duration, presignModeDirect)
}

func (d *Domain) presign(ctx context.Context, key string, duration time.Duration, mode string) (*model.PresignedURL, error) {
	if err := d.CheckBucketSet(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, apperrors.BadRequest("object key is required")
	}

	log := d.logger.With(zap.String("key", key), zap.String("mode", mode))
	log.Info("getting presigned url", zap.Duration("expires_in", duration))

	p, err := d.store.PresignGetObject(ctx, d.config.Bucket, key, duration)
	if err != nil {
		log.Error("failed to presign url", zap.Error(err))
		d.metrics.RecordPresign(mode, false)
		return nil, apperrors.RemoteOperation("presign get object", err)
	}

	d.metrics.RecordPresign(mode, true)
	log.Info("presigned url created", zap.Time("expires_at", p.ExpiresAt))
	log.Debug("presigned url", zap.String("url", p.URL))
	return p, nil
}

// PresignFile uploads a file and returns a link to it.
func (d *Domain) PresignFile(ctx context.Context, req *model.UploadRequest) (*model.PresignedURL, error) {
	key, err := d.PutFile(ctx, req)
	if err != nil {
		return nil, err
	}
	return d.PresignURL(ctx, key, req.LinkDuration)
}

// AssumeRole returns a copy of the domain whose store signs with temporary
// credentials for role. The receiver keeps its store.
func (d *Domain) AssumeRole(ctx context.Context, role model.RoleRequest) (*Domain, error) {
	if d.roles == nil || d.factory == nil {
		return nil, apperrors.Configuration("role assumption is not configured")
	}
	if role.RoleARN == "" {
		return nil, apperrors.Configuration("role arn is not set")
	}

	region := role.Region
	if region == "" {
		region = d.config.Region
	}
	session := role.SessionNameOrDefault()
	log := d.logger.With(zap.String("role_arn", role.RoleARN), zap.String("session", session), zap.String("region", region))

	creds, err := d.roles.AssumeRole(ctx, region, role.RoleARN, session)
	if err != nil {
		log.Error("error assuming role", zap.Error(err))
		d.metrics.RecordRoleAssumption(false)
		return nil, apperrors.RemoteOperation("assume role", err)
	}

	store, err := d.factory.StoreFor(ctx, region, creds)
	if err != nil {
		log.Error("error building scoped store", zap.Error(err))
		d.metrics.RecordRoleAssumption(false)
		return nil, apperrors.RemoteOperation("build scoped store", err)
	}

	d.metrics.RecordRoleAssumption(true)
	log.Info("role assumed", zap.Time("credentials_expire_at", creds.Expiration))
	return d.WithStore(store), nil
}

// PresignFileWithRole uploads a file with the current store, then signs the
// link with credentials for role. The duration is capped by MaxSTSLinkDuration.
func (d *Domain) PresignFileWithRole(ctx context.Context, req *model.UploadRequest, role model.RoleRequest) (*model.PresignedURL, error) {
	key, err := d.PutFile(ctx, req)
	if err != nil {
		return nil, err
	}

	scoped, err := d.AssumeRole(ctx, role)
	if err != nil {
		return nil, err
	}

	return scoped.presign(ctx, key, d.ClampSTSDuration(req.LinkDuration), presignModeRole)
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Compile-time check
var _ inbound.FileLinkDomain = (*Domain)(nil)
