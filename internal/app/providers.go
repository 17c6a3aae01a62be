package app

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	filelinkhttp "github.com/uniedit/filelink/internal/adapter/inbound/http/filelink"
	s3adapter "github.com/uniedit/filelink/internal/adapter/outbound/s3"
	stsadapter "github.com/uniedit/filelink/internal/adapter/outbound/sts"
	"github.com/uniedit/filelink/internal/domain/filelink"
	"github.com/uniedit/filelink/internal/infra/httpclient"
	"github.com/uniedit/filelink/internal/port/inbound"
	"github.com/uniedit/filelink/internal/port/outbound"
	"github.com/uniedit/filelink/internal/shared/config"
	"github.com/uniedit/filelink/internal/shared/logger"
	"github.com/uniedit/filelink/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideHTTPClient,
	ProvideRegistry,
	ProvideMetrics,
)

// ProvideLogger creates a zap logger instance.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = log.Sync()
	}
	return log, cleanup, nil
}

// ProvideHTTPClient creates a shared HTTP client with connection pooling.
func ProvideHTTPClient(cfg *config.Config) *awshttp.BuildableClient {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideRegistry creates the metrics registry with Go and process collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewWithRegisterer(cfg.Metrics.Namespace, reg)
}

// ===== Storage Providers =====

// StorageSet provides object storage and role assumption adapters.
var StorageSet = wire.NewSet(
	ProvideS3Config,
	ProvideAWSConfig,
	ProvideS3Client,
	s3adapter.NewStore,
	wire.Bind(new(outbound.ObjectStorePort), new(*s3adapter.Store)),
	s3adapter.NewFactory,
	wire.Bind(new(outbound.ObjectStoreFactoryPort), new(*s3adapter.Factory)),
	ProvideRoleAssumer,
	wire.Bind(new(outbound.RoleAssumerPort), new(*stsadapter.RoleAssumer)),
)

// ProvideS3Config maps storage settings to the S3 adapter configuration.
func ProvideS3Config(cfg *config.Config) *s3adapter.Config {
	return &s3adapter.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	}
}

// ProvideAWSConfig resolves the base AWS configuration.
func ProvideAWSConfig(ctx context.Context, cfg *s3adapter.Config, httpClient *awshttp.BuildableClient) (aws.Config, error) {
	return s3adapter.LoadAWSConfig(ctx, cfg, httpClient)
}

// ProvideS3Client creates the S3 client.
func ProvideS3Client(awsCfg aws.Config, cfg *s3adapter.Config) *awss3.Client {
	return s3adapter.NewClient(awsCfg, cfg)
}

// ProvideRoleAssumer creates the STS role assumer.
func ProvideRoleAssumer(awsCfg aws.Config, cfg *config.Config, log *zap.Logger) *stsadapter.RoleAssumer {
	return stsadapter.NewRoleAssumer(awsCfg, cfg.STS.Endpoint, &stsadapter.BreakerConfig{
		FailureThreshold: cfg.STS.Breaker.FailureThreshold,
		OpenTimeout:      cfg.STS.Breaker.OpenTimeout,
	}, log)
}

// ===== FileLink Domain Providers =====

// FileLinkSet provides the filelink domain.
var FileLinkSet = wire.NewSet(
	ProvideFileLinkConfig,
	ProvideFileLinkDomain,
	wire.Bind(new(inbound.FileLinkDomain), new(*filelink.Domain)),
)

// ProvideFileLinkConfig maps application settings to the domain configuration.
func ProvideFileLinkConfig(cfg *config.Config) *filelink.Config {
	return &filelink.Config{
		Bucket:              cfg.Storage.Bucket,
		Region:              cfg.STS.Region,
		Environment:         cfg.Upload.Environment,
		DefaultLinkDuration: cfg.Upload.LinkDuration,
		MaxSTSLinkDuration:  cfg.Upload.MaxSTSLinkDuration,
		Wait: filelink.WaitPolicy{
			MaxAttempts:  cfg.Upload.Wait.MaxAttempts,
			InitialDelay: cfg.Upload.Wait.InitialDelay,
			MaxDelay:     cfg.Upload.Wait.MaxDelay,
			Timeout:      cfg.Upload.Wait.Timeout,
		},
	}
}

// ProvideFileLinkDomain creates the filelink domain.
func ProvideFileLinkDomain(
	store outbound.ObjectStorePort,
	roles outbound.RoleAssumerPort,
	factory outbound.ObjectStoreFactoryPort,
	cfg *filelink.Config,
	m *metrics.Metrics,
	log *zap.Logger,
) *filelink.Domain {
	return filelink.NewDomain(store, roles, factory, cfg, m, log.Named("filelink"))
}

// ===== HTTP Providers =====

// HTTPSet provides the HTTP surface.
var HTTPSet = wire.NewSet(
	filelinkhttp.NewHandler,
	ProvideRouter,
	NewApp,
)

// AppSet combines all provider sets.
var AppSet = wire.NewSet(
	InfraSet,
	StorageSet,
	FileLinkSet,
)
