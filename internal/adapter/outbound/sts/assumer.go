package sts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/port/outbound"
)

// API is the subset of the STS client used here.
type API interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// BreakerConfig contains circuit breaker configuration.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		FailureThreshold: 3,
		OpenTimeout:      60 * time.Second,
	}
}

// RoleAssumer implements RoleAssumerPort using STS.
type RoleAssumer struct {
	mu      sync.Mutex
	clients map[string]API
	newAPI  func(region string) API
	breaker *gobreaker.CircuitBreaker[*model.AssumedCredentials]
	logger  *zap.Logger
}

// NewRoleAssumer creates a role assumer building one STS client per region from base.
func NewRoleAssumer(base aws.Config, endpoint string, config *BreakerConfig, logger *zap.Logger) *RoleAssumer {
	return newRoleAssumer(func(region string) API {
		return sts.NewFromConfig(base, func(o *sts.Options) {
			if region != "" {
				o.Region = region
			}
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
	}, config, logger)
}

func newRoleAssumer(newAPI func(region string) API, config *BreakerConfig, logger *zap.Logger) *RoleAssumer {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := config.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[*model.AssumedCredentials](gobreaker.Settings{
		Name:        "sts-assume-role",
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RoleAssumer{
		clients: make(map[string]API),
		newAPI:  newAPI,
		breaker: breaker,
		logger:  logger,
	}
}

// AssumeRole exchanges roleARN for temporary credentials.
func (a *RoleAssumer) AssumeRole(ctx context.Context, region, roleARN, sessionName string) (*model.AssumedCredentials, error) {
	if roleARN == "" {
		return nil, errors.New("role arn is required")
	}

	creds, err := a.breaker.Execute(func() (*model.AssumedCredentials, error) {
		return a.assume(ctx, region, roleARN, sessionName)
	})
	if err != nil {
		return nil, fmt.Errorf("assume role %s: %w", roleARN, err)
	}

	return creds, nil
}

// State reports the breaker state.
func (a *RoleAssumer) State() gobreaker.State {
	return a.breaker.State()
}

func (a *RoleAssumer) assume(ctx context.Context, region, roleARN, sessionName string) (*model.AssumedCredentials, error) {
	out, err := a.client(region).AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
	})
	if err != nil {
		return nil, err
	}
	if out.Credentials == nil || out.Credentials.AccessKeyId == nil || out.Credentials.SecretAccessKey == nil {
		return nil, errors.New("token service returned no credentials")
	}

	creds := &model.AssumedCredentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
	}
	if out.Credentials.Expiration != nil {
		creds.Expiration = *out.Credentials.Expiration
	}

	a.logger.Debug("role assumed",
		zap.String("role_arn", roleARN),
		zap.String("session", sessionName),
		zap.Time("expires_at", creds.Expiration),
	)

	return creds, nil
}

func (a *RoleAssumer) client(region string) API {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[region]; ok {
		return c
	}
	c := a.newAPI(region)
	a.clients[region] = c
	return c
}

// Compile-time check
var _ outbound.RoleAssumerPort = (*RoleAssumer)(nil)
