package sts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSTS struct {
	mock.Mock
}

func (m *MockSTS) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sts.AssumeRoleOutput), args.Error(1)
}

const testRole = "arn:aws:iam::123456789012:role/reports"

func okOutput(expires time.Time) *sts.AssumeRoleOutput {
	return &sts.AssumeRoleOutput{
		Credentials: &types.Credentials{
			AccessKeyId:     aws.String("ASIATEMP"),
			SecretAccessKey: aws.String("tempsecret"),
			SessionToken:    aws.String("token"),
			Expiration:      aws.Time(expires),
		},
	}
}

func TestRoleAssumer_AssumeRole(t *testing.T) {
	expires := time.Date(2026, 10, 18, 21, 0, 0, 0, time.UTC)
	api := new(MockSTS)
	api.On("AssumeRole", mock.Anything, mock.MatchedBy(func(in *sts.AssumeRoleInput) bool {
		return aws.ToString(in.RoleArn) == testRole && aws.ToString(in.RoleSessionName) == "reports-session"
	})).Return(okOutput(expires), nil)

	var regions []string
	a := newRoleAssumer(func(region string) API {
		regions = append(regions, region)
		return api
	}, nil, nil)

	creds, err := a.AssumeRole(context.Background(), "us-east-1", testRole, "reports-session")
	require.NoError(t, err)
	assert.Equal(t, "ASIATEMP", creds.AccessKeyID)
	assert.Equal(t, "tempsecret", creds.SecretAccessKey)
	assert.Equal(t, "token", creds.SessionToken)
	assert.Equal(t, expires, creds.Expiration)

	_, err = a.AssumeRole(context.Background(), "us-east-1", testRole, "reports-session")
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1"}, regions, "client is cached per region")
	api.AssertExpectations(t)
}

func TestRoleAssumer_Validation(t *testing.T) {
	a := newRoleAssumer(func(string) API { return new(MockSTS) }, nil, nil)

	_, err := a.AssumeRole(context.Background(), "us-east-1", "", "s")
	assert.Error(t, err)
}

func TestRoleAssumer_MissingCredentials(t *testing.T) {
	api := new(MockSTS)
	api.On("AssumeRole", mock.Anything, mock.Anything).Return(&sts.AssumeRoleOutput{}, nil)
	a := newRoleAssumer(func(string) API { return api }, nil, nil)

	_, err := a.AssumeRole(context.Background(), "us-east-1", testRole, "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}

func TestRoleAssumer_BreakerOpens(t *testing.T) {
	denied := errors.New("AccessDenied: not authorized to perform sts:AssumeRole")
	api := new(MockSTS)
	api.On("AssumeRole", mock.Anything, mock.Anything).Return(nil, denied)

	a := newRoleAssumer(func(string) API { return api }, &BreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, nil)

	for i := 0; i < 2; i++ {
		_, err := a.AssumeRole(context.Background(), "us-east-1", testRole, "s")
		require.Error(t, err)
		assert.True(t, errors.Is(err, denied))
	}
	assert.Equal(t, gobreaker.StateOpen, a.State())

	_, err := a.AssumeRole(context.Background(), "us-east-1", testRole, "s")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	api.AssertNumberOfCalls(t, "AssumeRole", 2)
}
