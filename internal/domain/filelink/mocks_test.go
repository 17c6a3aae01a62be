package filelink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/port/outbound"
)

// --- Mock implementations ---

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, bucket, key, body, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) HeadObject(ctx context.Context, bucket, key string) (*model.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ObjectInfo), args.Error(1)
}

func (m *MockObjectStore) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*model.PresignedURL, error) {
	args := m.Called(ctx, bucket, key, expiry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PresignedURL), args.Error(1)
}

var _ outbound.ObjectStorePort = (*MockObjectStore)(nil)

type MockRoleAssumer struct {
	mock.Mock
}

func (m *MockRoleAssumer) AssumeRole(ctx context.Context, region, roleARN, sessionName string) (*model.AssumedCredentials, error) {
	args := m.Called(ctx, region, roleARN, sessionName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssumedCredentials), args.Error(1)
}

var _ outbound.RoleAssumerPort = (*MockRoleAssumer)(nil)

type MockStoreFactory struct {
	mock.Mock
}

func (m *MockStoreFactory) StoreFor(ctx context.Context, region string, creds *model.AssumedCredentials) (outbound.ObjectStorePort, error) {
	args := m.Called(ctx, region, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(outbound.ObjectStorePort), args.Error(1)
}

var _ outbound.ObjectStoreFactoryPort = (*MockStoreFactory)(nil)

// recordingStore is a stub store that records calls and signs fake URLs.
type recordingStore struct {
	now     func() time.Time
	puts    []string
	heads   []string
	presign []string
	objects map[string][]byte
}

func newRecordingStore(now func() time.Time) *recordingStore {
	return &recordingStore{now: now, objects: make(map[string][]byte)}
}

func (s *recordingStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.puts = append(s.puts, bucket+"/"+key)
	s.objects[bucket+"/"+key] = data
	return nil
}

func (s *recordingStore) HeadObject(ctx context.Context, bucket, key string) (*model.ObjectInfo, error) {
	s.heads = append(s.heads, bucket+"/"+key)
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, outbound.ErrObjectNotFound
	}
	return &model.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *recordingStore) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (*model.PresignedURL, error) {
	s.presign = append(s.presign, bucket+"/"+key)
	return &model.PresignedURL{
		Key:       key,
		URL:       fmt.Sprintf("https://%s.s3.amazonaws.com/%s?X-Amz-Expires=%d", bucket, key, int(expiry.Seconds())),
		Method:    "GET",
		ExpiresAt: s.now().Add(expiry),
	}, nil
}

// fakeClock advances only when slept on.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// --- Helpers ---

var testNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Bucket = "test-bucket"
	cfg.Wait = WaitPolicy{
		MaxAttempts:  4,
		InitialDelay: time.Second,
		MaxDelay:     2 * time.Second,
		Timeout:      time.Minute,
	}
	return cfg
}
