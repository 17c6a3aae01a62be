package filelink

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/port/outbound"
	apperrors "github.com/uniedit/filelink/internal/shared/errors"
	"github.com/uniedit/filelink/internal/utils/metrics"
)

func newTestDomain(store outbound.ObjectStorePort, roles outbound.RoleAssumerPort, factory outbound.ObjectStoreFactoryPort) (*Domain, *fakeClock) {
	clock := &fakeClock{now: testNow}
	d := NewDomain(store, roles, factory, testConfig(), nil, zap.NewNop()).WithClock(clock)
	return d, clock
}

func TestDomain_CheckBucketSet(t *testing.T) {
	d := NewDomain(nil, nil, nil, nil, nil, nil)

	err := d.CheckBucketSet()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))

	assert.NoError(t, d.WithBucket("x").CheckBucketSet())
	assert.Error(t, d.CheckBucketSet(), "WithBucket must not mutate the receiver")
}

func TestDomain_Folder(t *testing.T) {
	d, clock := newTestDomain(nil, nil, nil)
	pattern := regexp.MustCompile(`^dev/\d{4}/\d{2}/\d{2}/$`)

	first := d.Folder()
	assert.Equal(t, "dev/2026/10/18/", first)
	assert.Regexp(t, pattern, first)

	clock.now = clock.now.Add(10 * time.Hour)
	assert.Equal(t, first, d.Folder(), "stable within the same day")

	assert.Equal(t, "dev/2027/01/05/", d.FolderAt(time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestDomain_FolderUsesConfiguredEnvironment(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = "prod"
	d := NewDomain(nil, nil, nil, cfg, nil, nil).WithClock(&fakeClock{now: testNow})

	assert.Equal(t, "prod/2026/10/18/report.csv", d.ObjectKey("report.csv", true))
	assert.Equal(t, "report.csv", d.ObjectKey("report.csv", false))
}

func TestDomain_ClampSTSDuration(t *testing.T) {
	d := NewDomain(nil, nil, nil, nil, nil, nil)

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{10 * time.Hour, 10 * time.Hour},
		{36 * time.Hour, 36 * time.Hour},
		{100 * time.Hour, 36 * time.Hour},
		{0, 36 * time.Hour},
		{-time.Hour, 36 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, d.ClampSTSDuration(tt.in))
		})
	}
}

func TestDomain_ClampSTSDurationConfiguredLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit time.Duration
		in    time.Duration
		want  time.Duration
	}{
		{"lower limit applies", 10 * time.Hour, 20 * time.Hour, 10 * time.Hour},
		{"lower limit default", 10 * time.Hour, 0, 10 * time.Hour},
		{"limit above session maximum", 100 * time.Hour, 100 * time.Hour, 36 * time.Hour},
		{"zero limit", 0, 0, 36 * time.Hour},
		{"zero limit long request", 0, 50 * time.Hour, 36 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MaxSTSLinkDuration = tt.limit
			d := NewDomain(nil, nil, nil, cfg, nil, nil)

			got := d.ClampSTSDuration(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, MaxSTSLinkHours*time.Hour)
		})
	}
}

func TestDomain_PutFile(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads and waits", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "report.csv", "a,b\n")

		store := new(MockObjectStore)
		store.On("PutObject", mock.Anything, "test-bucket", "report.csv", mock.Anything, int64(4), mock.Anything).Return(nil)
		store.On("HeadObject", mock.Anything, "test-bucket", "report.csv").Return(&model.ObjectInfo{Key: "report.csv", Size: 4}, nil)

		d, _ := newTestDomain(store, nil, nil)
		key, err := d.PutFile(ctx, &model.UploadRequest{FileName: "report.csv", LocalDir: dir + "/"})
		require.NoError(t, err)
		assert.Equal(t, "report.csv", key)
		store.AssertExpectations(t)
	})

	t.Run("uses environment folder", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "report.xlsx", "data")

		store := new(MockObjectStore)
		store.On("PutObject", mock.Anything, "test-bucket", "dev/2026/10/18/report.xlsx", mock.Anything, int64(4), mock.Anything).Return(nil)
		store.On("HeadObject", mock.Anything, "test-bucket", "dev/2026/10/18/report.xlsx").Return(&model.ObjectInfo{}, nil)

		d, _ := newTestDomain(store, nil, nil)
		key, err := d.PutFile(ctx, &model.UploadRequest{FileName: "report.xlsx", LocalDir: dir, UseEnvFolder: true})
		require.NoError(t, err)
		assert.Equal(t, "dev/2026/10/18/report.xlsx", key)
	})

	t.Run("missing file", func(t *testing.T) {
		store := new(MockObjectStore)
		d, _ := newTestDomain(store, nil, nil)

		key, err := d.PutFile(ctx, &model.UploadRequest{FileName: "missing.csv", LocalDir: t.TempDir()})
		assert.Empty(t, key)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrFileNotFound))
		assert.Contains(t, err.Error(), "not found")
		store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("directory is not a file", func(t *testing.T) {
		d, _ := newTestDomain(new(MockObjectStore), nil, nil)
		_, err := d.PutFile(ctx, &model.UploadRequest{FileName: "", LocalDir: t.TempDir()})
		assert.True(t, errors.Is(err, apperrors.ErrFileNotFound))
	})

	t.Run("bucket not set", func(t *testing.T) {
		d, _ := newTestDomain(new(MockObjectStore), nil, nil)
		_, err := d.WithBucket("").PutFile(ctx, &model.UploadRequest{FileName: "x", LocalDir: t.TempDir()})
		assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	})

	t.Run("store failure", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "report.csv", "x")

		store := new(MockObjectStore)
		store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("AccessDenied: Access Denied"))

		d, _ := newTestDomain(store, nil, nil)
		key, err := d.PutFile(ctx, &model.UploadRequest{FileName: "report.csv", LocalDir: dir})
		assert.Empty(t, key)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrRemoteOperation))
		assert.Contains(t, err.Error(), "AccessDenied")
		store.AssertNotCalled(t, "HeadObject", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDomain_PutFileLogs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.csv", "x")

	core, logs := observer.New(zapcore.InfoLevel)
	store := newRecordingStore(func() time.Time { return testNow })
	d := NewDomain(store, nil, nil, testConfig(), nil, zap.New(core))

	_, err := d.PutFile(context.Background(), &model.UploadRequest{FileName: "report.csv", LocalDir: dir})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("putting file").Len())
	stored := logs.FilterMessage("file stored")
	require.Equal(t, 1, stored.Len())
	assert.Equal(t, "test-bucket", stored.All()[0].ContextMap()["bucket"])
}

func TestDomain_WaitUntilExists(t *testing.T) {
	ctx := context.Background()

	t.Run("retries with backoff until visible", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("HeadObject", mock.Anything, "test-bucket", "k").Return(nil, outbound.ErrObjectNotFound).Times(3)
		store.On("HeadObject", mock.Anything, "test-bucket", "k").Return(&model.ObjectInfo{}, nil).Once()

		d, clock := newTestDomain(store, nil, nil)
		require.NoError(t, d.waitUntilExists(ctx, "k"))
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 2 * time.Second}, clock.sleeps)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("HeadObject", mock.Anything, "test-bucket", "k").Return(nil, outbound.ErrObjectNotFound)

		d, clock := newTestDomain(store, nil, nil)
		err := d.waitUntilExists(ctx, "k")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrWaitTimeout))
		store.AssertNumberOfCalls(t, "HeadObject", 4)
		assert.Len(t, clock.sleeps, 3)
	})

	t.Run("gives up at timeout", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("HeadObject", mock.Anything, "test-bucket", "k").Return(nil, outbound.ErrObjectNotFound)

		cfg := testConfig()
		cfg.Wait = WaitPolicy{MaxAttempts: 100, InitialDelay: 10 * time.Second, MaxDelay: 10 * time.Second, Timeout: 25 * time.Second}
		d := NewDomain(store, nil, nil, cfg, nil, nil).WithClock(&fakeClock{now: testNow})

		err := d.waitUntilExists(ctx, "k")
		assert.True(t, errors.Is(err, apperrors.ErrWaitTimeout))
		store.AssertNumberOfCalls(t, "HeadObject", 3)
	})

	t.Run("fails fast on other errors", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("HeadObject", mock.Anything, "test-bucket", "k").Return(nil, errors.New("Forbidden"))

		d, clock := newTestDomain(store, nil, nil)
		err := d.waitUntilExists(ctx, "k")
		assert.True(t, errors.Is(err, apperrors.ErrRemoteOperation))
		assert.False(t, errors.Is(err, apperrors.ErrWaitTimeout))
		assert.Empty(t, clock.sleeps)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("HeadObject", mock.Anything, "test-bucket", "k").Return(nil, outbound.ErrObjectNotFound)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		d, _ := newTestDomain(store, nil, nil)
		err := d.waitUntilExists(cctx, "k")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDomain_PresignURL(t *testing.T) {
	ctx := context.Background()

	t.Run("uses requested duration", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("PresignGetObject", mock.Anything, "test-bucket", "report.csv", 5*time.Hour).
			Return(&model.PresignedURL{Key: "report.csv", URL: "https://signed/report.csv", Method: "GET"}, nil)

		d, _ := newTestDomain(store, nil, nil)
		p, err := d.PresignURL(ctx, "report.csv", 5*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "https://signed/report.csv", p.URL)
		store.AssertExpectations(t)
	})

	t.Run("defaults to 72 hours", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("PresignGetObject", mock.Anything, "test-bucket", "report.csv", 72*time.Hour).
			Return(&model.PresignedURL{URL: "u"}, nil)

		d, _ := newTestDomain(store, nil, nil)
		_, err := d.PresignURL(ctx, "report.csv", 0)
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("requires key", func(t *testing.T) {
		d, _ := newTestDomain(new(MockObjectStore), nil, nil)
		_, err := d.PresignURL(ctx, "", time.Hour)
		assert.True(t, errors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("requires bucket", func(t *testing.T) {
		d, _ := newTestDomain(new(MockObjectStore), nil, nil)
		_, err := d.WithBucket("").PresignURL(ctx, "k", time.Hour)
		assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockObjectStore)
		store.On("PresignGetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no credentials"))

		d, _ := newTestDomain(store, nil, nil)
		p, err := d.PresignURL(ctx, "k", time.Hour)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, apperrors.ErrRemoteOperation))
	})
}

func TestDomain_PresignFile(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "report.csv", "a,b\n")
		store := newRecordingStore(func() time.Time { return testNow })

		d, _ := newTestDomain(store, nil, nil)
		p, err := d.PresignFile(ctx, &model.UploadRequest{FileName: "report.csv", LocalDir: dir, LinkDuration: 5 * time.Hour})
		require.NoError(t, err)

		assert.Equal(t, []string{"test-bucket/report.csv"}, store.puts)
		assert.Equal(t, []string{"test-bucket/report.csv"}, store.presign, "put key is the presigned key")
		assert.Contains(t, p.URL, "report.csv")
		assert.Equal(t, testNow.Add(5*time.Hour), p.ExpiresAt)
	})

	t.Run("no presign after failed put", func(t *testing.T) {
		store := newRecordingStore(time.Now)
		d, _ := newTestDomain(store, nil, nil)

		_, err := d.PresignFile(ctx, &model.UploadRequest{FileName: "missing.csv", LocalDir: t.TempDir()})
		assert.True(t, errors.Is(err, apperrors.ErrFileNotFound))
		assert.Empty(t, store.presign)
	})
}

func TestDomain_AssumeRole(t *testing.T) {
	ctx := context.Background()
	role := model.RoleRequest{Region: "us-east-1", RoleARN: "arn:aws:iam::123456789012:role/reports", SessionName: "s"}

	t.Run("returns scoped copy", func(t *testing.T) {
		base := new(MockObjectStore)
		scoped := new(MockObjectStore)
		creds := &model.AssumedCredentials{AccessKeyID: "ASIA", SecretAccessKey: "s", SessionToken: "t"}

		roles := new(MockRoleAssumer)
		roles.On("AssumeRole", mock.Anything, "us-east-1", role.RoleARN, "s").Return(creds, nil)
		factory := new(MockStoreFactory)
		factory.On("StoreFor", mock.Anything, "us-east-1", creds).Return(scoped, nil)

		d, _ := newTestDomain(base, roles, factory)
		scopedDomain, err := d.AssumeRole(ctx, role)
		require.NoError(t, err)
		assert.Same(t, scoped, scopedDomain.Store())
		assert.Same(t, base, d.Store())
	})

	t.Run("defaults region and session name", func(t *testing.T) {
		roles := new(MockRoleAssumer)
		roles.On("AssumeRole", mock.Anything, "us-east-1", role.RoleARN, mock.MatchedBy(func(s string) bool {
			return len(s) > len("filelink-")
		})).Return(&model.AssumedCredentials{AccessKeyID: "a", SecretAccessKey: "b"}, nil)
		factory := new(MockStoreFactory)
		factory.On("StoreFor", mock.Anything, "us-east-1", mock.Anything).Return(new(MockObjectStore), nil)

		d, _ := newTestDomain(new(MockObjectStore), roles, factory)
		_, err := d.AssumeRole(ctx, model.RoleRequest{RoleARN: role.RoleARN})
		require.NoError(t, err)
		roles.AssertExpectations(t)
	})

	t.Run("failure keeps store", func(t *testing.T) {
		base := new(MockObjectStore)
		roles := new(MockRoleAssumer)
		roles.On("AssumeRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied"))
		factory := new(MockStoreFactory)

		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegisterer("test", reg)
		d := NewDomain(base, roles, factory, testConfig(), m, nil)

		scopedDomain, err := d.AssumeRole(ctx, role)
		assert.Nil(t, scopedDomain)
		assert.True(t, errors.Is(err, apperrors.ErrRemoteOperation))
		assert.Same(t, base, d.Store())
		factory.AssertNotCalled(t, "StoreFor", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RoleAssumptionsTotal.WithLabelValues("error")))
	})

	t.Run("not configured", func(t *testing.T) {
		d, _ := newTestDomain(new(MockObjectStore), nil, nil)
		_, err := d.AssumeRole(ctx, role)
		assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	})

	t.Run("requires role arn", func(t *testing.T) {
		d, _ := newTestDomain(new(MockObjectStore), new(MockRoleAssumer), new(MockStoreFactory))
		_, err := d.AssumeRole(ctx, model.RoleRequest{})
		assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	})
}

func TestDomain_PresignFileWithRole(t *testing.T) {
	ctx := context.Background()
	role := model.RoleRequest{Region: "eu-west-1", RoleARN: "arn:aws:iam::123456789012:role/reports", SessionName: "s"}

	tests := []struct {
		name      string
		requested time.Duration
		want      time.Duration
	}{
		{"within cap", 10 * time.Hour, 10 * time.Hour},
		{"above cap", 100 * time.Hour, 36 * time.Hour},
		{"default", 0, 36 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "report.csv", "x")

			base := newRecordingStore(func() time.Time { return testNow })
			scoped := new(MockObjectStore)
			scoped.On("PresignGetObject", mock.Anything, "test-bucket", "report.csv", tt.want).
				Return(&model.PresignedURL{Key: "report.csv", URL: "https://signed?X-Amz-Security-Token=t"}, nil)

			roles := new(MockRoleAssumer)
			roles.On("AssumeRole", mock.Anything, "eu-west-1", role.RoleARN, "s").
				Return(&model.AssumedCredentials{AccessKeyID: "a", SecretAccessKey: "b", SessionToken: "t"}, nil)
			factory := new(MockStoreFactory)
			factory.On("StoreFor", mock.Anything, "eu-west-1", mock.Anything).Return(scoped, nil)

			d, _ := newTestDomain(base, roles, factory)
			p, err := d.PresignFileWithRole(ctx, &model.UploadRequest{FileName: "report.csv", LocalDir: dir, LinkDuration: tt.requested}, role)
			require.NoError(t, err)
			assert.Contains(t, p.URL, "X-Amz-Security-Token")
			assert.Equal(t, []string{"test-bucket/report.csv"}, base.puts, "upload uses the unscoped store")
			assert.Empty(t, base.presign)
			scoped.AssertExpectations(t)
		})
	}

	t.Run("role failure yields no link", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "report.csv", "x")
		base := newRecordingStore(time.Now)

		roles := new(MockRoleAssumer)
		roles.On("AssumeRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("denied"))

		d, _ := newTestDomain(base, roles, new(MockStoreFactory))
		p, err := d.PresignFileWithRole(ctx, &model.UploadRequest{FileName: "report.csv", LocalDir: dir}, role)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, apperrors.ErrRemoteOperation))
		assert.Empty(t, base.presign)
	})
}
