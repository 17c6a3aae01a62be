package filelink

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/uniedit/filelink/internal/model"
	apperrors "github.com/uniedit/filelink/internal/shared/errors"
)


// Service is the string-returning facade over Domain. Failed operations
// return "" and record a message readable through GetError; the message is
// cleared when the next operation starts. A missing bucket or role setup is
// also returned as a configuration error. Calls are serialized.
//
// New code should use Domain directly.
type Service struct {
	mu      sync.Mutex
	domain  *Domain
	lastErr string
	logger  *zap.Logger
}

// NewService creates a service facade over domain.
func NewService(domain *Domain, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{domain: domain, logger: logger}
}

// SetBucket sets the bucket for subsequent operations. No validation is done.
func (s *Service) SetBucket(bucket string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domain = s.domain.WithBucket(bucket)
}

// CheckBucketSet fails with a configuration error when no bucket is set.
func (s *Service) CheckBucketSet() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain.CheckBucketSet()
}

// GetError returns the last recorded error message, or "".
func (s *Service) GetError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// GetFolder returns <env>/<YYYY>/<MM>/<DD>/ for today.
func (s *Service) GetFolder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain.Folder()
}

// Domain returns the current domain value, including any assumed-role store.
func (s *Service) Domain() *Domain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain
}

// fail records err for GetError. Configuration errors are also returned so
// callers can tell a missing bucket from a failed remote call.
func (s *Service) fail(err error) error {
	if err == nil {
		return nil
	}
	s.lastErr = err.Error()
	if errors.Is(err, apperrors.ErrConfiguration) {
		return err
	}
	return nil
}

// PutFile stores localDir/fileName and returns its key. Other than a
// configuration error, failures return "" and are reported by GetError.
func (s *Service) PutFile(ctx context.Context, fileName, localDir string, useEnvFolder bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""

	key, err := s.domain.PutFile(ctx, &model.UploadRequest{
		FileName:     fileName,
		LocalDir:     localDir,
		UseEnvFolder: useEnvFolder,
	})
	if err != nil {
		return "", s.fail(err)
	}
	return key, nil
}

// GetPresignedURL returns a GET link for key valid for hours (default 72), or "".
func (s *Service) GetPresignedURL(ctx context.Context, key string, hours int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""

	if hours <= 0 {
		hours = DefaultLinkHours
	}
	return s.sign(s.domain.PresignURL(ctx, key, model.HoursToDuration(hours)))
}

func (s *Service) sign(p *model.PresignedURL, err error) (string, error) {
	if err != nil {
		return "", s.fail(err)
	}
	return p.URL, nil
}

// GetPresignedFileURL uploads a file and returns a link to it, or "".
func (s *Service) GetPresignedFileURL(ctx context.Context, fileName, localDir string, useEnvFolder bool, hours int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""

	if hours <= 0 {
		hours = DefaultLinkHours
	}
	return s.sign(s.domain.PresignFile(ctx, &model.UploadRequest{
		FileName:     fileName,
		LocalDir:     localDir,
		UseEnvFolder: useEnvFolder,
		LinkDuration: model.HoursToDuration(hours),
	}))
}

// GetPresignedFileWithSTS uploads a file, assumes roleARN and returns a link
// signed with the role's credentials, or "". The duration is capped by the
// configured role link limit. If the role cannot be assumed no link is returned.
func (s *Service) GetPresignedFileWithSTS(
	ctx context.Context,
	fileName, localDir, region, roleARN, sessionName string,
	useEnvFolder bool,
	hours int,
) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""

	key, err := s.domain.PutFile(ctx, &model.UploadRequest{
		FileName:     fileName,
		LocalDir:     localDir,
		UseEnvFolder: useEnvFolder,
	})
	if err != nil {
		return "", s.fail(err)
	}

	if ok, err := s.assumeRole(ctx, region, roleARN, sessionName); !ok {
		return "", err
	}

	d := s.domain
	return s.sign(d.presign(ctx, key, d.ClampSTSDuration(model.HoursToDuration(hours)), presignModeRole))
}

// AssumeRole rebinds the service to a store signing with temporary
// credentials for roleARN. On failure the previous store stays in use and
// GetError reports why. Only configuration errors are returned.
func (s *Service) AssumeRole(ctx context.Context, region, roleARN, sessionName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
	_, err := s.assumeRole(ctx, region, roleARN, sessionName)
	return err
}

// assumeRole reports whether the role store was bound.
func (s *Service) assumeRole(ctx context.Context, region, roleARN, sessionName string) (bool, error) {
	scoped, err := s.domain.AssumeRole(ctx, model.RoleRequest{
		Region:      region,
		RoleARN:     roleARN,
		SessionName: sessionName,
	})
	if err != nil {
		s.lastErr = "error creating sts client: " + err.Error()
		s.logger.Error("keeping previous store after failed role assumption",
			zap.String("role_arn", roleARN),
			zap.Error(err),
		)
		if errors.Is(err, apperrors.ErrConfiguration) {
			return false, err
		}
		return false, nil
	}

	s.domain = scoped
	return true, nil
}
