package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ===== Upload Types =====

// UploadRequest describes a single upload of a local file.
type UploadRequest struct {
	// FileName is the object name and the file name inside LocalDir.
	FileName string
	// LocalDir is the directory holding the file.
	LocalDir string
	// UseEnvFolder prefixes the key with <env>/<YYYY>/<MM>/<DD>/.
	UseEnvFolder bool
	// LinkDuration is the lifetime of the presigned link. Zero uses the configured default.
	LinkDuration time.Duration
}

// HoursToDuration converts a whole number of hours to a duration.
func HoursToDuration(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

// ===== Credential Types =====

// AssumedCredentials are short-lived credentials returned by the token service.
type AssumedCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// RoleRequest identifies the role to assume.
type RoleRequest struct {
	Region      string
	RoleARN     string
	SessionName string
}

// SessionNameOrDefault returns the session name, generating one when empty.
func (r RoleRequest) SessionNameOrDefault() string {
	if r.SessionName != "" {
		return r.SessionName
	}
	return fmt.Sprintf("filelink-%s", uuid.New().String())
}

// ===== Object Types =====

// PresignedURL represents a presigned URL response.
type PresignedURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObjectInfo represents object metadata.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified *time.Time
}
