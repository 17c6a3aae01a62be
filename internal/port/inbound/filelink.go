package inbound

import (
	"context"
	"time"

	"github.com/uniedit/filelink/internal/model"
)

// --- Request/Response Types ---

// PresignKeyInput represents a presign request for an existing key.
type PresignKeyInput struct {
	Key           string `json:"key" binding:"required"`
	DurationHours int    `json:"duration_hours,omitempty"`
}

// LinkOutput represents a presigned link response.
type LinkOutput struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Method    string `json:"method"`
	ExpiresAt int64  `json:"expires_at"`
}

// NewLinkOutput converts a presigned URL to its response form.
func NewLinkOutput(p *model.PresignedURL) *LinkOutput {
	return &LinkOutput{
		Key:       p.Key,
		URL:       p.URL,
		Method:    p.Method,
		ExpiresAt: p.ExpiresAt.Unix(),
	}
}

// --- Domain Interface ---

// FileLinkDomain defines the upload and presign operations exposed to inbound adapters.
type FileLinkDomain interface {
	PutFile(ctx context.Context, req *model.UploadRequest) (string, error)
	PresignURL(ctx context.Context, key string, duration time.Duration) (*model.PresignedURL, error)
	PresignFile(ctx context.Context, req *model.UploadRequest) (*model.PresignedURL, error)
	PresignFileWithRole(ctx context.Context, req *model.UploadRequest, role model.RoleRequest) (*model.PresignedURL, error)
}
