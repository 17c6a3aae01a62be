package filelinkhttp

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/port/inbound"
	"github.com/uniedit/filelink/internal/shared/response"
	"github.com/uniedit/filelink/internal/utils/requestctx"
)

// Handler handles file link HTTP requests.
type Handler struct {
	domain inbound.FileLinkDomain
	logger *zap.Logger
}

// NewHandler creates a new file link handler.
func NewHandler(domain inbound.FileLinkDomain, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{domain: domain, logger: logger}
}

// RegisterRoutes registers file link routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	links := r.Group("/links")
	{
		links.POST("", h.CreateLink)
		links.POST("/presign", h.PresignKey)
	}
}

// CreateLink uploads a multipart file and returns a presigned link to it.
// A role_arn form field signs the link with that role's credentials.
func (h *Handler) CreateLink(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	hours, ok := formHours(c)
	if !ok {
		return
	}

	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) {
		response.BadRequest(c, "invalid file name")
		return
	}

	dir, err := os.MkdirTemp("", "filelink-upload-*")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer os.RemoveAll(dir)

	if err := c.SaveUploadedFile(fh, filepath.Join(dir, name)); err != nil {
		response.Error(c, err)
		return
	}

	useEnv, _ := strconv.ParseBool(c.DefaultPostForm("env_folder", "true"))
	req := &model.UploadRequest{
		FileName:     name,
		LocalDir:     dir,
		UseEnvFolder: useEnv,
		LinkDuration: model.HoursToDuration(hours),
	}

	ctx := c.Request.Context()
	var link *model.PresignedURL
	if roleARN := c.PostForm("role_arn"); roleARN != "" {
		link, err = h.domain.PresignFileWithRole(ctx, req, model.RoleRequest{
			Region:      c.PostForm("region"),
			RoleARN:     roleARN,
			SessionName: c.PostForm("session_name"),
		})
	} else {
		link, err = h.domain.PresignFile(ctx, req)
	}
	if err != nil {
		h.logger.Warn("create link failed",
			zap.String("file", name),
			zap.String("request_id", requestctx.RequestID(ctx)),
			zap.Error(err),
		)
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, inbound.NewLinkOutput(link))
}

// PresignKey returns a presigned link for an object that is already stored.
func (h *Handler) PresignKey(c *gin.Context) {
	var input inbound.PresignKeyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if input.DurationHours < 0 {
		response.BadRequest(c, "duration_hours must not be negative")
		return
	}

	link, err := h.domain.PresignURL(c.Request.Context(), input.Key, model.HoursToDuration(input.DurationHours))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, inbound.NewLinkOutput(link))
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func formHours(c *gin.Context) (int, bool) {
	raw := c.PostForm("duration_hours")
	if raw == "" {
		return 0, true
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 0 {
		response.BadRequest(c, "duration_hours must be a non-negative integer")
		return 0, false
	}
	return hours, true
}
