package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/uniedit/filelink/internal/shared/errors"
)

// Error sends an application error as JSON, choosing the status from err.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewAppError("INTERNAL_ERROR", "internal error", apperrors.GetStatusCode(err), err)
	}
	_ = c.Error(err)
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}

// BadRequest sends a 400 Bad Request response.
func BadRequest(c *gin.Context, message string) {
	Error(c, apperrors.BadRequest(message))
}
