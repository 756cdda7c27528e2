package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error to the HTTP status and message returned to
// the caller.
func statusFor(err error) (int, string) {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Status == 0 {
			return http.StatusInternalServerError, upstream.Message
		}
		return upstream.Status, upstream.Message
	}

	var derr *domain.Error
	if errors.As(err, &derr) {
		switch {
		case errors.Is(derr.Kind, domain.ErrNotFound):
			return http.StatusNotFound, derr.Message
		case errors.Is(derr.Kind, domain.ErrValidation), errors.Is(derr.Kind, domain.ErrState):
			return http.StatusBadRequest, derr.Message
		}
	}
	return http.StatusInternalServerError, err.Error()
}

func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	status, msg := statusFor(err)
	fields := []zap.Field{zap.String("op", op), zap.Int("status", status), zap.Error(err)}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Warn("request rejected", fields...)
	}
	c.JSON(status, gin.H{"error": msg})
}
