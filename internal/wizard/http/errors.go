package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vibeocm/vibeocm-backend/internal/llm"
	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/service"
)

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, op string, err error) {
	var ve *domain.ValidationError
	var genErr *service.GenerationError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "validation failed", "fields": ve.Fields})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "session not found"})
	case errors.Is(err, domain.ErrInvalidStep), errors.Is(err, domain.ErrNoContent):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidPassphrase):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid passphrase. Please try again or use your own API key."})
	case errors.Is(err, domain.ErrUnknownArtifact):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.As(err, &genErr):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": genErr.Message, "error_type": llm.TypeOf(err)})
	default:
		logging.FromContext(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
}
