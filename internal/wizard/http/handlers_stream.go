package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

const keepAliveInterval = 15 * time.Second

// StreamProgress relays bundle generation progress as Server-Sent Events.
// The stream ends after the done event or when the client disconnects.
func (h *Handler) StreamProgress(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	events, closeFn, err := h.wizard.Subscribe(ctx, sessionID)
	if err != nil {
		writeError(c, "stream_progress", err)
		return
	}
	defer func() {
		if err := closeFn(); err != nil {
			logging.FromContext(ctx).LogWarnf("stream_progress", "closing subscription: %v", err)
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	fmt.Fprintf(c.Writer, "event: subscribed\ndata: {\"session_id\":%q}\n\n", sessionID)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case ev, ok := <-events:
			if !ok {
				return
			}
			data, _ := json.Marshal(ev)
			fmt.Fprintf(c.Writer, "event: progress\ndata: %s\n\n", data)
			flusher.Flush()
			if ev.Status == domain.ProgressDone {
				return
			}
		}
	}
}
