package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Flags exposes environment-derived switches the UI reads at startup.
// Secrets never leave the server; only whether they are configured.
type Flags struct {
	TrialAvailable   bool
	AnalyticsEnabled bool
	AnalyticsHost    string
}

type FlagsHandler struct {
	flags Flags
}

func NewFlagsHandler(f Flags) *FlagsHandler {
	return &FlagsHandler{flags: f}
}

func (h *FlagsHandler) Env(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trialAvailable": h.flags.TrialAvailable})
}

func (h *FlagsHandler) CheckTrial(c *gin.Context) {
	msg := "Trial mode is not available"
	if h.flags.TrialAvailable {
		msg = "Trial mode is available"
	}
	c.JSON(http.StatusOK, gin.H{"available": h.flags.TrialAvailable, "message": msg})
}

func (h *FlagsHandler) AnalyticsConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.flags.AnalyticsEnabled, "host": h.flags.AnalyticsHost})
}

func (h *FlagsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/env", h.Env)
	rg.GET("/check-trial", h.CheckTrial)
	rg.GET("/analytics/config", h.AnalyticsConfig)
}
