package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vibeocm/vibeocm-backend/internal/llm"
)

// Pinger is satisfied by the Redis session store and the history database.
type Pinger interface {
	Ping(ctx context.Context) error
}

type LLMStats struct {
	Calls            int64   `json:"calls"`
	Errors           int64   `json:"errors"`
	Retries          int64   `json:"retries"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRatePct     float64 `json:"error_rate_pct"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
	Redis     string    `json:"redis"`
	LLM       LLMStats  `json:"llm"`
}

type HealthHandler struct {
	serviceName string
	version     string
	db          Pinger
	redis       Pinger
}

// NewHealthHandler builds the health endpoint. A nil db reports "disabled".
func NewHealthHandler(serviceName, version string, db, redis Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		redis:       redis,
	}
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	dbStatus := ping(ctx, h.db)
	redisStatus := ping(ctx, h.redis)

	status, code := "healthy", http.StatusOK
	if redisStatus == "down" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	} else if dbStatus == "down" {
		status = "degraded"
	}

	m := llm.GetMetrics()
	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Redis:     redisStatus,
		LLM: LLMStats{
			Calls:            m.Calls,
			Errors:           m.Errors,
			Retries:          m.Retries,
			AverageLatencyMs: m.AverageLatencyMs(),
			ErrorRatePct:     m.ErrorRate(),
		},
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
