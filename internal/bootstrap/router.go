package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/vibeocm/vibeocm-backend/internal/api/http"
	"github.com/vibeocm/vibeocm-backend/internal/api/http/middleware"
	wizardhttp "github.com/vibeocm/vibeocm-backend/internal/wizard/http"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	Flags       httpapi.Flags
	Wizard      *service.WizardService
	// DB may be nil when artifact history is disabled.
	DB    httpapi.Pinger
	Redis httpapi.Pinger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())

	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
			ExposeHeaders:    []string{"Content-Disposition", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	httpapi.NewFlagsHandler(dep.Flags).RegisterRoutes(r.Group("/api"))

	if dep.Wizard != nil {
		wizardhttp.New(dep.Wizard).Register(r.Group("/api/v1"))
	}

	return r
}
