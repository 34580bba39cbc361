package http

import "github.com/gin-gonic/gin"

// Register registers the wizard session routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.CreateSession)
	rg.GET("/sessions/:id", h.GetSession)
	rg.DELETE("/sessions/:id", h.DeleteSession)

	rg.POST("/sessions/:id/auth", h.SubmitAuth)
	rg.POST("/sessions/:id/basics", h.SubmitBasics)
	rg.POST("/sessions/:id/stakeholders", h.SubmitStakeholders)
	rg.POST("/sessions/:id/benefits", h.SubmitBenefits)
	rg.POST("/sessions/:id/back", h.Back)

	rg.POST("/sessions/:id/artifacts", h.SelectArtifact)
	rg.GET("/sessions/:id/artifacts/:file", h.DownloadArtifact)
	rg.POST("/sessions/:id/refinement", h.OpenRefinement)
	rg.POST("/sessions/:id/refine", h.Refine)
	rg.POST("/sessions/:id/start-over", h.StartOver)
	rg.POST("/sessions/:id/bundle", h.Bundle)

	rg.GET("/sessions/:id/events", h.StreamProgress)
	rg.GET("/sessions/:id/history", h.History)
}
