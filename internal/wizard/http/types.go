package http

import (
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/service"
)

// Handler serves the wizard session API.
type Handler struct {
	wizard *service.WizardService
}

func New(wizard *service.WizardService) *Handler {
	return &Handler{wizard: wizard}
}

type selectArtifactRequest struct {
	Artifact string `json:"artifact"`
}

type refineRequest struct {
	Feedback string `json:"feedback"`
}

type sessionResponse struct {
	OK      bool               `json:"ok"`
	Session domain.SessionView `json:"session"`
}

type historyResponse struct {
	OK        bool                    `json:"ok"`
	Artifacts []domain.ArtifactRecord `json:"artifacts"`
}
