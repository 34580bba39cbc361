package http

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vibeocm/vibeocm-backend/internal/bundle"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

func respondSession(c *gin.Context, status int, s *domain.Session) {
	c.JSON(status, sessionResponse{OK: true, Session: s.View()})
}

// CreateSession starts a new wizard session.
func (h *Handler) CreateSession(c *gin.Context) {
	s, err := h.wizard.Start(c.Request.Context())
	if err != nil {
		writeError(c, "create_session", err)
		return
	}
	respondSession(c, http.StatusCreated, s)
}

func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.wizard.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "get_session", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.wizard.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "delete_session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) SubmitAuth(c *gin.Context) {
	var body domain.AuthInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	s, err := h.wizard.SubmitAuth(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		writeError(c, "submit_auth", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) SubmitBasics(c *gin.Context) {
	var body domain.BasicsInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	s, err := h.wizard.SubmitBasics(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		writeError(c, "submit_basics", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) SubmitStakeholders(c *gin.Context) {
	var body domain.StakeholdersInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	s, err := h.wizard.SubmitStakeholders(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		writeError(c, "submit_stakeholders", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) SubmitBenefits(c *gin.Context) {
	var body domain.BenefitsInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	s, err := h.wizard.SubmitBenefits(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		writeError(c, "submit_benefits", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) Back(c *gin.Context) {
	s, err := h.wizard.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "back", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

// SelectArtifact generates the chosen artifact synchronously.
func (h *Handler) SelectArtifact(c *gin.Context) {
	var body selectArtifactRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	s, err := h.wizard.SelectArtifact(c.Request.Context(), c.Param("id"), body.Artifact)
	if err != nil {
		writeError(c, "select_artifact", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) OpenRefinement(c *gin.Context) {
	s, err := h.wizard.OpenRefinement(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "open_refinement", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) Refine(c *gin.Context) {
	var body refineRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	s, err := h.wizard.Refine(c.Request.Context(), c.Param("id"), body.Feedback)
	if err != nil {
		writeError(c, "refine", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *Handler) StartOver(c *gin.Context) {
	s, err := h.wizard.StartOver(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "start_over", err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

// Bundle generates every artifact and returns them as a ZIP download.
func (h *Handler) Bundle(c *gin.Context) {
	b, err := h.wizard.GenerateAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "bundle", err)
		return
	}

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		writeError(c, "bundle", err)
		return
	}
	attachment(c, bundle.FileName(b.ProjectName))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// DownloadArtifact serves one generated artifact as a Markdown file.
func (h *Handler) DownloadArtifact(c *gin.Context) {
	artifact, content, err := h.wizard.Artifact(c.Request.Context(), c.Param("id"), c.Param("file"))
	if err != nil {
		writeError(c, "download_artifact", err)
		return
	}
	attachment(c, bundle.Slug(artifact)+".md")
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(content))
}

// attachment sets Content-Disposition with the file name quoted or
// RFC 2231 encoded as needed.
func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

func (h *Handler) History(c *gin.Context) {
	records, err := h.wizard.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{OK: true, Artifacts: records})
}
