package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

func sampleProject() domain.ProjectData {
	return domain.ProjectData{
		Name:      "CRM Rollout",
		Goal:      "Move every sales rep onto the new CRM platform",
		StartDate: "2025-01-01",
		EndDate:   "2025-06-30",
		Stakeholders: []domain.Stakeholder{
			{Role: "Sales", Impact: "New daily workflow"},
			{Role: "IT", Impact: "Support load"},
		},
		ImpactedUsers: 250,
		OrgBenefits:   "Single source of truth for pipeline data",
		UserBenefits:  "Less manual data entry for reps",
		Challenges:    "Resistance from long-tenured staff",
	}
}

func TestCatalog_HasEveryArtifact(t *testing.T) {
	assert.Contains(t, System(), "Organizational Change Management")
	for _, a := range domain.AllArtifacts {
		assert.NotEmpty(t, loaded.Templates[a], a)
	}
}

func TestFormat_ReplacesEveryPlaceholder(t *testing.T) {
	for _, a := range domain.AllArtifacts {
		out := UserPrompt(a, sampleProject())
		assert.NotContains(t, out, "{", a)
		assert.Contains(t, out, "CRM Rollout", a)
		assert.Contains(t, out, "250", a)
	}
}

func TestFormat_StakeholdersAsBullets(t *testing.T) {
	out := Format("Stakeholders:\n{stakeholders}", sampleProject())
	assert.Equal(t, "Stakeholders:\n- Sales: New daily workflow\n- IT: Support load", out)
}

func TestFormat_RepeatedPlaceholder(t *testing.T) {
	out := Format("{projectName} / {projectName}", sampleProject())
	assert.Equal(t, "CRM Rollout / CRM Rollout", out)
}

func TestTemplate_FallbackForUnknownArtifact(t *testing.T) {
	out := UserPrompt("Training Plan", sampleProject())
	assert.True(t, strings.HasPrefix(out, "Generate a Training Plan for the following project details:"))
	assert.Contains(t, out, "Project Name: CRM Rollout")
	assert.Contains(t, out, "- IT: Support load")
}

func TestParseCatalog_Errors(t *testing.T) {
	_, err := parseCatalog([]byte("system: [unclosed"))
	require.Error(t, err)

	_, err = parseCatalog([]byte("system: hello\ntemplates: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing template")

	_, err = parseCatalog([]byte("templates: {}\n"))
	assert.EqualError(t, err, "prompt catalog: system prompt is empty")
}
