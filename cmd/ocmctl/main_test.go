package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeocm/vibeocm-backend/internal/auth/passphrase"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

const projectYAML = `name: Cloud Migration
goal: Move every internal workload to the managed platform
start_date: "2026-01-05"
end_date: "2026-06-30"
stakeholders:
  - role: Finance
    impact: New approval flow
  - role: Support
    impact: Different tooling
impacted_users: 250
org_benefits: Lower hosting costs and faster releases
user_benefits: Fewer outages and quicker access to tools
challenges: Legacy integrations and change fatigue
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeProject(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestHashPassphrase(t *testing.T) {
	out, err := execute(t, "hash-passphrase", "open sesame", "--cost", "4")
	require.NoError(t, err)

	hash := strings.SplitN(out, "\n", 2)[0]
	assert.True(t, passphrase.Validate(hash, "open sesame"))
	assert.Contains(t, out, `HASHED_PASSPHRASE="`+hash+`"`)

	_, err = execute(t, "hash-passphrase", "x", "--cost", "99")
	assert.Error(t, err)

	_, err = execute(t, "hash-passphrase")
	assert.Error(t, err)
}

func TestGenerate_TrialUsesMockContent(t *testing.T) {
	t.Setenv("DEFAULT_MISTRAL_API_KEY", "")
	project := writeProject(t, "project.yaml", projectYAML)
	zipPath := filepath.Join(t.TempDir(), "out.zip")

	out, err := execute(t, "generate", "-p", project, "--auth", "trial", "-o", zipPath,
		"-a", domain.ArtifactChangePlan, "-a", domain.ArtifactCommunicationPlan)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+zipPath+" (2/2 artifacts)")

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"organizational-change-plan.md", "communication-plan.md"}, names)
}

func TestGenerate_Errors(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	t.Run("missing key", func(t *testing.T) {
		project := writeProject(t, "project.json",
			`{"name":"Cloud Migration","goal":"Move every internal workload to the platform","start_date":"2026-01-05","end_date":"2026-06-30","stakeholders":[{"role":"Finance","impact":"New flow"}],"impacted_users":3,"org_benefits":"Lower hosting costs overall","user_benefits":"Fewer outages for everyone","challenges":"Legacy integrations everywhere"}`)
		_, err := execute(t, "generate", "-p", project, "--provider", "openai")
		assert.ErrorIs(t, err, domain.ErrAPIKeyRequired)
	})

	t.Run("invalid project", func(t *testing.T) {
		project := writeProject(t, "project.yaml", "name: X\n")
		_, err := execute(t, "generate", "-p", project, "--auth", "trial")
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("unknown provider", func(t *testing.T) {
		project := writeProject(t, "project.yaml", projectYAML)
		_, err := execute(t, "generate", "-p", project, "--provider", "acme", "--api-key", "k")
		assert.ErrorContains(t, err, "unsupported API provider: acme")
	})

	t.Run("project flag required", func(t *testing.T) {
		_, err := execute(t, "generate")
		assert.Error(t, err)
	})
}
