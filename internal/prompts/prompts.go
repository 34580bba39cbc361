// Package prompts renders the system prompt and per-artifact templates sent
// to the chat-completion provider.
package prompts

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalog struct {
	System    string            `yaml:"system"`
	Fallback  string            `yaml:"fallback"`
	Templates map[string]string `yaml:"templates"`
}

var loaded catalog

func init() {
	c, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	loaded = c
}

func parseCatalog(raw []byte) (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return catalog{}, fmt.Errorf("parse prompt catalog: %w", err)
	}
	if strings.TrimSpace(c.System) == "" {
		return catalog{}, fmt.Errorf("prompt catalog: system prompt is empty")
	}
	for _, a := range domain.AllArtifacts {
		if strings.TrimSpace(c.Templates[a]) == "" {
			return catalog{}, fmt.Errorf("prompt catalog: missing template for %q", a)
		}
	}
	return c, nil
}

func System() string {
	return loaded.System
}

// Template returns the prompt template for artifact. Artifacts outside the
// catalogue get a generic template that embeds the whole project block.
func Template(artifact string) string {
	if t, ok := loaded.Templates[artifact]; ok {
		return t
	}
	return strings.ReplaceAll(loaded.Fallback, "{artifact}", artifact)
}

// Format substitutes every placeholder in template with project data.
func Format(template string, p domain.ProjectData) string {
	stakeholders := StakeholderList(p.Stakeholders)
	r := strings.NewReplacer(
		"{projectName}", p.Name,
		"{projectGoal}", p.Goal,
		"{startDate}", p.StartDate,
		"{endDate}", p.EndDate,
		"{impactedUsers}", strconv.Itoa(p.ImpactedUsers),
		"{stakeholders}", stakeholders,
		"{orgBenefits}", p.OrgBenefits,
		"{userBenefits}", p.UserBenefits,
		"{challenges}", p.Challenges,
		"{projectDetails}", details(p, stakeholders),
	)
	return r.Replace(template)
}

// UserPrompt renders the template for artifact against p.
func UserPrompt(artifact string, p domain.ProjectData) string {
	return Format(Template(artifact), p)
}

// StakeholderList renders one "- role: impact" line per stakeholder.
func StakeholderList(list []domain.Stakeholder) string {
	lines := make([]string, 0, len(list))
	for _, s := range list {
		lines = append(lines, fmt.Sprintf("- %s: %s", s.Role, s.Impact))
	}
	return strings.Join(lines, "\n")
}

func details(p domain.ProjectData, stakeholders string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Project Goal: %s\n", p.Goal)
	fmt.Fprintf(&b, "Timeline: %s to %s\n", p.StartDate, p.EndDate)
	fmt.Fprintf(&b, "Number of Impacted Users: %d\n\n", p.ImpactedUsers)
	fmt.Fprintf(&b, "Stakeholders:\n%s\n\n", stakeholders)
	fmt.Fprintf(&b, "Benefits to Organization:\n%s\n\n", p.OrgBenefits)
	fmt.Fprintf(&b, "Benefits to End Users:\n%s\n\n", p.UserBenefits)
	fmt.Fprintf(&b, "Challenges:\n%s", p.Challenges)
	return b.String()
}
