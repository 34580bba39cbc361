package domain

import (
	"strings"
	"time"
)

// Provider is the chat-completion backend used for generation.
type Provider string

const (
	ProviderOpenAI  Provider = "openai"
	ProviderMistral Provider = "mistral"
)

func (p Provider) Valid() bool {
	return p == ProviderOpenAI || p == ProviderMistral
}

// DisplayName is the provider name used in user-facing messages.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderMistral:
		return "Mistral"
	default:
		return string(p)
	}
}

// AuthMethod is how the user authenticated in the first wizard step.
type AuthMethod string

const (
	AuthOpenAI     AuthMethod = "openai"
	AuthMistral    AuthMethod = "mistral"
	AuthPassphrase AuthMethod = "passphrase"
	AuthTrial      AuthMethod = "trial"
)

func (m AuthMethod) Valid() bool {
	switch m {
	case AuthOpenAI, AuthMistral, AuthPassphrase, AuthTrial:
		return true
	}
	return false
}

// UsesSharedKey reports whether generation runs on the server's default
// Mistral key instead of a key supplied by the user.
func (m AuthMethod) UsesSharedKey() bool {
	return m == AuthPassphrase || m == AuthTrial
}

type Stakeholder struct {
	Role   string `json:"role" yaml:"role"`
	Impact string `json:"impact" yaml:"impact"`
}

// ProjectData holds everything the prompts need about the change initiative.
type ProjectData struct {
	Name          string        `json:"name" yaml:"name"`
	Goal          string        `json:"goal" yaml:"goal"`
	StartDate     string        `json:"start_date" yaml:"start_date"`
	EndDate       string        `json:"end_date" yaml:"end_date"`
	Stakeholders  []Stakeholder `json:"stakeholders" yaml:"stakeholders"`
	ImpactedUsers int           `json:"impacted_users" yaml:"impacted_users"`
	OrgBenefits   string        `json:"org_benefits" yaml:"org_benefits"`
	UserBenefits  string        `json:"user_benefits" yaml:"user_benefits"`
	Challenges    string        `json:"challenges" yaml:"challenges"`
}

// Session is the server-side state of one wizard run. APIKey is persisted so
// later steps can call the provider, but it is never part of View.
type Session struct {
	ID               string            `json:"id"`
	Step             Step              `json:"step"`
	Provider         Provider          `json:"provider,omitempty"`
	AuthMethod       AuthMethod        `json:"auth_method,omitempty"`
	APIKey           string            `json:"api_key,omitempty"`
	Project          ProjectData       `json:"project"`
	SelectedArtifact string            `json:"selected_artifact,omitempty"`
	Content          string            `json:"content,omitempty"`
	Artifacts        map[string]string `json:"artifacts,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// SessionView is the client-facing projection of a Session.
type SessionView struct {
	ID               string            `json:"id"`
	Step             Step              `json:"step"`
	Provider         Provider          `json:"provider,omitempty"`
	AuthMethod       AuthMethod        `json:"auth_method,omitempty"`
	HasAPIKey        bool              `json:"has_api_key"`
	Project          ProjectData       `json:"project"`
	SelectedArtifact string            `json:"selected_artifact,omitempty"`
	Content          string            `json:"content,omitempty"`
	Artifacts        map[string]string `json:"artifacts,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (s *Session) View() SessionView {
	return SessionView{
		ID:               s.ID,
		Step:             s.Step,
		Provider:         s.Provider,
		AuthMethod:       s.AuthMethod,
		HasAPIKey:        strings.TrimSpace(s.APIKey) != "",
		Project:          s.Project,
		SelectedArtifact: s.SelectedArtifact,
		Content:          s.Content,
		Artifacts:        s.Artifacts,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ArtifactRecord is one generated or refined artifact kept in history.
type ArtifactRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Artifact   string    `json:"artifact"`
	Content    string    `json:"content"`
	Provider   Provider  `json:"provider"`
	Model      string    `json:"model"`
	Refinement bool      `json:"refinement"`
	CreatedAt  time.Time `json:"created_at"`
}

// Progress statuses published while generating every artifact.
const (
	ProgressStarted   = "started"
	ProgressGenerated = "generated"
	ProgressFailed    = "failed"
	ProgressDone      = "done"
)

type ProgressEvent struct {
	SessionID string  `json:"session_id"`
	Artifact  string  `json:"artifact,omitempty"`
	Index     int     `json:"index"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
}
