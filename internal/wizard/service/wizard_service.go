package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vibeocm/vibeocm-backend/internal/analytics"
	"github.com/vibeocm/vibeocm-backend/internal/auth/passphrase"
	"github.com/vibeocm/vibeocm-backend/internal/bundle"
	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

// SessionStore persists wizard sessions and relays progress events.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
	PublishProgress(ctx context.Context, ev domain.ProgressEvent) error
	Subscribe(ctx context.Context, sessionID string) (<-chan domain.ProgressEvent, func() error, error)
}

// ArtifactStore keeps the history of generated artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, rec *domain.ArtifactRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.ArtifactRecord, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type ArtifactGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

type WizardConfig struct {
	HashedPassphrase string
}

// WizardService drives a session through the wizard steps.
type WizardService struct {
	sessions SessionStore
	history  ArtifactStore
	gen      ArtifactGenerator
	sink     analytics.Sink
	cfg      WizardConfig
}

func NewWizardService(sessions SessionStore, history ArtifactStore, gen ArtifactGenerator, sink analytics.Sink, cfg WizardConfig) *WizardService {
	if sink == nil {
		sink = analytics.Noop{}
	}
	return &WizardService{sessions: sessions, history: history, gen: gen, sink: sink, cfg: cfg}
}

// Start opens a new session at the authentication step.
func (s *WizardService) Start(ctx context.Context) (*domain.Session, error) {
	sess := &domain.Session{
		Step:      domain.StepAPIKey,
		Artifacts: map[string]string{},
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).LogInfof("wizard.start", "session %s started", sess.ID)
	return sess, nil
}

func (s *WizardService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.Get(ctx, id)
}

func (s *WizardService) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// load fetches the session and checks that it has unlocked step.
func (s *WizardService) load(ctx context.Context, id string, step domain.Step) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Step.Reached(step) {
		return nil, fmt.Errorf("%w: session is at %s, %s requested", domain.ErrInvalidStep, sess.Step, step)
	}
	if sess.Artifacts == nil {
		sess.Artifacts = map[string]string{}
	}
	return sess, nil
}

func (s *WizardService) moveTo(ctx context.Context, sess *domain.Session, to domain.Step) error {
	from := sess.Step
	sess.Step = to
	if err := s.sessions.Update(ctx, sess); err != nil {
		return err
	}
	s.sink.Capture(ctx, sess.ID, analytics.EventNavigateStep, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	return nil
}

func (s *WizardService) SubmitAuth(ctx context.Context, id string, in domain.AuthInput) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepAPIKey)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateAuth(in); err != nil {
		s.authFailed(ctx, sess.ID, in.Method, "validation_error")
		return nil, err
	}

	var event string
	props := map[string]any{}
	switch in.Method {
	case domain.AuthOpenAI:
		sess.Provider, sess.APIKey = domain.ProviderOpenAI, in.APIKey
		event, props["provider"] = analytics.EventAPIKeySubmitted, string(in.Method)
	case domain.AuthMistral:
		sess.Provider, sess.APIKey = domain.ProviderMistral, in.APIKey
		event, props["provider"] = analytics.EventAPIKeySubmitted, string(in.Method)
	case domain.AuthPassphrase:
		if !passphrase.Validate(s.cfg.HashedPassphrase, in.Passphrase) {
			logging.FromContext(ctx).LogWarn("wizard.auth", "Passphrase validation failed")
			s.authFailed(ctx, sess.ID, in.Method, "invalid_passphrase")
			return nil, domain.ErrInvalidPassphrase
		}
		sess.Provider, sess.APIKey = domain.ProviderMistral, ""
		event, props["passphraseLength"] = analytics.EventPassphraseSubmitted, utf8.RuneCountInString(in.Passphrase)
	case domain.AuthTrial:
		sess.Provider, sess.APIKey = domain.ProviderMistral, ""
		event, props["authMethod"] = analytics.EventTrialSubmitted, string(in.Method)
	}
	sess.AuthMethod = in.Method

	if err := s.moveTo(ctx, sess, domain.StepProjectBasics); err != nil {
		s.authFailed(ctx, sess.ID, in.Method, "session_error")
		return nil, err
	}
	s.sink.Capture(ctx, sess.ID, event, props)
	return sess, nil
}

func (s *WizardService) authFailed(ctx context.Context, sessionID string, method domain.AuthMethod, errorType string) {
	s.sink.Capture(ctx, sessionID, analytics.EventAuthenticationError, map[string]any{
		"method":    string(method),
		"errorType": errorType,
	})
}

func (s *WizardService) SubmitBasics(ctx context.Context, id string, in domain.BasicsInput) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepProjectBasics)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateBasics(in); err != nil {
		return nil, err
	}
	sess.Project.Name = in.Name
	sess.Project.Goal = in.Goal
	sess.Project.StartDate = in.StartDate
	sess.Project.EndDate = in.EndDate

	if err := s.moveTo(ctx, sess, domain.StepStakeholders); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *WizardService) SubmitStakeholders(ctx context.Context, id string, in domain.StakeholdersInput) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepStakeholders)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateStakeholders(in); err != nil {
		return nil, err
	}
	sess.Project.Stakeholders = in.Stakeholders
	sess.Project.ImpactedUsers = in.ImpactedUsers

	if err := s.moveTo(ctx, sess, domain.StepBenefits); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *WizardService) SubmitBenefits(ctx context.Context, id string, in domain.BenefitsInput) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepBenefits)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateBenefits(in); err != nil {
		return nil, err
	}
	sess.Project.OrgBenefits = in.OrgBenefits
	sess.Project.UserBenefits = in.UserBenefits
	sess.Project.Challenges = in.Challenges

	if err := s.moveTo(ctx, sess, domain.StepArtifactSelection); err != nil {
		return nil, err
	}
	return sess, nil
}

// Back moves the session to the previous step.
func (s *WizardService) Back(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, ok := sess.Step.Previous()
	if !ok {
		return nil, fmt.Errorf("%w: no step before %s", domain.ErrInvalidStep, sess.Step)
	}
	if err := s.moveTo(ctx, sess, prev); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *WizardService) request(sess *domain.Session, artifact string) GenerateRequest {
	return GenerateRequest{
		Artifact:   artifact,
		Project:    sess.Project,
		Provider:   sess.Provider,
		AuthMethod: sess.AuthMethod,
		APIKey:     sess.APIKey,
		DistinctID: sess.ID,
	}
}

// SelectArtifact generates artifact and shows it on the results step.
func (s *WizardService) SelectArtifact(ctx context.Context, id, artifact string) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepArtifactSelection)
	if err != nil {
		return nil, err
	}
	if !domain.IsKnownArtifact(artifact) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownArtifact, artifact)
	}

	res, err := s.gen.Generate(ctx, s.request(sess, artifact))
	if err != nil {
		return nil, err
	}

	sess.SelectedArtifact = artifact
	sess.Content = res.Content
	sess.Artifacts[artifact] = res.Content
	s.record(ctx, sess.ID, artifact, res, false)

	if err := s.moveTo(ctx, sess, domain.StepResults); err != nil {
		return nil, err
	}
	return sess, nil
}

// OpenRefinement moves from results to the refinement step.
func (s *WizardService) OpenRefinement(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepResults)
	if err != nil {
		return nil, err
	}
	if sess.Content == "" {
		return nil, domain.ErrNoContent
	}
	if err := s.moveTo(ctx, sess, domain.StepRefinement); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refine rewrites the selected artifact with feedback and returns to results.
func (s *WizardService) Refine(ctx context.Context, id, feedback string) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepResults)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateFeedback(feedback); err != nil {
		return nil, err
	}
	if sess.Content == "" || sess.SelectedArtifact == "" {
		return nil, domain.ErrNoContent
	}

	req := s.request(sess, sess.SelectedArtifact)
	req.CurrentContent = sess.Content
	req.Feedback = feedback
	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	sess.Content = res.Content
	sess.Artifacts[sess.SelectedArtifact] = res.Content
	s.record(ctx, sess.ID, sess.SelectedArtifact, res, true)
	s.sink.Capture(ctx, sess.ID, analytics.EventRefineArtifact, map[string]any{
		"artifactType": sess.SelectedArtifact,
	})

	if err := s.moveTo(ctx, sess, domain.StepResults); err != nil {
		return nil, err
	}
	return sess, nil
}

// StartOver clears the current artifact and returns to artifact selection.
func (s *WizardService) StartOver(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.load(ctx, id, domain.StepArtifactSelection)
	if err != nil {
		return nil, err
	}
	s.sink.Capture(ctx, sess.ID, analytics.EventGenerateAnother, map[string]any{
		"previousArtifact": sess.SelectedArtifact,
	})
	sess.SelectedArtifact = ""
	sess.Content = ""
	if err := s.moveTo(ctx, sess, domain.StepArtifactSelection); err != nil {
		return nil, err
	}
	return sess, nil
}

// GenerateAll generates every catalogue artifact in order. A failed artifact
// is recorded in the bundle and does not stop the batch.
func (s *WizardService) GenerateAll(ctx context.Context, id string) (*bundle.Bundle, error) {
	log := logging.FromContext(ctx)
	sess, err := s.load(ctx, id, domain.StepArtifactSelection)
	if err != nil {
		return nil, err
	}
	s.sink.Capture(ctx, sess.ID, analytics.EventLazyGeneration, map[string]any{
		"projectName": sess.Project.Name,
		"provider":    string(sess.Provider),
		"authMethod":  string(sess.AuthMethod),
	})

	total := len(domain.AllArtifacts)
	b := &bundle.Bundle{ProjectName: sess.Project.Name}
	generated := map[string]string{}
	first := ""
	for i, artifact := range domain.AllArtifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.publish(ctx, domain.ProgressEvent{
			SessionID: sess.ID, Artifact: artifact, Index: i, Total: total,
			Percent: percent(i, total), Status: domain.ProgressStarted,
		})

		res, err := s.gen.Generate(ctx, s.request(sess, artifact))
		ev := domain.ProgressEvent{
			SessionID: sess.ID, Artifact: artifact, Index: i + 1, Total: total,
			Percent: percent(i+1, total), Status: domain.ProgressGenerated,
		}
		if err != nil {
			log.LogWarnf("wizard.generate_all", "artifact %s failed: %v", artifact, err)
			b.Entries = append(b.Entries, bundle.Entry{Artifact: artifact, Err: err})
			ev.Status, ev.Error = domain.ProgressFailed, err.Error()
			s.publish(ctx, ev)
			continue
		}

		b.Entries = append(b.Entries, bundle.Entry{Artifact: artifact, Content: res.Content})
		generated[artifact] = res.Content
		if first == "" {
			first = artifact
		}
		s.record(ctx, sess.ID, artifact, res, false)
		s.publish(ctx, ev)
	}

	s.publish(ctx, domain.ProgressEvent{
		SessionID: sess.ID, Index: total, Total: total, Percent: 100, Status: domain.ProgressDone,
	})
	s.sink.Capture(ctx, sess.ID, analytics.EventBundleGenerated, map[string]any{
		"succeeded": b.Succeeded(),
		"total":     total,
	})

	if err := s.mergeBatch(ctx, sess, generated, first); err != nil {
		return nil, err
	}
	return b, nil
}

// mergeBatch stores batch results on the latest copy of the session. When
// the session changed while the batch ran, only the generated artifacts are
// merged and the user's step and selection are kept.
func (s *WizardService) mergeBatch(ctx context.Context, loaded *domain.Session, generated map[string]string, first string) error {
	latest, err := s.sessions.Get(ctx, loaded.ID)
	if err != nil {
		return err
	}
	if latest.Artifacts == nil {
		latest.Artifacts = map[string]string{}
	}
	for artifact, content := range generated {
		latest.Artifacts[artifact] = content
	}

	if !latest.UpdatedAt.Equal(loaded.UpdatedAt) {
		logging.FromContext(ctx).LogInfof("wizard.generate_all",
			"session %s changed during generation; merging %d artifacts without moving step", latest.ID, len(generated))
		if latest.Content == "" && first != "" {
			latest.SelectedArtifact, latest.Content = first, generated[first]
		}
		return s.sessions.Update(ctx, latest)
	}

	if first == "" {
		return s.moveTo(ctx, latest, latest.Step)
	}
	latest.SelectedArtifact, latest.Content = first, generated[first]
	return s.moveTo(ctx, latest, domain.StepResults)
}

// Artifact returns generated content by artifact name or by its download
// file name ("communication-plan.md").
func (s *WizardService) Artifact(ctx context.Context, id, name string) (string, string, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	slug := strings.TrimSuffix(name, ".md")
	for _, artifact := range domain.AllArtifacts {
		if artifact != name && bundle.Slug(artifact) != slug {
			continue
		}
		content := sess.Artifacts[artifact]
		if content == "" {
			return "", "", fmt.Errorf("%w: %s has not been generated", domain.ErrNoContent, artifact)
		}
		return artifact, content, nil
	}
	return "", "", fmt.Errorf("%w: %q", domain.ErrUnknownArtifact, name)
}

// Subscribe streams GenerateAll progress for a session.
func (s *WizardService) Subscribe(ctx context.Context, id string) (<-chan domain.ProgressEvent, func() error, error) {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	return s.sessions.Subscribe(ctx, id)
}

func (s *WizardService) History(ctx context.Context, id string) ([]domain.ArtifactRecord, error) {
	return s.history.ListBySession(ctx, id)
}

func (s *WizardService) publish(ctx context.Context, ev domain.ProgressEvent) {
	if err := s.sessions.PublishProgress(ctx, ev); err != nil {
		logging.FromContext(ctx).LogWarnf("wizard.progress", "publish failed: %v", err)
	}
}

// record saves a history row. History is best effort and never fails the step.
func (s *WizardService) record(ctx context.Context, sessionID, artifact string, res *GenerateResult, refinement bool) {
	err := s.history.Save(ctx, &domain.ArtifactRecord{
		SessionID:  sessionID,
		Artifact:   artifact,
		Content:    res.Content,
		Provider:   res.Provider,
		Model:      res.Model,
		Refinement: refinement,
	})
	if err != nil {
		logging.FromContext(ctx).LogWarnf("wizard.history", "failed to record %s: %v", artifact, err)
	}
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}

// IsGenerationError reports whether err came from the provider call.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
