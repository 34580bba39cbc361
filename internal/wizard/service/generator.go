package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vibeocm/vibeocm-backend/internal/analytics"
	"github.com/vibeocm/vibeocm-backend/internal/llm"
	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/prompts"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

const (
	openAIKeyTip  = " Make sure you're using a valid OpenAI API key from https://platform.openai.com/api-keys"
	mistralKeyTip = " Make sure you're using a valid Mistral API key from https://console.mistral.ai/api-keys/"
)

type GeneratorConfig struct {
	DefaultMistralKey string
	Temperature       float64
	MaxTokens         int64
}

// GenerateRequest describes one artifact generation or, when CurrentContent
// and Feedback are set, one refinement.
type GenerateRequest struct {
	Artifact       string
	Project        domain.ProjectData
	Provider       domain.Provider
	AuthMethod     domain.AuthMethod
	APIKey         string
	Model          string
	CurrentContent string
	Feedback       string
	DistinctID     string
}

func (r GenerateRequest) isRefinement() bool {
	return strings.TrimSpace(r.Feedback) != "" && strings.TrimSpace(r.CurrentContent) != ""
}

type GenerateResult struct {
	Content  string
	Provider domain.Provider
	Model    string
	Mock     bool
}

// GenerationError is the user-facing failure of a generation call.
type GenerationError struct {
	Artifact string
	Message  string
	Cause    error
}

func (e *GenerationError) Error() string { return e.Message }
func (e *GenerationError) Unwrap() error { return e.Cause }

// Generator renders prompts and calls the provider for one artifact.
type Generator struct {
	llm  llm.Completer
	sink analytics.Sink
	cfg  GeneratorConfig
}

func NewGenerator(completer llm.Completer, sink analytics.Sink, cfg GeneratorConfig) *Generator {
	if sink == nil {
		sink = analytics.Noop{}
	}
	return &Generator{llm: completer, sink: sink, cfg: cfg}
}

// Generate produces the Markdown for req.Artifact. Passphrase and trial
// sessions run on the shared Mistral key; trial sessions fall back to a
// canned response when that key is missing or the call fails.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	refining := req.isRefinement()

	provider, apiKey := req.Provider, req.APIKey
	shared := req.AuthMethod.UsesSharedKey()
	if shared {
		provider = domain.ProviderMistral
		apiKey = g.cfg.DefaultMistralKey
	}

	model := req.Model
	if model == "" {
		m, err := llm.DefaultModel(provider)
		if err != nil {
			return nil, g.fail(ctx, req, provider, model, start, err)
		}
		model = m
	}

	userPrompt := prompts.UserPrompt(req.Artifact, req.Project)
	verb := "Generating"
	if refining {
		verb = "Refining"
	}
	log.LogInfof("generator.generate", "%s %s using %s (%s) for project %q, auth=%s shared_key=%t",
		verb, req.Artifact, provider, model, req.Project.Name, req.AuthMethod, shared)

	if shared && strings.TrimSpace(apiKey) == "" {
		if req.AuthMethod == domain.AuthTrial {
			log.LogInfo("generator.generate", "Using mock response generator for trial mode")
			return g.succeed(ctx, req, provider, model, start, llm.MockResponse(userPrompt), true), nil
		}
		return nil, g.fail(ctx, req, provider, model, start, domain.ErrPassphraseUnavailable)
	}

	content, err := g.llm.Complete(ctx, llm.Request{
		Provider:       provider,
		APIKey:         apiKey,
		Model:          model,
		Temperature:    g.cfg.Temperature,
		MaxTokens:      g.cfg.MaxTokens,
		SystemPrompt:   prompts.System(),
		UserPrompt:     userPrompt,
		CurrentContent: req.CurrentContent,
		Feedback:       req.Feedback,
	})
	if err != nil {
		if req.AuthMethod == domain.AuthTrial {
			log.LogWarnf("generator.generate", "Trial mode API call failed, falling back to mock response: %v", err)
			return g.succeed(ctx, req, provider, model, start, llm.MockResponse(userPrompt), true), nil
		}
		return nil, g.fail(ctx, req, provider, model, start, err)
	}
	return g.succeed(ctx, req, provider, model, start, content, false), nil
}

func (g *Generator) succeed(ctx context.Context, req GenerateRequest, provider domain.Provider, model string, start time.Time, content string, mock bool) *GenerateResult {
	latency := time.Since(start)
	logging.FromContext(ctx).LogInfof("generator.generate", "Generated %s in %dms (refinement=%t mock=%t)",
		req.Artifact, latency.Milliseconds(), req.isRefinement(), mock)
	analytics.CaptureLLM(ctx, g.sink, req.DistinctID, g.metrics(req, provider, model, latency, nil))
	return &GenerateResult{Content: content, Provider: provider, Model: model, Mock: mock}
}

func (g *Generator) fail(ctx context.Context, req GenerateRequest, provider domain.Provider, model string, start time.Time, cause error) error {
	latency := time.Since(start)
	logging.FromContext(ctx).LogErrorf("generator.generate", "Failed to generate %s with %s: %v", req.Artifact, provider, cause)
	analytics.CaptureLLM(ctx, g.sink, req.DistinctID, g.metrics(req, provider, model, latency, cause))
	return &GenerationError{
		Artifact: req.Artifact,
		Message:  composeMessage(req.Artifact, req.AuthMethod, provider, cause),
		Cause:    cause,
	}
}

func (g *Generator) metrics(req GenerateRequest, provider domain.Provider, model string, latency time.Duration, err error) analytics.LLMMetrics {
	m := analytics.LLMMetrics{
		Provider:     string(provider),
		AuthMethod:   string(req.AuthMethod),
		Model:        model,
		Latency:      latency,
		Success:      err == nil,
		ArtifactType: req.Artifact,
		IsRefinement: req.isRefinement(),
		IsPassphrase: req.AuthMethod.UsesSharedKey(),
	}
	if err != nil {
		m.ErrorType = string(llm.TypeOf(err))
	}
	return m
}

func composeMessage(artifact string, method domain.AuthMethod, provider domain.Provider, cause error) string {
	msg := "Failed to generate " + artifact + ". " + cause.Error()
	if method.UsesSharedKey() || errors.Is(cause, domain.ErrPassphraseUnavailable) {
		return msg
	}
	switch provider {
	case domain.ProviderMistral:
		msg += mistralKeyTip
	case domain.ProviderOpenAI:
		msg += openAIKeyTip
	}
	return msg
}
