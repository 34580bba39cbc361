// Package llm calls OpenAI-compatible chat-completion providers (OpenAI and
// Mistral) with bounded retries and per-provider rate limiting.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

const refinePrefix = "Please refine the above content based on this feedback: "

type Config struct {
	OpenAIBaseURL  string
	MistralBaseURL string
	MaxAttempts    int
	BackoffBase    time.Duration
	Timeout        time.Duration
	RatePerSecond  float64
	HTTPClient     *http.Client
}

// Request is one chat completion. CurrentContent and Feedback together turn
// the call into a refinement of previously generated content.
type Request struct {
	Provider       domain.Provider
	APIKey         string
	Model          string
	Temperature    float64
	MaxTokens      int64
	SystemPrompt   string
	UserPrompt     string
	CurrentContent string
	Feedback       string
}

func (r Request) IsRefinement() bool {
	return strings.TrimSpace(r.Feedback) != "" && strings.TrimSpace(r.CurrentContent) != ""
}

// Completer is implemented by Client and by test doubles.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Client struct {
	cfg      Config
	limiters map[domain.Provider]*rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		if b := int(cfg.RatePerSecond); b > 1 {
			burst = b
		}
	}
	return &Client{
		cfg: cfg,
		limiters: map[domain.Provider]*rate.Limiter{
			domain.ProviderOpenAI:  rate.NewLimiter(limit, burst),
			domain.ProviderMistral: rate.NewLimiter(limit, burst),
		},
	}
}

func (c *Client) baseURL(p domain.Provider) (string, error) {
	var u string
	switch p {
	case domain.ProviderOpenAI:
		u = c.cfg.OpenAIBaseURL
	case domain.ProviderMistral:
		u = c.cfg.MistralBaseURL
	default:
		return "", fmt.Errorf("unsupported API provider: %s", p)
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u, nil
}

// Complete sends req and returns the first choice's content. Transient
// failures are retried up to MaxAttempts with exponential waits; auth and
// bad-request failures return immediately.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	log := logging.FromContext(ctx)
	provider := req.Provider.DisplayName()

	if strings.TrimSpace(req.APIKey) == "" {
		return "", fmt.Errorf("API key is required for %s API calls.", provider)
	}
	base, err := c.baseURL(req.Provider)
	if err != nil {
		return "", err
	}
	model := req.Model
	if model == "" {
		if model, err = DefaultModel(req.Provider); err != nil {
			return "", err
		}
	}

	if err := c.limiters[req.Provider].Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	client := openai.NewClient(
		option.WithAPIKey(req.APIKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
		option.WithHTTPClient(c.cfg.HTTPClient),
	)
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    buildMessages(req),
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(req.MaxTokens),
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.cfg.BackoffBase << uint(c.cfg.MaxAttempts)
	b.Reset()

	attempts := 0
	start := time.Now()
	content, err := backoff.Retry(ctx, func() (string, error) {
		attempts++
		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			apiErr := classify(provider, err)
			if !apiErr.Retryable() {
				return "", backoff.Permanent(apiErr)
			}
			return "", apiErr
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", &APIError{Type: ErrorUnknown, Message: ErrInvalidResponse.Error(), Err: ErrInvalidResponse}
		}
		return resp.Choices[0].Message.Content, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			recordRetry()
			log.LogWarnf("llm.complete", "%s attempt %d failed, retrying in %s: %v", provider, attempts, wait, err)
		}),
	)
	recordCall(time.Since(start), err)
	if err == nil {
		log.LogInfof("llm.complete", "%s completion with %s succeeded after %d attempt(s)", provider, model, attempts)
		return content, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.Retryable() {
		log.LogErrorf("llm.complete", "%s rejected request (%s): %v", provider, apiErr.Type, err)
		return "", apiErr
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	log.LogErrorf("llm.complete", "%s failed after %d attempts: %v", provider, attempts, err)
	return "", &APIError{
		Type:    TypeOf(err),
		Status:  statusOf(err),
		Message: fmt.Sprintf("Failed to call %s API after %d attempts: %s", provider, attempts, err.Error()),
		Err:     err,
	}
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.SystemPrompt),
		openai.UserMessage(req.UserPrompt),
	}
	if req.IsRefinement() {
		msgs = append(msgs,
			openai.AssistantMessage(req.CurrentContent),
			openai.UserMessage(refinePrefix+req.Feedback),
		)
	}
	return msgs
}
