// Package analytics captures product events. With no PostHog key configured
// every capture is dropped.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/posthog/posthog-go"

	"github.com/vibeocm/vibeocm-backend/internal/logging"
)

const (
	EventLLMRequest          = "llm_request"
	EventNavigateStep        = "navigate_step"
	EventGenerateAnother     = "generate_another"
	EventBundleGenerated     = "bundle_generated"
	EventRefineArtifact      = "refine_artifact"
	EventAPIKeySubmitted     = "api_key_submitted"
	EventPassphraseSubmitted = "passphrase_submitted"
	EventTrialSubmitted      = "trial_submitted"
	EventAuthenticationError = "authentication_error"
	EventLazyGeneration      = "lazy_generation"

	flushInterval = 5 * time.Second
	batchSize     = 50
)

// Sink receives analytics events. Implementations must not block the caller
// on network I/O.
type Sink interface {
	Capture(ctx context.Context, distinctID, event string, props map[string]any)
	Close()
}

type Noop struct{}

func (Noop) Capture(context.Context, string, string, map[string]any) {}
func (Noop) Close()                                                  {}

// PostHog queues events on the posthog-go client, which batches them and
// flushes in the background and on Close.
type PostHog struct {
	client posthog.Client
	now    func() time.Time
}

// NewPostHog builds a PostHog sink. interval <= 0 uses the default flush interval.
func NewPostHog(apiKey, host string, interval time.Duration) (*PostHog, error) {
	if interval <= 0 {
		interval = flushInterval
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{
		Endpoint:  strings.TrimRight(host, "/"),
		Interval:  interval,
		BatchSize: batchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("posthog client: %w", err)
	}
	return &PostHog{client: client, now: time.Now}, nil
}

// New picks PostHog when apiKey is set and Noop otherwise. A client that
// cannot be built is logged and replaced by Noop.
func New(apiKey, host string) Sink {
	if strings.TrimSpace(apiKey) == "" {
		return Noop{}
	}
	ph, err := NewPostHog(apiKey, host, 0)
	if err != nil {
		logging.L().Sugar().Warnf("analytics disabled: %v", err)
		return Noop{}
	}
	return ph
}

func (p *PostHog) Capture(ctx context.Context, distinctID, event string, props map[string]any) {
	properties := posthog.NewProperties()
	for k, v := range props {
		properties.Set(k, v)
	}
	err := p.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
		Timestamp:  p.now().UTC(),
	})
	if err != nil {
		logging.FromContext(ctx).LogWarnf("analytics.capture", "event %s dropped: %v", event, err)
	}
}

// Close flushes queued events.
func (p *PostHog) Close() {
	if err := p.client.Close(); err != nil {
		logging.L().Sugar().Warnf("analytics close: %v", err)
	}
}

// LLMMetrics describes one generation or refinement call.
type LLMMetrics struct {
	Provider     string
	AuthMethod   string
	Model        string
	Latency      time.Duration
	Success      bool
	ErrorType    string
	ArtifactType string
	IsRefinement bool
	IsPassphrase bool
}

func (m LLMMetrics) Properties() map[string]any {
	props := map[string]any{
		"provider":     m.Provider,
		"authMethod":   m.AuthMethod,
		"model":        m.Model,
		"latencyMs":    m.Latency.Milliseconds(),
		"success":      m.Success,
		"artifactType": m.ArtifactType,
		"isRefinement": m.IsRefinement,
		"isPassphrase": m.IsPassphrase,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}
	if m.ErrorType != "" {
		props["errorType"] = m.ErrorType
	}
	return props
}

// CaptureLLM records an llm_request event.
func CaptureLLM(ctx context.Context, sink Sink, distinctID string, m LLMMetrics) {
	sink.Capture(ctx, distinctID, EventLLMRequest, m.Properties())
}
