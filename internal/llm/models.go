package llm

import (
	"fmt"

	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

const (
	DefaultOpenAIModel  = "gpt-4"
	DefaultMistralModel = "mistral-small-latest"
)

func DefaultModel(p domain.Provider) (string, error) {
	switch p {
	case domain.ProviderOpenAI:
		return DefaultOpenAIModel, nil
	case domain.ProviderMistral:
		return DefaultMistralModel, nil
	default:
		return "", fmt.Errorf("unsupported API provider: %s", p)
	}
}
