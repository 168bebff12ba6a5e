// Package llm provides the language model backends behind the semantic oracle.
package llm

import (
	"context"
	"fmt"

	"github.com/fmuoria/resume-tailor/internal/config"
)

// Generator produces a text completion for a prompt
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}

// New builds the generator selected by cfg. It returns nil when no provider
// is configured.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.OracleProvider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderVertexAI:
		client, err := NewVertexAIClient(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, cfg.VertexModel, cfg.GoogleCredentialsPath)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.OracleProvider)
	}
}
