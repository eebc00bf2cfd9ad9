package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sailnathona/ImpactHub/pkg/config"
)

// Provider is a synchronous text-generation backend. Complete blocks until
// the provider returns the full response text.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Config struct {
	Provider    string
	Model       string
	APIKey      string
	APIURL      string
	MaxTokens   int
	Temperature float64
}

func LoadConfig() Config {
	return Config{
		Provider:    config.GetEnv("LLM_PROVIDER", "openai"),
		Model:       config.GetEnv("LLM_MODEL", "gpt-4"),
		APIKey:      config.GetEnv("LLM_API_KEY", ""),
		APIURL:      config.GetEnv("LLM_API_URL", ""),
		MaxTokens:   config.GetEnvInt("LLM_MAX_TOKENS", 0),
		Temperature: 0.7,
	}
}

func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
