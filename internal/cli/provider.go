package cli

import (
	"errors"
	"fmt"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// API key environment variables.
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
)

// Provider represents a validated generation provider.
// Zero value means "not chosen"; use OrDefault before use.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed provider constants.
var (
	AnthropicProvider = Provider{name: ProviderAnthropic}
	OpenAIProvider    = Provider{name: ProviderOpenAI}
)

// ParseProvider validates a provider name. Empty input yields the zero Provider.
func ParseProvider(s string) (Provider, error) {
	switch s {
	case "":
		return Provider{}, nil
	case ProviderAnthropic, ProviderOpenAI:
		return Provider{name: s}, nil
	}
	return Provider{}, fmt.Errorf("unknown provider %q (use 'anthropic' or 'openai'): %w", s, ErrInvalidProvider)
}

// String returns the provider name, or "" for the zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero returns true if no provider was chosen.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// OrDefault returns the provider, or AnthropicProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return AnthropicProvider
	}
	return p
}

// APIKeyEnv names the environment variable holding the provider's key.
func (p Provider) APIKeyEnv() string {
	if p.OrDefault().name == ProviderOpenAI {
		return EnvOpenAIAPIKey
	}
	return EnvAnthropicAPIKey
}
