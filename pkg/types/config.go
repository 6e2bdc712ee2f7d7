package types

// Provider identifies the research agent backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Defaults applied by DefaultConfig and the command layer.
const (
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultMaxTurns       = 5
	DefaultMaxTokens      = 4096
)

// Config holds the settings for one research session with the external agent.
// It is assembled once in the command layer from flags, config file,
// environment, and the secrets directory, then passed explicitly to request
// construction; nothing below the command layer reads process state.
type Config struct {
	// Provider selects the agent backend: anthropic or gemini.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTurns bounds the number of conversational turns in one session.
	// Exhausting the budget without a final answer is not an error; the
	// extractor falls back to the latest progress payload.
	MaxTurns int `json:"max_turns" yaml:"max_turns"`

	// MaxTokens caps the tokens generated per turn.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// DefaultConfig returns a Config with the standard defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderAnthropic,
		Model:     DefaultAnthropicModel,
		MaxTurns:  DefaultMaxTurns,
		MaxTokens: DefaultMaxTokens,
	}
}

// DefaultModel returns the standard model identifier for a provider.
func DefaultModel(p Provider) string {
	if p == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultAnthropicModel
}
