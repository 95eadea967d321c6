package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or the
// driving language model.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API or a compatible gateway.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (LLM only).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns providers that can produce embeddings.
// Anthropic has no embedding endpoint and is excluded.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns providers that can drive the agent loop.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// DefaultEmbeddingModels returns the default embedding model per provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns the default LLM model per provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-sonnet-4-5",
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider != ""
}

// Validate surfaces missing credentials before any network call.
func (e EmbeddingSettings) Validate() error {
	if !e.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrConfiguration, e.Provider)
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %s requires an API key", ErrConfiguration, e.Provider)
	}
	return nil
}

// LLMSettings holds configuration for the driving language model.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Temperature controls decision randomness, 0.0 to 1.0
	// (lower = more deterministic).
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider != ""
}

// Validate surfaces missing credentials before any network call.
func (l LLMSettings) Validate() error {
	if !l.Provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", ErrConfiguration, l.Provider)
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return fmt.Errorf("%w: LLM provider %s requires an API key", ErrConfiguration, l.Provider)
	}
	if l.Temperature < 0 || l.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0.0, 1.0]", ErrConfiguration, l.Temperature)
	}
	return nil
}

// ChunkBoundary selects where chunk cuts may fall.
type ChunkBoundary string

// Available boundary policies.
const (
	// BoundaryFixed cuts at exact character offsets.
	BoundaryFixed ChunkBoundary = "fixed"

	// BoundarySentence snaps cuts to the nearest preceding sentence end.
	BoundarySentence ChunkBoundary = "sentence"

	// BoundaryParagraph snaps cuts to the nearest preceding blank line.
	BoundaryParagraph ChunkBoundary = "paragraph"
)

// IsValid returns true if the boundary policy is recognised.
func (b ChunkBoundary) IsValid() bool {
	switch b {
	case BoundaryFixed, BoundarySentence, BoundaryParagraph:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b ChunkBoundary) String() string {
	return string(b)
}

// ChunkingSettings configures how documents are split for indexing.
// Changing these requires a full reindex of the collection.
type ChunkingSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// Overlap is the shared span between consecutive chunks, in characters.
	Overlap int

	// Boundary is the cut policy.
	Boundary ChunkBoundary
}

// Validate rejects configurations that would not advance through the text.
func (c ChunkingSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrConfiguration, c.Overlap)
	}
	if c.ChunkSize <= c.Overlap {
		return fmt.Errorf("%w: chunk size %d must exceed overlap %d", ErrConfiguration, c.ChunkSize, c.Overlap)
	}
	if !c.Boundary.IsValid() {
		return fmt.Errorf("%w: unknown boundary policy %q", ErrConfiguration, c.Boundary)
	}
	return nil
}

// AskSettings configures the question answering pipeline.
type AskSettings struct {
	// DefaultK is the result count for search-tool retrieval and the
	// fallback path.
	DefaultK int

	// SummaryK is the larger result count used by the summarize tool.
	SummaryK int

	// MaxRounds bounds the agent's tool-call chain.
	MaxRounds int

	// SummaryBudget is the maximum character budget for summarize output.
	SummaryBudget int
}

// Default pipeline settings, matching the upstream chunking parameters.
const (
	DefaultChunkSize     = 500
	DefaultChunkOverlap  = 50
	DefaultK             = 5
	DefaultSummaryK      = 10
	DefaultMaxRounds     = 4
	DefaultSummaryBudget = 4000
)

// DefaultChunkingSettings returns the standard chunking configuration.
func DefaultChunkingSettings() ChunkingSettings {
	return ChunkingSettings{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultChunkOverlap,
		Boundary:  BoundarySentence,
	}
}

// DefaultAskSettings returns the standard ask configuration.
func DefaultAskSettings() AskSettings {
	return AskSettings{
		DefaultK:      DefaultK,
		SummaryK:      DefaultSummaryK,
		MaxRounds:     DefaultMaxRounds,
		SummaryBudget: DefaultSummaryBudget,
	}
}

// DefaultCollection is the collection used when none is named.
const DefaultCollection = "rulebook"

// AppSettings aggregates all application configuration.
type AppSettings struct {
	// Embedding configures the embedding provider.
	Embedding EmbeddingSettings

	// LLM configures the driving language model.
	LLM LLMSettings

	// Chunking configures document splitting.
	Chunking ChunkingSettings

	// Ask configures the question answering pipeline.
	Ask AskSettings

	// Collection is the default collection name.
	Collection string
}

// DefaultAppSettings returns settings for a fresh installation:
// local Ollama for both providers, standard chunking and ask limits.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "nomic-embed-text",
		},
		LLM: LLMSettings{
			Provider:    AIProviderOllama,
			Model:       "llama3.2",
			Temperature: 0,
		},
		Chunking:   DefaultChunkingSettings(),
		Ask:        DefaultAskSettings(),
		Collection: DefaultCollection,
	}
}
