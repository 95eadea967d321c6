package services

import (
	"fmt"
	"os"

	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
	"github.com/runehall/lorebook/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMTemperature = "llm.temperature"
	keyChunkSize      = "chunking.size"
	keyChunkOverlap   = "chunking.overlap"
	keyChunkBoundary  = "chunking.boundary"
	keyAskK           = "ask.k"
	keyAskSummaryK    = "ask.summary_k"
	keyAskMaxRounds   = "ask.max_rounds"
	keyAskBudget      = "ask.summary_budget"
	keyCollection     = "collection"
)

// Environment fallbacks for API keys, loaded before config lookups so
// a .env file can supply credentials without writing them to disk.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.configStore.GetFloat(keyLLMTemperature),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:   s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
			Boundary:  s.getBoundary(keyChunkBoundary, defaults.Chunking.Boundary),
		},
		Ask: domain.AskSettings{
			DefaultK:      s.getInt(keyAskK, defaults.Ask.DefaultK),
			SummaryK:      s.getInt(keyAskSummaryK, defaults.Ask.SummaryK),
			MaxRounds:     s.getInt(keyAskMaxRounds, defaults.Ask.MaxRounds),
			SummaryBudget: s.getInt(keyAskBudget, defaults.Ask.SummaryBudget),
		},
		Collection: s.getString(keyCollection, defaults.Collection),
	}

	// Environment variables fill in missing API keys
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = envKeyFor(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envKeyFor(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	pairs := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyChunkBoundary, settings.Chunking.Boundary.String()},
		{keyAskK, settings.Ask.DefaultK},
		{keyAskSummaryK, settings.Ask.SummaryK},
		{keyAskMaxRounds, settings.Ask.MaxRounds},
		{keyAskBudget, settings.Ask.SummaryBudget},
		{keyCollection, settings.Collection},
	}

	for _, p := range pairs {
		if err := s.configStore.Set(p.key, p.value); err != nil {
			return fmt.Errorf("save %s: %w", p.key, err)
		}
	}

	// API keys are only written when explicitly set, so environment
	// supplied keys never end up in the config file.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != envKeyFor(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != envKeyFor(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider %q", domain.ErrConfiguration, provider)
	}
	if provider == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: provider %s does not offer embeddings", domain.ErrConfiguration, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && envKeyFor(provider) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	}
	settings.Embedding.BaseURL = defaultBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrConfiguration, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && envKeyFor(provider) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	}
	settings.LLM.BaseURL = defaultBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Embedding.Validate(); err != nil {
		return err
	}
	if err := settings.LLM.Validate(); err != nil {
		return err
	}
	if err := settings.Chunking.Validate(); err != nil {
		return err
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero treats an explicit zero as a value, not an absence.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBoundary(key string, defaultVal domain.ChunkBoundary) domain.ChunkBoundary {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	boundary := domain.ChunkBoundary(val)
	if !boundary.IsValid() {
		return defaultVal
	}
	return boundary
}

// envKeyFor reads the conventional environment variable for a provider.
func envKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv(envOpenAIKey)
	case domain.AIProviderAnthropic:
		return os.Getenv(envAnthropicKey)
	default:
		return ""
	}
}

// defaultBaseURL fills in the local endpoint for Ollama and clears
// custom endpoints when moving to a cloud provider.
func defaultBaseURL(provider domain.AIProvider, current string) string {
	if provider.IsLocal() {
		if current == "" {
			return "http://localhost:11434"
		}
		return current
	}
	return ""
}
