package domain

import (
	"fmt"
	"time"
)

// Knowledge defaults. The thresholds are empirical; keep them unless a
// product decision says otherwise.
const (
	DefaultMinConfidence       = 0.25
	DefaultKeywordContainScore = 0.9
	DefaultNameContainScore    = 0.85
	DefaultMinQueryLength      = 2
	DefaultChunkSize           = 500
	DefaultSearchLimit         = 5
)

// Verification defaults.
const (
	DefaultOTPLength       = 6
	DefaultOTPTTL          = 5 * time.Minute
	DefaultOTPMaxAttempts  = 3
	DefaultTOTPPeriod      = 30 * time.Second
	DefaultTOTPSkew        = 1
	DefaultTOTPMaxAttempts = 3
	DefaultSessionTTL      = 30 * time.Minute
	DefaultTOTPIssuer      = "siteassist"
)

// Embedding defaults.
const (
	DefaultEmbeddingDelay = 200 * time.Millisecond
)

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	EmbeddingProviderNone   EmbeddingProvider = "none"
	EmbeddingProviderOllama EmbeddingProvider = "ollama"
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderNone, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// KnowledgeSettings tunes the knowledge resolver.
type KnowledgeSettings struct {
	// MinConfidence is the lowest score accepted as an answer.
	MinConfidence float64

	// KeywordContainScore is assigned when query and keyword contain each other.
	KeywordContainScore float64

	// NameContainScore is assigned when the query contains an intent name.
	NameContainScore float64

	// MinQueryLength is the shortest query that is scored at all.
	MinQueryLength int

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// SearchLimit is the default number of search hits.
	SearchLimit int

	// VectorEnabled allows vector search when an embedding backend exists.
	VectorEnabled bool
}

// Validate checks the settings are usable.
func (k KnowledgeSettings) Validate() error {
	for name, v := range map[string]float64{
		"min_confidence":        k.MinConfidence,
		"keyword_contain_score": k.KeywordContainScore,
		"name_contain_score":    k.NameContainScore,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidInput, name, v)
		}
	}
	if k.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidInput)
	}
	return nil
}

// VerificationSettings tunes OTP, TOTP and session handling.
type VerificationSettings struct {
	OTPLength       int
	OTPTTL          time.Duration
	OTPMaxAttempts  int
	TOTPPeriod      time.Duration
	TOTPSkew        uint
	TOTPMaxAttempts int
	TOTPIssuer      string
	SessionTTL      time.Duration
}

// EmbeddingSettings selects and configures the embedding backend.
type EmbeddingSettings struct {
	Provider EmbeddingProvider
	Model    string
	BaseURL  string
	APIKey   string

	// Delay is the pause between successive embedding calls.
	Delay time.Duration
}

// IsConfigured reports whether an embedding backend is selected and has
// what it needs to start. OpenAI requires an API key.
func (e EmbeddingSettings) IsConfigured() bool {
	switch e.Provider {
	case EmbeddingProviderOllama:
		return true
	case EmbeddingProviderOpenAI:
		return e.APIKey != ""
	default:
		return false
	}
}

// StorageSettings selects persistence backends.
type StorageSettings struct {
	// DataDir holds the sqlite database. Empty means ~/.siteassist/data.
	DataDir string

	// Ephemeral keeps everything in memory.
	Ephemeral bool

	// IntentsDir is scanned for intent collections.
	IntentsDir string

	// RedisAddr, when set, moves sessions and OTPs to redis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Settings is the complete runtime configuration.
type Settings struct {
	Knowledge    KnowledgeSettings
	Verification VerificationSettings
	Embedding    EmbeddingSettings
	Storage      StorageSettings
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		Knowledge: KnowledgeSettings{
			MinConfidence:       DefaultMinConfidence,
			KeywordContainScore: DefaultKeywordContainScore,
			NameContainScore:    DefaultNameContainScore,
			MinQueryLength:      DefaultMinQueryLength,
			ChunkSize:           DefaultChunkSize,
			SearchLimit:         DefaultSearchLimit,
			VectorEnabled:       true,
		},
		Verification: VerificationSettings{
			OTPLength:       DefaultOTPLength,
			OTPTTL:          DefaultOTPTTL,
			OTPMaxAttempts:  DefaultOTPMaxAttempts,
			TOTPPeriod:      DefaultTOTPPeriod,
			TOTPSkew:        DefaultTOTPSkew,
			TOTPMaxAttempts: DefaultTOTPMaxAttempts,
			TOTPIssuer:      DefaultTOTPIssuer,
			SessionTTL:      DefaultSessionTTL,
		},
		Embedding: EmbeddingSettings{
			Provider: EmbeddingProviderNone,
			Delay:    DefaultEmbeddingDelay,
		},
	}
}
