package file

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SITEASSIST"

// envOverrides lists the settings that can come from the environment.
// Unset variables leave the pointer nil. As with envconfig generally, the
// bare name (e.g. OPENAI_API_KEY) is honoured when the prefixed one is absent.
type envOverrides struct {
	MinConfidence       *float64       `envconfig:"MIN_CONFIDENCE"`
	KeywordContainScore *float64       `envconfig:"KEYWORD_CONTAIN_SCORE"`
	NameContainScore    *float64       `envconfig:"NAME_CONTAIN_SCORE"`
	ChunkSize           *int           `envconfig:"CHUNK_SIZE"`
	SearchLimit         *int           `envconfig:"SEARCH_LIMIT"`
	VectorEnabled       *bool          `envconfig:"VECTOR_ENABLED"`
	OTPTTL              *time.Duration `envconfig:"OTP_TTL"`
	OTPMaxAttempts      *int           `envconfig:"OTP_MAX_ATTEMPTS"`
	TOTPMaxAttempts     *int           `envconfig:"TOTP_MAX_ATTEMPTS"`
	SessionTTL          *time.Duration `envconfig:"SESSION_TTL"`
	EmbeddingProvider   *string        `envconfig:"EMBEDDING_PROVIDER"`
	EmbeddingModel      *string        `envconfig:"EMBEDDING_MODEL"`
	EmbeddingBaseURL    *string        `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingDelay      *time.Duration `envconfig:"EMBEDDING_DELAY"`
	OpenAIAPIKey        *string        `envconfig:"OPENAI_API_KEY"`
	DataDir             *string        `envconfig:"DATA_DIR"`
	IntentsDir          *string        `envconfig:"INTENTS_DIR"`
	Ephemeral           *bool          `envconfig:"EPHEMERAL"`
	RedisAddr           *string        `envconfig:"REDIS_ADDR"`
	RedisPassword       *string        `envconfig:"REDIS_PASSWORD"`
	RedisDB             *int           `envconfig:"REDIS_DB"`
}

// EnvOverlay returns an overlay applying SITEASSIST_* variables on top of
// stored settings. Malformed values are reported as domain.ErrInvalidInput.
func EnvOverlay() func(*domain.Settings) error {
	return envOverlay(EnvPrefix)
}

func envOverlay(prefix string) func(*domain.Settings) error {
	return func(s *domain.Settings) error {
		var env envOverrides
		if err := envconfig.Process(prefix, &env); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}

		override(&s.Knowledge.MinConfidence, env.MinConfidence)
		override(&s.Knowledge.KeywordContainScore, env.KeywordContainScore)
		override(&s.Knowledge.NameContainScore, env.NameContainScore)
		override(&s.Knowledge.ChunkSize, env.ChunkSize)
		override(&s.Knowledge.SearchLimit, env.SearchLimit)
		override(&s.Knowledge.VectorEnabled, env.VectorEnabled)

		override(&s.Verification.OTPTTL, env.OTPTTL)
		override(&s.Verification.OTPMaxAttempts, env.OTPMaxAttempts)
		override(&s.Verification.TOTPMaxAttempts, env.TOTPMaxAttempts)
		override(&s.Verification.SessionTTL, env.SessionTTL)

		if env.EmbeddingProvider != nil {
			s.Embedding.Provider = domain.EmbeddingProvider(*env.EmbeddingProvider)
		}
		override(&s.Embedding.Model, env.EmbeddingModel)
		override(&s.Embedding.BaseURL, env.EmbeddingBaseURL)
		override(&s.Embedding.APIKey, env.OpenAIAPIKey)
		override(&s.Embedding.Delay, env.EmbeddingDelay)

		override(&s.Storage.DataDir, env.DataDir)
		override(&s.Storage.IntentsDir, env.IntentsDir)
		override(&s.Storage.Ephemeral, env.Ephemeral)
		override(&s.Storage.RedisAddr, env.RedisAddr)
		override(&s.Storage.RedisPassword, env.RedisPassword)
		override(&s.Storage.RedisDB, env.RedisDB)
		return nil
	}
}

// override replaces *dst when the variable was set.
func override[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
