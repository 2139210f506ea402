package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyMinConfidence       = "knowledge.min_confidence"
	keyKeywordContainScore = "knowledge.keyword_contain_score"
	keyNameContainScore    = "knowledge.name_contain_score"
	keyMinQueryLength      = "knowledge.min_query_length"
	keyChunkSize           = "knowledge.chunk_size"
	keySearchLimit         = "knowledge.search_limit"
	keyVectorEnabled       = "knowledge.vector_enabled"
	keyOTPTTL              = "verification.otp_ttl"
	keyOTPMaxAttempts      = "verification.otp_max_attempts"
	keyTOTPMaxAttempts     = "verification.totp_max_attempts"
	keyTOTPIssuer          = "verification.totp_issuer"
	keySessionTTL          = "verification.session_ttl"
	keyEmbedProvider       = "embedding.provider"
	keyEmbedModel          = "embedding.model"
	keyEmbedBaseURL        = "embedding.base_url"
	keyEmbedAPIKey         = "embedding.api_key"
	keyEmbedDelay          = "embedding.delay"
	keyDataDir             = "storage.data_dir"
	keyIntentsDir          = "storage.intents_dir"
	keyRedisAddr           = "storage.redis_addr"
	keyRedisDB             = "storage.redis_db"
)

type settingKind int

const (
	kindFloat settingKind = iota
	kindInt
	kindBool
	kindString
	kindDuration
	kindProvider
)

var settingKinds = map[string]settingKind{
	keyMinConfidence:       kindFloat,
	keyKeywordContainScore: kindFloat,
	keyNameContainScore:    kindFloat,
	keyMinQueryLength:      kindInt,
	keyChunkSize:           kindInt,
	keySearchLimit:         kindInt,
	keyVectorEnabled:       kindBool,
	keyOTPTTL:              kindDuration,
	keyOTPMaxAttempts:      kindInt,
	keyTOTPMaxAttempts:     kindInt,
	keyTOTPIssuer:          kindString,
	keySessionTTL:          kindDuration,
	keyEmbedProvider:       kindProvider,
	keyEmbedModel:          kindString,
	keyEmbedBaseURL:        kindString,
	keyEmbedAPIKey:         kindString,
	keyEmbedDelay:          kindDuration,
	keyDataDir:             kindString,
	keyIntentsDir:          kindString,
	keyRedisAddr:           kindString,
	keyRedisDB:             kindInt,
}

// SettingsOverlay applies overrides, such as environment variables, on top
// of stored settings.
type SettingsOverlay func(*domain.Settings) error

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	overlay     SettingsOverlay
}

// NewSettingsService creates a new settings service. overlay may be nil.
func NewSettingsService(configStore driven.ConfigStore, overlay SettingsOverlay) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		overlay:     overlay,
	}
}

// Get retrieves current application settings: defaults, then stored values,
// then the overlay.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	k := &settings.Knowledge
	k.MinConfidence = s.getFloat(keyMinConfidence, k.MinConfidence)
	k.KeywordContainScore = s.getFloat(keyKeywordContainScore, k.KeywordContainScore)
	k.NameContainScore = s.getFloat(keyNameContainScore, k.NameContainScore)
	k.MinQueryLength = s.getInt(keyMinQueryLength, k.MinQueryLength)
	k.ChunkSize = s.getInt(keyChunkSize, k.ChunkSize)
	k.SearchLimit = s.getInt(keySearchLimit, k.SearchLimit)
	k.VectorEnabled = s.getBool(keyVectorEnabled, k.VectorEnabled)

	v := &settings.Verification
	v.OTPTTL = s.getDuration(keyOTPTTL, v.OTPTTL)
	v.OTPMaxAttempts = s.getInt(keyOTPMaxAttempts, v.OTPMaxAttempts)
	v.TOTPMaxAttempts = s.getInt(keyTOTPMaxAttempts, v.TOTPMaxAttempts)
	v.TOTPIssuer = s.getString(keyTOTPIssuer, v.TOTPIssuer)
	v.SessionTTL = s.getDuration(keySessionTTL, v.SessionTTL)

	e := &settings.Embedding
	e.Provider = domain.EmbeddingProvider(s.getString(keyEmbedProvider, string(e.Provider)))
	e.Model = s.getString(keyEmbedModel, e.Model)
	e.BaseURL = s.configStore.GetString(keyEmbedBaseURL)
	e.APIKey = s.configStore.GetString(keyEmbedAPIKey)
	e.Delay = s.getDuration(keyEmbedDelay, e.Delay)

	st := &settings.Storage
	st.DataDir = s.configStore.GetString(keyDataDir)
	st.IntentsDir = s.configStore.GetString(keyIntentsDir)
	st.RedisAddr = s.configStore.GetString(keyRedisAddr)
	st.RedisDB = s.getInt(keyRedisDB, st.RedisDB)

	if s.overlay != nil {
		if err := s.overlay(&settings); err != nil {
			return nil, fmt.Errorf("applying overrides: %w", err)
		}
	}

	if err := settings.Knowledge.Validate(); err != nil {
		return nil, err
	}
	if !settings.Embedding.Provider.IsValid() {
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Embedding.Provider)
	}

	return &settings, nil
}

// Set validates value for key and persists it with its natural type.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	var err error
	switch kind {
	case kindFloat:
		var f float64
		f, err = strconv.ParseFloat(value, 64)
		if err == nil && (f < 0 || f > 1) {
			err = fmt.Errorf("must be within [0,1]")
		}
		parsed = f
	case kindInt:
		var n int
		n, err = strconv.Atoi(value)
		if err == nil && n < 0 {
			err = fmt.Errorf("must not be negative")
		}
		parsed = n
	case kindBool:
		parsed, err = strconv.ParseBool(value)
	case kindDuration:
		var d time.Duration
		d, err = time.ParseDuration(value)
		parsed = d.String()
	case kindProvider:
		if !domain.EmbeddingProvider(value).IsValid() {
			err = fmt.Errorf("expected none, ollama or openai")
		}
		parsed = value
	default:
		parsed = value
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every settable key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultVal
	}
	return d
}
