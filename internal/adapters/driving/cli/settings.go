package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change thresholds, verification limits, the embedding backend
and storage locations.

Values set here are written to ~/.siteassist/config.toml. SITEASSIST_*
environment variables override them at runtime.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Long:  `Set a single setting. Run 'siteassist settings keys' for the list of keys.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long:  `Interactively choose the embedding backend used for vector search.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsEmbedding,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	k := settings.Knowledge
	cmd.Println("[Knowledge]")
	cmd.Printf("  Min confidence: %.2f\n", k.MinConfidence)
	cmd.Printf("  Keyword contain score: %.2f\n", k.KeywordContainScore)
	cmd.Printf("  Name contain score: %.2f\n", k.NameContainScore)
	cmd.Printf("  Min query length: %d\n", k.MinQueryLength)
	cmd.Printf("  Chunk size: %d\n", k.ChunkSize)
	cmd.Printf("  Search limit: %d\n", k.SearchLimit)
	cmd.Printf("  Vector search: %t\n", k.VectorEnabled)
	cmd.Println()

	v := settings.Verification
	cmd.Println("[Verification]")
	cmd.Printf("  OTP TTL: %s\n", v.OTPTTL)
	cmd.Printf("  OTP max attempts: %d\n", v.OTPMaxAttempts)
	cmd.Printf("  TOTP max attempts: %d\n", v.TOTPMaxAttempts)
	cmd.Printf("  TOTP issuer: %s\n", v.TOTPIssuer)
	cmd.Printf("  Session TTL: %s\n", v.SessionTTL)
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", e.Provider)
	if e.Model != "" {
		cmd.Printf("  Model: %s\n", e.Model)
	}
	if e.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", e.BaseURL)
	}
	if e.Provider == domain.EmbeddingProviderOpenAI {
		if e.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(e.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !e.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	st := settings.Storage
	cmd.Println("[Storage]")
	switch {
	case st.Ephemeral:
		cmd.Println("  Records: in memory")
	case st.DataDir != "":
		cmd.Printf("  Data dir: %s\n", st.DataDir)
	default:
		cmd.Println("  Data dir: (default)")
	}
	if st.IntentsDir != "" {
		cmd.Printf("  Intents dir: %s\n", st.IntentsDir)
	}
	if st.RedisAddr != "" {
		cmd.Printf("  Sessions: redis %s db %d\n", st.RedisAddr, st.RedisDB)
	}
	cmd.Println()

	if err := settings.Knowledge.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

var embeddingProviders = []struct {
	provider     domain.EmbeddingProvider
	description  string
	defaultModel string
}{
	{domain.EmbeddingProviderNone, "None (keyword matching only)", ""},
	{domain.EmbeddingProviderOllama, "Ollama (local)", "nomic-embed-text"},
	{domain.EmbeddingProviderOpenAI, "OpenAI", "text-embedding-3-small"},
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	for i, p := range embeddingProviders {
		cmd.Printf("  %d. %s\n", i+1, p.description)
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(embeddingProviders), 1)
	selected := embeddingProviders[idx-1]

	if err := settingsService.Set("embedding.provider", string(selected.provider)); err != nil {
		return fmt.Errorf("failed to set provider: %w", err)
	}
	if selected.provider == domain.EmbeddingProviderNone {
		cmd.Println("Vector search disabled.")
		return nil
	}

	cmd.Printf("Enter model name [%s]: ", selected.defaultModel)
	model := readLine(reader)
	if model == "" {
		model = selected.defaultModel
	}
	if err := settingsService.Set("embedding.model", model); err != nil {
		return fmt.Errorf("failed to set model: %w", err)
	}

	if selected.provider == domain.EmbeddingProviderOpenAI {
		cmd.Print("Enter API key: ")
		apiKey := readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
		if err := settingsService.Set("embedding.api_key", apiKey); err != nil {
			return fmt.Errorf("failed to set API key: %w", err)
		}
	}

	if validateEmbedding != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Print("Validating configuration... ")
		if err := validateEmbedding(cmd.Context(), &settings.Embedding); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", selected.description, model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is the terminal, and falls back
// to a plain line otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
