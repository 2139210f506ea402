// Package cli provides the siteassist command line interface.
package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driving"
	"github.com/custodia-labs/siteassist/internal/logger"
)

// annotationNoServices marks commands that run without bootstrapping services.
const annotationNoServices = "siteassist/no-services"

// TOTPTool enrols authenticator secrets and plays the caller's authenticator
// app in the call simulator.
type TOTPTool interface {
	GenerateSecret(account string) (secret, url string, err error)
	Code(secret string, t time.Time) (string, error)
}

// Services holds everything the commands call into.
type Services struct {
	Knowledge    driving.KnowledgeService
	Verification driving.VerificationService
	Settings     driving.SettingsService

	// TOTP is optional; verify totp-secret and the simulator's /enroll need it.
	TOTP TOTPTool

	// DecodeDigits converts spoken or typed digits to a digit string.
	DecodeDigits func(input string) (string, bool)

	// LastSMS returns the body of the last text sent to a number, when the
	// SMS sender keeps an outbox.
	LastSMS func(to string) (string, bool)

	// ValidateEmbedding checks an embedding backend can be reached.
	ValidateEmbedding func(ctx context.Context, settings *domain.EmbeddingSettings) error

	// WatchIntents reloads intents when the intent source changes. It
	// blocks until ctx is done.
	WatchIntents func(ctx context.Context) error

	// Metrics is served at /metrics by mcp serve --http.
	Metrics http.Handler
}

// Bootstrap builds services for a command. The returned cleanup func is
// called once the command finishes.
type Bootstrap func(ctx context.Context) (*Services, func(), error)

var (
	version = "dev"
	verbose bool

	bootstrap Bootstrap
	cleanup   func()

	knowledgeService    driving.KnowledgeService
	verificationService driving.VerificationService
	settingsService     driving.SettingsService
	totpTool            TOTPTool
	decodeDigits        func(input string) (string, bool)
	lastSMS             func(to string) (string, bool)
	validateEmbedding   func(ctx context.Context, settings *domain.EmbeddingSettings) error
	watchIntents        func(ctx context.Context) error
	metricsHandler      http.Handler
)

var rootCmd = &cobra.Command{
	Use:   "siteassist",
	Short: "Website and phone assistant",
	Long: `siteassist answers visitor questions from intents and documents and
walks phone callers through SMS and authenticator verification.

Run 'siteassist chat' to talk to the assistant, or 'siteassist mcp serve'
to expose it to an AI agent.`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[annotationNoServices] != "" {
		return nil
	}
	services, done, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

// SetServices injects the services used by commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	knowledgeService = s.Knowledge
	verificationService = s.Verification
	settingsService = s.Settings
	totpTool = s.TOTP
	decodeDigits = s.DecodeDigits
	lastSMS = s.LastSMS
	validateEmbedding = s.ValidateEmbedding
	watchIntents = s.WatchIntents
	metricsHandler = s.Metrics
}

// SetBootstrap registers the function that builds services before a
// command runs. Commands that need no services skip it.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

var (
	errKnowledgeNotConfigured    = errors.New("knowledge service not configured")
	errVerificationNotConfigured = errors.New("verification service not configured")
	errSettingsNotConfigured     = errors.New("settings service not configured")
)

// startIntentWatch runs the intent watcher in the background for
// long-running commands. The returned func stops it.
func startIntentWatch(ctx context.Context) func() {
	if watchIntents == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watchIntents(ctx); err != nil {
			logger.Warn("intent watcher stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
