// Command siteassist answers website questions and verifies phone callers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/siteassist/internal/adapters/driven/ai"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/config/file"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/embedding"
	intentfile "github.com/custodia-labs/siteassist/internal/adapters/driven/intents/file"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/metrics/prom"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/sms/logsender"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/siteassist/internal/adapters/driven/totp"
	"github.com/custodia-labs/siteassist/internal/adapters/driving/cli"
	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/core/services"
	"github.com/custodia-labs/siteassist/internal/logger"
	"github.com/custodia-labs/siteassist/internal/normalisers"
	"github.com/custodia-labs/siteassist/internal/postprocessors"
)

// Set by the build.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// stores groups the persistence backends chosen by settings.
type stores struct {
	intents  driven.IntentStore
	docs     driven.DocumentStore
	cache    driven.EmbeddingCacheStore
	sessions driven.SessionStore
	otps     driven.OTPStore
}

func bootstrap(ctx context.Context) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, file.EnvOverlay())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	st, closeStores, err := openStores(ctx, settings.Storage)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStores)

	pipeline, err := postprocessors.DefaultPipeline(settings.Knowledge.ChunkSize)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("building pipeline: %w", err)
	}

	metrics := prom.New()

	var embedder driven.EmbeddingService
	var vectorOpts []services.VectorOption
	if settings.Knowledge.VectorEnabled {
		embedder, err = ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
		if err != nil {
			logger.Warn("%v", err)
			embedder = nil
		}
		if embedder != nil {
			closers = append(closers, func() { embedder.Close() })
			vectorOpts = append(vectorOpts,
				services.WithCorpusEmbedder(embedding.NewRateLimited(embedder, settings.Embedding.Delay)))
		}
	}

	opts := []services.KnowledgeOption{
		services.WithNormalisers(normalisers.Default()),
		services.WithPipeline(pipeline),
		services.WithVectorSearch(services.NewVectorSearch(embedder, st.cache, vectorOpts...)),
		services.WithMetrics(metrics),
	}
	if settings.Storage.IntentsDir != "" {
		opts = append(opts, services.WithIntentSource(intentfile.NewSource(settings.Storage.IntentsDir)))
	}

	knowledge := services.NewKnowledgeService(st.intents, st.docs, settings.Knowledge, opts...)
	if err := knowledge.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("loading knowledge: %w", err)
	}

	sender := logsender.New(0)
	validator := totp.NewValidator(settings.Verification)
	otp := services.NewOTPService(st.otps, sender, settings.Verification, services.WithOTPMetrics(metrics))
	verification := services.NewVerificationService(st.sessions, otp, validator, settings.Verification,
		services.WithVerificationMetrics(metrics))

	return &cli.Services{
		Knowledge:    knowledge,
		Verification: verification,
		Settings:     settingsService,
		TOTP:         validator,
		DecodeDigits: services.DecodeSpokenDigits,
		LastSMS: func(to string) (string, bool) {
			msg, ok := sender.Last(to)
			return msg.Body, ok
		},
		ValidateEmbedding: func(ctx context.Context, s *domain.EmbeddingSettings) error {
			svc, err := ai.CreateAndValidateEmbeddingService(ctx, s)
			if svc != nil {
				svc.Close()
			}
			return err
		},
		WatchIntents: knowledge.WatchIntents,
		Metrics:      metrics.Handler(),
	}, cleanup, nil
}

// openStores opens sqlite, or memory stores when ephemeral, and moves
// sessions and codes to redis when an address is configured.
func openStores(ctx context.Context, cfg domain.StorageSettings) (*stores, func(), error) {
	var st stores
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Ephemeral {
		st = stores{
			intents:  memory.NewIntentStore(),
			docs:     memory.NewDocumentStore(),
			cache:    memory.NewEmbeddingCache(),
			sessions: memory.NewSessionStore(),
			otps:     memory.NewOTPStore(),
		}
	} else {
		db, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				logger.Warn("closing database: %v", err)
			}
		})
		if n, err := db.PurgeExpired(ctx); err != nil {
			logger.Warn("purging expired sessions: %v", err)
		} else if n > 0 {
			logger.Debug("purged %d expired sessions", n)
		}
		st = stores{
			intents:  db.IntentStore(),
			docs:     db.DocumentStore(),
			cache:    db.EmbeddingCache(),
			sessions: db.SessionStore(),
			otps:     db.OTPStore(),
		}
	}

	if cfg.RedisAddr != "" {
		client, err := redis.Dial(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })
		st.sessions = redis.NewSessionStore(client, "")
		st.otps = redis.NewOTPStore(client, "")
	}

	return &st, cleanup, nil
}
