package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/UH-CI/course-text-extraction/config"
	"github.com/UH-CI/course-text-extraction/internal/extractor"
	"github.com/UH-CI/course-text-extraction/internal/llm"
	"github.com/UH-CI/course-text-extraction/internal/render"
	"github.com/UH-CI/course-text-extraction/internal/source"
	"github.com/UH-CI/course-text-extraction/logger"
	"github.com/UH-CI/course-text-extraction/pkg/retry"
	"github.com/UH-CI/course-text-extraction/services/cache"
	"github.com/UH-CI/course-text-extraction/services/checkpoint"
	"github.com/UH-CI/course-text-extraction/services/publisher"
	"github.com/UH-CI/course-text-extraction/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration; configuration errors fail fast
	// before any work begins
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("strategy", cfg.Strategy).
		Int("workers", cfg.WorkerCount).
		Msg("Starting course extraction")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for cooperative shutdown: in-flight units
	// finish and a final checkpoint is saved
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Initialize services
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
	} else {
		cacheSvc = cache.NewMemoryService()
	}

	var pub publisher.Publisher
	if cfg.PublishEnabled {
		pub = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		defer pub.Close()
		logger.Info("Publishing records to Redis at %s (stream: %s)", cfg.RedisAddr, cfg.RedisStream)
	}

	sources := source.CreateSources(cfg)
	if len(sources) == 0 {
		log.Fatal().Msg("No sources were configured")
	}

	policy := retry.NewPolicy(cfg.RetryAttempts, retry.FixedBackoff(cfg.RetryBackoff))

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		runSource(ctx, cfg, src, cacheSvc, pub, policy, len(sources) > 1)
	}

	log.Info().Msg("Shutting down gracefully...")
}

// runSource runs the full extraction pipeline for one catalog source.
func runSource(
	ctx context.Context,
	cfg *config.Config,
	src *source.Source,
	cacheSvc cache.CacheService,
	pub publisher.Publisher,
	policy retry.Policy,
	perSourcePath bool,
) {
	log := logger.ForSource(src.Name)
	start := time.Now()

	ext, err := buildExtractor(cfg, src, policy)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build extractor")
		return
	}

	factory := rendererFactory(cfg, src, cacheSvc)

	store := checkpoint.NewStore(checkpointPath(cfg, src, perSourcePath))
	pipeline := worker.NewPipeline(src, ext, factory, store, pub, logger.NewAdapter(src.Name), worker.Options{
		Workers:            cfg.WorkerCount,
		CheckpointInterval: cfg.CheckpointInterval,
		RequestDelay:       cfg.RequestDelay,
		ContextUnits:       cfg.ContextUnits,
		ContextRecords:     cfg.ContextRecords,
		OverlapCount:       cfg.OverlapCount,
		Model:              cfg.LLMModel,
	})

	// Resume from an interrupted run when a prior artifact says in_progress
	if artifact, err := store.Load(); err != nil {
		log.Warn().Err(err).Msg("Could not read prior checkpoint, starting fresh")
	} else if artifact != nil && artifact.Metadata.Status == checkpoint.StatusInProgress {
		pipeline.Resume(artifact)
	}

	if err := pipeline.Run(ctx); err != nil {
		log.Warn().Err(err).Msg("Run stopped")
		return
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("records", len(pipeline.Results())).
		Msg("Source finished")
}

// buildExtractor selects the extraction strategy for a source.
func buildExtractor(cfg *config.Config, src *source.Source, policy retry.Policy) (extractor.Extractor, error) {
	switch cfg.Strategy {
	case config.StrategyAI:
		client := llm.NewHTTPClient(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel,
			llm.WithTimeout(cfg.RequestTimeout),
			llm.WithTemperature(cfg.LLMTemperature),
		)
		return extractor.NewAI(extractor.AIConfig{
			Source:        src.Name,
			InstitutionID: src.InstitutionID,
			Repair:        true,
		}, client, policy), nil
	default:
		return extractor.NewDeterministic(extractor.DeterministicConfig{
			Source:        src.Name,
			InstitutionID: src.InstitutionID,
			Selectors:     src.Selectors,
		})
	}
}

// rendererFactory builds one renderer session per worker.
func rendererFactory(cfg *config.Config, src *source.Source, cacheSvc cache.CacheService) render.Factory {
	if src.UseChrome || cfg.Renderer == config.RendererChrome {
		return func() (render.Renderer, error) {
			return render.NewChromeRenderer(src.Name, cfg.RequestTimeout, cfg.ChromeSettle)
		}
	}
	return func() (render.Renderer, error) {
		return render.NewHTTPRenderer(src.Name, cacheSvc, 5*time.Minute, cfg.RequestTimeout), nil
	}
}

// checkpointPath keeps one artifact per source so runs do not clobber each
// other's progress.
func checkpointPath(cfg *config.Config, src *source.Source, perSource bool) string {
	if !perSource {
		return cfg.CheckpointPath
	}
	return strings.ToLower(src.Name) + "_" + cfg.CheckpointPath
}
