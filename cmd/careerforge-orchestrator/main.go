package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/careerforge/internal/clients/gemini"
	"github.com/bobmcallan/careerforge/internal/common"
	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/orchestrator"
	"github.com/bobmcallan/careerforge/internal/orchestrator/events"
	"github.com/bobmcallan/careerforge/internal/queue/redis"
	"github.com/bobmcallan/careerforge/internal/specialist"
	"github.com/bobmcallan/careerforge/internal/specialist/charter"
	"github.com/bobmcallan/careerforge/internal/specialist/extractor"
	"github.com/bobmcallan/careerforge/internal/specialist/httprpc"
	"github.com/bobmcallan/careerforge/internal/store/surrealdb"
	"github.com/bobmcallan/careerforge/internal/trace"
)

func main() {
	configPath := os.Getenv("CAREERFORGE_CONFIG")

	config, err := common.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	common.LoadVersionFromFile()
	logger := common.NewLogger(config.Logging.Level)
	common.PrintBanner(config, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := surrealdb.New(ctx, &config.Store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to job store")
	}
	defer store.Close()

	queue, err := redis.New(ctx, &config.Queue, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to work queue")
	}
	defer queue.Close()

	specialists, err := buildSpecialists(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire specialists")
	}

	dispatcher := specialist.NewDispatcher(specialist.RetryPolicy{
		InitialDelay: config.Retry.GetInitialDelay(),
		Multiplier:   config.Retry.GetMultiplier(),
		MaxDelay:     config.Retry.GetMaxDelay(),
		MaxAttempts:  config.Retry.GetMaxAttempts(),
	}, config.Specialists.RateLimitPerSecond, []string{"extractor", "analyzer", "interviewer", "charter"}, logger)

	sink := trace.NewSink(traceSinkKind(config), logger)

	hub := events.NewHub(logger)

	orch := orchestrator.New(store, queue, specialists, dispatcher, sink, hub,
		config.Retry.GetJobBudget(), config.Queue.GetPollInterval(), logger)

	workerCount := config.Specialists.RateLimitPerSecond
	if workerCount <= 0 {
		workerCount = 4
	}
	orch.Start(workerCount)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/api/events", hub.ServeWS)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", config.Server.Port).Msg("orchestrator health/events server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	common.PrintShutdownBanner(logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}

	orch.Stop()
	logger.Info().Msg("orchestrator stopped")
}

// buildSpecialists wires each of the four interfaces.Specialists members to
// either a remote HTTP endpoint or, where one exists (extractor, charter), an
// in-process reference backend, per each endpoint's configured URL.
func buildSpecialists(ctx context.Context, config *common.Config, logger *common.Logger) (interfaces.Specialists, error) {
	var out interfaces.Specialists

	if url := config.Specialists.Extractor.URL; url != "" {
		out.Extractor = httprpc.NewExtractorClient(httprpc.New(url, config.Specialists.Extractor.GetTimeout(), logger))
	} else {
		if config.Specialists.GeminiAPIKey == "" {
			return out, fmt.Errorf("extractor: no remote url configured and no gemini_api_key for the in-process backend")
		}
		model := config.Specialists.GeminiModel
		if model == "" {
			model = gemini.DefaultModel
		}
		client, err := gemini.NewClient(ctx, config.Specialists.GeminiAPIKey, gemini.WithModel(model), gemini.WithLogger(logger))
		if err != nil {
			return out, fmt.Errorf("extractor: %w", err)
		}
		out.Extractor = extractor.NewGeminiBackend(client)
	}

	if url := config.Specialists.Analyzer.URL; url != "" {
		out.Analyzer = httprpc.NewAnalyzerClient(httprpc.New(url, config.Specialists.Analyzer.GetTimeout(), logger))
	} else {
		return out, fmt.Errorf("analyzer: no remote url configured and no in-process backend exists")
	}

	if url := config.Specialists.Interviewer.URL; url != "" {
		out.Interviewer = httprpc.NewInterviewerClient(httprpc.New(url, config.Specialists.Interviewer.GetTimeout(), logger))
	} else {
		return out, fmt.Errorf("interviewer: no remote url configured and no in-process backend exists")
	}

	if url := config.Specialists.Charter.URL; url != "" {
		out.Charter = httprpc.NewCharterClient(httprpc.New(url, config.Specialists.Charter.GetTimeout(), logger))
	} else {
		out.Charter = charter.NewGoChartBackend()
	}

	return out, nil
}

func traceSinkKind(config *common.Config) string {
	if !config.Trace.Enabled {
		return "noop"
	}
	return config.Trace.Sink
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
