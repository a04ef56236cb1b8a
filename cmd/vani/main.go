package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/vani/internal/api"
	"github.com/MikeSquared-Agency/vani/internal/bus"
	"github.com/MikeSquared-Agency/vani/internal/callws"
	"github.com/MikeSquared-Agency/vani/internal/config"
	"github.com/MikeSquared-Agency/vani/internal/notify"
	"github.com/MikeSquared-Agency/vani/internal/orchestrator"
	"github.com/MikeSquared-Agency/vani/internal/reasoning"
	"github.com/MikeSquared-Agency/vani/internal/retrieval"
	"github.com/MikeSquared-Agency/vani/internal/session"
	slackalert "github.com/MikeSquared-Agency/vani/internal/slack"
	"github.com/MikeSquared-Agency/vani/internal/store"
	"github.com/MikeSquared-Agency/vani/internal/telemetry"
	"github.com/MikeSquared-Agency/vani/internal/tools"
	"github.com/MikeSquared-Agency/vani/internal/transcript"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("vani starting",
		"port", cfg.Port,
		"reasoner", cfg.Reasoner,
		"nats_enabled", cfg.NatsURL != "",
		"turn_timeout", cfg.TurnTimeout,
		"ticket_prefix", cfg.TicketPrefix,
		"default_language", cfg.DefaultLanguage,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Connect to database and apply migrations.
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied")
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Step 2: Metrics.
	metrics, shutdownMetrics, err := telemetry.Setup(telemetry.Options{Stdout: cfg.MetricsStdout})
	if err != nil {
		slog.Error("failed to set up metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownMetrics(sctx); err != nil {
			slog.Warn("metrics shutdown failed", "error", err)
		}
	}()

	// Step 3: Event sinks. The dashboard hub is always on; NATS and Slack
	// are optional.
	hub := notify.NewHub()
	sinks := notify.Multi{hub}

	var eventBus *bus.Bus
	if cfg.NatsURL != "" {
		eventBus, err = bus.New(cfg.NatsURL, bus.OutboxConfig{
			FlushInterval:  cfg.BusFlushInterval,
			FlushThreshold: cfg.BusFlushThreshold,
			BufferMax:      cfg.BusBufferMax,
		})
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer eventBus.Close()
		if err := eventBus.Start(ctx); err != nil {
			slog.Error("failed to start event bus", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, eventBus)
		slog.Info("NATS event bus started", "stream", bus.StreamName)
	}

	var slackAlerter *slackalert.Alerter
	if cfg.SlackBotToken != "" && cfg.SlackAlertChannel != "" {
		slackAlerter = slackalert.NewAlerter(cfg.SlackBotToken, cfg.SlackAlertChannel)
		sinks = append(sinks, slackAlerter)
		slog.Info("Slack alerter enabled", "channel", cfg.SlackAlertChannel)
	}

	// Step 4: Tools, reasoning and retrieval.
	dispatcher := tools.NewDispatcher(db, sinks, tools.Options{
		TicketPrefix: cfg.TicketPrefix,
		Metrics:      metrics,
	})

	reasoner, err := newReasoner(ctx, cfg, dispatcher.Specs())
	if err != nil {
		slog.Error("failed to create reasoner", "error", err)
		os.Exit(1)
	}

	retriever := retrieval.NewProvider(db, retrieval.Options{
		MaxChars: cfg.ContextMaxChars,
		Timeout:  cfg.ContextTimeout,
	})

	orch := orchestrator.New(reasoner, retriever, dispatcher)

	// Step 5: Call handling.
	sessions := session.NewStore(session.Options{
		HistoryMax:      cfg.HistoryMax,
		HistoryKeep:     cfg.HistoryKeep,
		DefaultLanguage: cfg.DefaultLanguage,
	})
	calls := callws.NewHandler(sessions, orch, transcript.NewAssembler(db, sinks), callws.Options{
		TurnTimeout:     cfg.TurnTimeout,
		MaxMessageBytes: cfg.WSMaxMessageBytes,
		Metrics:         metrics,
	})

	// Step 6: Announce availability.
	if eventBus != nil {
		announcement, _ := json.Marshal(map[string]any{
			"event_type": "agent.registered",
			"source":     "vani",
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"metadata":   map[string]any{"port": cfg.Port},
		})
		if err := eventBus.Publish("vani.lifecycle.registered", announcement); err != nil {
			slog.Warn("failed to publish registration event", "error", err)
		}
	}

	// Step 7: Start HTTP API with the call websocket mounted.
	srv := api.NewServer(db, sessions, hub, cfg.Port, calls.Routes())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("vani ready", "port", cfg.Port)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		slog.Info("shutting down after server failure")
	}

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		slog.Warn("HTTP shutdown failed", "error", err)
	}
	cancel()
	if eventBus != nil {
		eventBus.Wait()
	}
	if slackAlerter != nil {
		slackAlerter.Wait()
	}
	slog.Info("vani stopped", "active_calls", sessions.Len())
}

func newReasoner(ctx context.Context, cfg config.Config, specs []tools.Spec) (reasoning.Reasoner, error) {
	switch cfg.Reasoner {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini reasoner")
		}
		g, err := reasoning.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, specs)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai reasoner")
		}
		return reasoning.NewOpenAI(cfg.OpenAIAPIKey, specs,
			reasoning.WithBaseURL(cfg.OpenAIBaseURL),
			reasoning.WithModel(cfg.OpenAIModel),
		), nil
	default:
		return nil, fmt.Errorf("unknown reasoner %q", cfg.Reasoner)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
