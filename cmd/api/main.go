package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maxai/calendar-assistant/internal/api/router"
	"github.com/maxai/calendar-assistant/internal/calendar"
	"github.com/maxai/calendar-assistant/internal/chat"
	appconfig "github.com/maxai/calendar-assistant/internal/config"
	"github.com/maxai/calendar-assistant/internal/conversation"
	"github.com/maxai/calendar-assistant/internal/observability/metrics"
	"github.com/maxai/calendar-assistant/pkg/logging"
)

func main() {
	// Load .env for local development; a missing file is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting calendar-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}

	gemini, err := conversation.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to initialize Gemini client", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()

	chatMetrics := metrics.NewChatMetrics(nil)
	llm := conversation.NewTimeoutLLM(gemini, cfg.LLMTimeout)
	extractionLLM := conversation.NewTracedLLM(conversation.NewInstrumentedLLM(llm, chatMetrics, "extraction"), "extraction")
	chitchatLLM := conversation.NewTracedLLM(conversation.NewInstrumentedLLM(llm, chatMetrics, "chitchat"), "chitchat")

	dispatcher := conversation.NewDispatcher(calendar.NewFactory(cfg.CalendarID), conversation.DispatcherConfig{
		Timezone:         cfg.EventTimezone,
		QueryWindowDays:  cfg.QueryWindowDays,
		DeleteWindowDays: cfg.DeleteWindowDays,
		Timeout:          cfg.CalendarTimeout,
	})

	engine := conversation.NewEngine(
		conversation.NewClassifier(),
		conversation.NewSlotExtractor(extractionLLM),
		conversation.NewMemoryStateStore(),
		dispatcher,
		chitchatLLM,
		logger,
		conversation.WithMetrics(chatMetrics),
		conversation.WithDefaultDuration(cfg.DefaultDurationMins),
	)

	chatHandler := chat.NewHandler(engine, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
