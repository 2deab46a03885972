package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starskyline/bareerah/cmd/mainconfig"
	"github.com/starskyline/bareerah/internal/api/router"
	appconfig "github.com/starskyline/bareerah/internal/config"
	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/http/handlers"
	"github.com/starskyline/bareerah/internal/messaging"
	"github.com/starskyline/bareerah/internal/webchat"
	"github.com/starskyline/bareerah/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bareerah API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	components, err := mainconfig.Build(ctx, cfg, awsCfg, registry, logger)
	if err != nil {
		logger.Error("failed to wire services", "error", err)
		os.Exit(1)
	}

	publisher, worker := setupConversationQueue(cfg, awsCfg, components, logger)
	if worker != nil {
		worker.Start(ctx)
	}
	sweeper := components.Sweeper(cfg, logger)
	go sweeper.Run(ctx)

	r := router.New(routerConfig(cfg, components, publisher, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), logger))

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancel()
	if worker != nil {
		worker.Wait()
	}
	components.Close(shutdownCtx)

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupConversationQueue returns the WhatsApp publisher and, when the queue
// is in-process, the worker that drains it. With an SQS queue the worker runs
// as its own binary. A nil publisher means WhatsApp is answered inline.
func setupConversationQueue(cfg *appconfig.Config, awsCfg aws.Config, c *mainconfig.Components, logger *logging.Logger) (*conversation.Publisher, *conversation.Worker) {
	if cfg.UseMemoryQueue {
		queue := conversation.NewMemoryQueue(1024, logger)
		worker := conversation.NewWorker(c.Service, queue, replySender(c), logger,
			conversation.WithWorkerCount(cfg.WorkerCount))
		logger.Info("conversation queue in memory", "workers", cfg.WorkerCount)
		return conversation.NewPublisher(queue, logger), worker
	}
	if cfg.ConversationQueueURL == "" {
		logger.Warn("CONVERSATION_QUEUE_URL not set; WhatsApp replies are sent inline")
		return nil, nil
	}
	queue := conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL)
	return conversation.NewPublisher(queue, logger), nil
}

func replySender(c *mainconfig.Components) conversation.ReplySender {
	if c.Sender == nil {
		return nil
	}
	return c.Sender
}

func routerConfig(cfg *appconfig.Config, c *mainconfig.Components, publisher *conversation.Publisher, metricsHandler http.Handler, logger *logging.Logger) *router.Config {
	var pub interface {
		EnqueueTurn(ctx context.Context, req conversation.TurnRequest) (string, error)
	}
	if publisher != nil {
		pub = publisher
	}

	rc := &router.Config{
		Logger: logger,
		MessagingHandler: messaging.NewHandler(c.Service, pub,
			messaging.NewSignatureValidator(cfg.TwilioAuthToken, cfg.PublicBaseURL),
			messaging.HandlerConfig{}, c.Metrics, logger),
		ConversationHandler: conversation.NewHandler(c.Service, c.Store, c.Metrics, logger),
		WebChatHandler:      webchat.NewHandler(c.Service, c.Store, c.Metrics, logger),
		AdminBookings:       handlers.NewAdminBookingsHandler(c.Bookings, c.Finalizer, logger),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	if c.DB != nil {
		var followUps handlers.FollowUpCounter
		if c.CallLogs != nil {
			followUps = c.CallLogs
		}
		rc.AdminDashboard = handlers.NewAdminDashboardHandler(c.DB, followUps, logger)
	}
	return rc
}
