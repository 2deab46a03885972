// Command conversation-worker drains the SQS turn queue when WhatsApp turns
// are processed outside the API process. It also runs the idle-session
// sweeper.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/starskyline/bareerah/cmd/mainconfig"
	appconfig "github.com/starskyline/bareerah/internal/config"
	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/pkg/logging"
)

const drainTimeout = 30 * time.Second

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("conversation worker failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	if cfg.ConversationQueueURL == "" {
		return errors.New("CONVERSATION_QUEUE_URL is required")
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}
	components, err := mainconfig.Build(ctx, cfg, awsCfg, nil, logger)
	if err != nil {
		return err
	}

	var sender conversation.ReplySender
	if components.Sender != nil {
		sender = components.Sender
	}
	worker := conversation.NewWorker(components.Service,
		conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL),
		sender, logger,
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithReceiveWait(20*time.Second),
		conversation.WithBatchSize(10),
	)
	worker.Start(ctx)
	go components.Sweeper(cfg, logger).Run(ctx)
	logger.Info("conversation worker running", "queue", cfg.ConversationQueueURL, "workers", cfg.WorkerCount)

	<-ctx.Done()
	logger.Info("conversation worker draining")

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-drainCtx.Done():
		logger.Warn("worker drain timed out; in-flight turns return to the queue")
	}
	components.Close(drainCtx)
	return nil
}
