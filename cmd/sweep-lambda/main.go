// Command sweep-lambda runs one idle-session sweep per scheduled invocation,
// for deployments where the API runs without a long-lived worker.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/starskyline/bareerah/cmd/mainconfig"
	appconfig "github.com/starskyline/bareerah/internal/config"
	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/pkg/logging"
)

type sweeper interface {
	SweepOnce(ctx context.Context) (conversation.SweepResult, error)
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	components, err := mainconfig.Build(ctx, cfg, awsCfg, nil, logger)
	if err != nil {
		logger.Error("failed to wire services", "error", err)
		os.Exit(1)
	}

	lambda.Start(handler(components.Sweeper(cfg, logger), components.Notifier.Wait, logger))
}

// handler sweeps once and waits for the notifications it queued, since the
// runtime may freeze as soon as the invocation returns.
func handler(s sweeper, flush func(context.Context) error, logger *logging.Logger) func(context.Context, events.CloudWatchEvent) (conversation.SweepResult, error) {
	return func(ctx context.Context, evt events.CloudWatchEvent) (conversation.SweepResult, error) {
		res, err := s.SweepOnce(ctx)
		if flush != nil {
			if ferr := flush(ctx); ferr != nil {
				logger.Warn("notifications still pending at end of sweep", "error", ferr)
			}
		}
		if err != nil {
			logger.Error("sweep failed", "error", err, "event_id", evt.ID)
			return res, err
		}
		logger.Info("sweep complete", "event_id", evt.ID, "idle", res.Idle, "dropped", res.Dropped, "failed", res.Failed, "retried", res.Retried)
		return res, nil
	}
}
