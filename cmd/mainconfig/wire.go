package mainconfig

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/starskyline/bareerah/internal/archive"
	"github.com/starskyline/bareerah/internal/backend"
	"github.com/starskyline/bareerah/internal/booking"
	appconfig "github.com/starskyline/bareerah/internal/config"
	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/dialogue"
	"github.com/starskyline/bareerah/internal/fleet"
	"github.com/starskyline/bareerah/internal/geo"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/location"
	"github.com/starskyline/bareerah/internal/messaging"
	"github.com/starskyline/bareerah/internal/nlu"
	"github.com/starskyline/bareerah/internal/normalize"
	"github.com/starskyline/bareerah/internal/notify"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

// Components is everything a binary needs to run conversations.
type Components struct {
	Metrics   *metrics.ConversationMetrics
	Store     session.Store
	Service   *conversation.Service
	Finalizer *booking.Finalizer
	Bookings  booking.Repository
	CallLogs  *archive.SQLStore
	Notifier  *notify.Service
	Sender    *messaging.TwilioSender

	Pool  *pgxpool.Pool
	DB    *sql.DB
	Redis *redis.Client
}

// Close releases connections. Pending notifications are flushed first.
func (c *Components) Close(ctx context.Context) {
	if c.Notifier != nil {
		_ = c.Notifier.Wait(ctx)
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// Sweeper builds the idle-session sweeper over the wired service.
func (c *Components) Sweeper(cfg *appconfig.Config, logger *logging.Logger) *conversation.Sweeper {
	return conversation.NewSweeper(c.Store, c.Service, c.Finalizer, conversation.SweeperConfig{
		IdleTimeout: cfg.SessionIdleTimeout,
		Interval:    cfg.SweepInterval,
	}, logger)
}

// Build wires the conversation stack from configuration. reg may be nil.
func Build(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, reg prometheus.Registerer, logger *logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Components{}
	if reg != nil {
		c.Metrics = metrics.NewConversationMetrics(reg)
	}
	m := c.Metrics

	if err := c.connectStores(ctx, cfg, logger); err != nil {
		c.Close(ctx)
		return nil, err
	}

	store, locker, err := buildSessionStore(cfg, awsCfg, c)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	c.Store = store
	logger.Info("session store ready", "backend", cfg.SessionBackend)

	llm, err := BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	lex := lexicon.Default()
	gaz := location.DefaultGazetteer()

	var geocoder location.Geocoder
	var distance fleet.DistanceService
	if cfg.GoogleMapsAPIKey != "" {
		maps, err := geo.NewGoogleMaps(cfg.GoogleMapsAPIKey, cfg.GeoTimeout, cfg.GeoRateLimit, logger)
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("mainconfig: google maps: %w", err)
		}
		geocoder, distance = maps, maps
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set; locations are checked against the gazetteer only")
	}

	rates, err := fleet.LoadRateTable(cfg.FleetRatesFile)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	resolverOpts := []fleet.ResolverOption{fleet.WithMetrics(m), fleet.WithLogger(logger)}
	var bookingService booking.Service
	if client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendJWTSecret, logger); client != nil {
		resolverOpts = append(resolverOpts, fleet.WithVehicleService(client), fleet.WithFareService(client))
		bookingService = client
	} else {
		logger.Warn("BACKEND_BASE_URL not set; bookings are kept locally as pending")
	}
	if distance != nil {
		resolverOpts = append(resolverOpts, fleet.WithDistanceService(distance))
	}
	resolver := fleet.NewResolver(rates, fleet.ResolverConfig{
		DefaultDistanceKm: cfg.DefaultDistanceKm,
		Timeout:           cfg.BackendTimeout,
	}, resolverOpts...)

	extractor := nlu.NewExtractor(llm, gaz, nlu.Config{Timeout: cfg.NLUTimeout, CompanyName: cfg.CompanyName}, m, logger)
	locPolicy := location.DefaultPolicy()
	locPolicy.MinConfidence = cfg.LocationMinConfidence
	locPolicy.MaxRetriesBeforeForceAccept = cfg.MaxRetriesBeforeForceAccept
	validator := location.NewValidator(gaz, geocoder, locPolicy, lex, logger)

	engine := dialogue.NewEngine(extractor, validator, normalize.New(lex), resolver, dialoguePolicy(cfg), m, logger)

	c.Sender = messaging.NewTwilioSender(messaging.TwilioConfig{
		AccountSID:   cfg.TwilioAccountSID,
		AuthToken:    cfg.TwilioAuthToken,
		From:         cfg.TwilioFromNumber,
		WhatsAppFrom: cfg.TwilioWhatsAppFrom,
	}, m, logger)
	var sms notify.SMSSender
	if c.Sender != nil {
		sms = c.Sender
	}
	c.Notifier = notify.NewService(buildEmailSender(cfg, awsCfg, logger), sms, notify.Config{
		EmailRecipients: cfg.OpsEmailRecipients,
		OpsPhone:        cfg.OpsPhone,
		CompanyName:     cfg.CompanyName,
	}, m, logger)

	if c.Pool != nil {
		c.Bookings = booking.NewPostgresRepository(c.Pool)
	} else {
		c.Bookings = booking.NewMemoryRepository()
	}
	c.Finalizer = booking.NewFinalizer(bookingService, c.Bookings, c.Notifier, cfg.BackendTimeout, m, logger)

	var s3Store *archive.S3Store
	if cfg.ArchiveBucket != "" {
		s3Store = archive.NewS3Store(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, logger)
	}
	if c.DB != nil {
		c.CallLogs = archive.NewSQLStore(c.DB)
	}
	archiver := archive.NewArchiver(c.CallLogs, s3Store, logger)

	c.Service = conversation.NewService(store, locker, engine, c.Finalizer, archiver, c.Notifier, conversation.ServiceConfig{}, logger)
	return c, nil
}

func (c *Components) connectStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	if url := strings.TrimSpace(cfg.DatabaseURL); url != "" {
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return fmt.Errorf("mainconfig: postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("mainconfig: ping postgres: %w", err)
		}
		c.Pool = pool
		db, err := sql.Open("pgx", url)
		if err != nil {
			return fmt.Errorf("mainconfig: open database: %w", err)
		}
		c.DB = db
		logger.Info("connected to postgres")
	}

	if cfg.SessionBackend == "redis" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("mainconfig: ping redis %s: %w", cfg.RedisAddr, err)
		}
		c.Redis = client
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	}
	return nil
}

func buildSessionStore(cfg *appconfig.Config, awsCfg aws.Config, c *Components) (session.Store, session.Locker, error) {
	var locker session.Locker = session.NewMemoryLocker()
	if c.Redis != nil {
		locker = session.NewRedisLocker(c.Redis)
	}
	switch cfg.SessionBackend {
	case "memory":
		return session.NewMemoryStore(), locker, nil
	case "redis":
		return session.NewRedisStore(c.Redis, cfg.SessionTTL), locker, nil
	case "postgres":
		if c.Pool == nil {
			return nil, nil, fmt.Errorf("mainconfig: SESSION_BACKEND=postgres requires DATABASE_URL")
		}
		return session.NewPostgresStore(c.Pool), locker, nil
	case "dynamodb":
		return session.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.SessionsTable, cfg.SessionTTL), locker, nil
	default:
		return nil, nil, fmt.Errorf("mainconfig: unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}
}

// BuildLLMClient returns nil when no provider is usable; the extractor then
// falls back to the gazetteer.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (nlu.LLMClient, error) {
	primary, err := llmProvider(ctx, cfg.LLMProvider, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		logger.Warn("no language model configured; running on the gazetteer only", "provider", cfg.LLMProvider)
		return nil, nil
	}
	if cfg.LLMFallbackProvider == "" || cfg.LLMFallbackProvider == cfg.LLMProvider {
		return primary, nil
	}
	fallback, err := llmProvider(ctx, cfg.LLMFallbackProvider, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	if fallback == nil {
		return primary, nil
	}
	logger.Info("language model ready", "provider", cfg.LLMProvider, "fallback", cfg.LLMFallbackProvider)
	return nlu.NewFallbackClient(primary, fallback, logger), nil
}

func llmProvider(ctx context.Context, name string, cfg *appconfig.Config, awsCfg aws.Config) (nlu.LLMClient, error) {
	switch name {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return nlu.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "bedrock":
		if cfg.BedrockModelID == "" {
			return nil, nil
		}
		return nlu.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		return nlu.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("mainconfig: unknown LLM provider %q", name)
	}
}

func buildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
			Sandbox:   cfg.SendGridSandbox,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SENDGRID_API_KEY not set; emails are logged only")
	case "ses":
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail:        cfg.EmailFrom,
			FromName:         cfg.EmailFromName,
			ConfigurationSet: cfg.SESConfigSet,
		}, logger)
	}
	return notify.NewStubEmailSender(logger)
}

func dialoguePolicy(cfg *appconfig.Config) dialogue.Policy {
	p := dialogue.DefaultPolicy()
	if cfg.MaxRetriesBeforeForceAccept > 0 {
		p.MaxRetriesBeforeForceAccept = cfg.MaxRetriesBeforeForceAccept
	}
	if cfg.MaxEmptyTurns > 0 {
		p.MaxEmptyTurns = cfg.MaxEmptyTurns
	}
	switch cfg.AirportDefaultPeriod {
	case "AM", "PM":
		p.AirportDefaultPeriod = cfg.AirportDefaultPeriod
	default:
		p.AirportDefaultPeriod = ""
	}
	if cfg.CompanyName != "" {
		p.CompanyName = cfg.CompanyName
	}
	return p
}
