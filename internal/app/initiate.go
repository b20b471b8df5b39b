package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/contactgate/internal/pkg/hash"
	"github.com/shandysiswandi/contactgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/pkg/jwt"
	"github.com/shandysiswandi/contactgate/internal/pkg/mail"
	"github.com/shandysiswandi/contactgate/internal/pkg/messaging"
	"github.com/shandysiswandi/contactgate/internal/pkg/otp"
	"github.com/shandysiswandi/contactgate/internal/pkg/router"
	"github.com/shandysiswandi/contactgate/internal/pkg/uid"
	"github.com/shandysiswandi/contactgate/internal/pkg/validator"
	"github.com/shandysiswandi/contactgate/internal/verification/outbound/store"
)

func (a *App) initConfig() {
	if os.Getenv("LOCAL") == "true" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env file", "error", err)
		}
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("app.version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_rate"),
		MetricsInterval:  a.config.GetSecond("instrument.metrics_interval"),
		MaskFields:       a.config.GetArray("instrument.mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.goroutine.max"))
	a.otp = otp.NewNumeric(libOTP.DigitsSix)

	hm, err := hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"), a.config.GetArray("hash.hmac.previous")...)
	if err != nil {
		slog.Error("failed to init hmac", "error", err)
		os.Exit(1)
	}
	a.hmac = hm

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("modules.verification.credential.secret")),
		Issuer:    a.config.GetString("modules.verification.credential.issuer"),
		Audiences: a.config.GetArray("modules.verification.credential.audiences"),
		TTL:       a.config.GetMinute("modules.verification.credential.ttl"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	url := strings.TrimSpace(a.config.GetString("database.url"))
	if url == "" {
		slog.Info("database url not configured, postgres disabled")
		return
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = int32(a.config.GetInt("database.pool.max_conns"))
	config.MinConns = int32(a.config.GetInt("database.pool.min_conns"))
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

// initCache connects redis when configured. Credential consumption falls back
// to a process local tracker without it.
func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		slog.Info("redis url not configured, using in-memory idempotency")
		a.idemp = idempotency.NewMemory()
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn, a.config.GetString("redis.idempotency_prefix"))
}

// initDynamoDB builds a client only when the OTP store uses it. A configured
// endpoint points the client at DynamoDB Local or LocalStack.
func (a *App) initDynamoDB() {
	if a.config.GetString("modules.verification.store.driver") != store.DriverDynamoDB {
		return
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.config.GetString("aws.region")),
	}
	if key := a.config.GetString("aws.access_key_id"); key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, a.config.GetString("aws.secret_access_key"), ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(a.ctx, opts...)
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	var clientOpts []func(*dynamodb.Options)
	if endpoint := strings.TrimSpace(a.config.GetString("aws.endpoint")); endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	a.dynamoDB = dynamodb.NewFromConfig(awsCfg, clientOpts...)
}

func (a *App) initMail() {
	driver := a.config.GetString("mail.driver")
	if driver != "smtp" {
		slog.Warn("mail driver is not smtp, emails are written to the log", "driver", driver)
		a.mail = mail.NewLog(a.config.GetString("mail.from"), a.config.GetString("app.env") == "development")
		return
	}

	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		Memory: messaging.MemoryConfig{
			Buffer: a.config.GetInt("messaging.memory.buffer"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("app.name"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("app.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	a.issueLimiter = router.NewRateLimiter(
		a.config.GetFloat64("app.server.rate_limit.rps"),
		a.config.GetInt("app.server.rate_limit.burst"),
	)
	if err := a.goroutine.Go(a.ctx, "router.rate_limiter", func(ctx context.Context) error {
		a.issueLimiter.Run(ctx, time.Minute)
		return nil
	}); err != nil {
		slog.Error("failed to start rate limiter sweeper", "error", err)
		os.Exit(1)
	}

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.address"),
		Handler:           withCORS(a.config, a.router),
		ReadTimeout:       a.config.GetSecond("app.server.timeout.read"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.timeout.read"),
		WriteTimeout:      a.config.GetSecond("app.server.timeout.write"),
		IdleTimeout:       a.config.GetSecond("app.server.timeout.idle"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}

// withCORS wraps h with the configured CORS policy. A preflight is answered
// with the requested headers when all of them are in app.server.cors.headers.
func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.GetArray("app.server.cors.origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: cfg.GetArray("app.server.cors.headers"),
		ExposedHeaders: []string{"Retry-After", router.HeaderCorrelationID},
	}).Handler(h)
}
