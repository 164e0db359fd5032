package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/safex/internal/mfa/outbound/memory"
	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"github.com/shandysiswandi/safex/internal/pkg/hash"
	"github.com/shandysiswandi/safex/internal/pkg/idempotency"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/jwt"
	"github.com/shandysiswandi/safex/internal/pkg/messaging"
	"github.com/shandysiswandi/safex/internal/pkg/otp"
	"github.com/shandysiswandi/safex/internal/pkg/router"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
	"github.com/shandysiswandi/safex/internal/pkg/validator"
	"github.com/shandysiswandi/safex/internal/pkg/whatsapp"
)

func (a *App) initConfig() {
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

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
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
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	secret := a.config.GetString("hash.hmac.secret")
	if strings.TrimSpace(secret) == "" {
		slog.Error("failed to init hmac, hash.hmac.secret is empty")
		os.Exit(1)
	}
	a.hmac = hash.NewHMACSHA256(secret)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	gen, err := otp.NewNumeric(otp.DefaultLength)
	if err != nil {
		slog.Error("failed to init otp generator", "error", err)
		os.Exit(1)
	}
	a.otp = gen
}

func (a *App) initJWT() {
	verifier, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(a.config.GetString("jwt.secret")),
		Issuer:     a.config.GetString("jwt.issuer"),
		Audiences:  a.config.GetArray("jwt.audiences"),
		TTLMinutes: a.config.GetMinute("jwt.ttl_minutes"),
		Clock:      a.clock,
		UUID:       a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = verifier
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
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

// initCache connects the idempotency tracker. Without redis.url send-otp
// runs without request deduplication.
func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		slog.Warn("redis.url is empty, idempotency keys are ignored")
		a.idemp = idempotency.NewDisabled()
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

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			NSQDAddrs:    a.config.GetArray("messaging.nsq.nsqd_addrs"),
			LookupdAddrs: a.config.GetArray("messaging.nsq.lookupd_addrs"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

// initDelivery builds the WhatsApp relay client. A missing destination or
// API key stops the process outside development.
func (a *App) initDelivery() {
	destination := strings.TrimSpace(a.config.GetString("modules.mfa.delivery.destination"))
	apiKey := strings.TrimSpace(a.config.GetString("modules.mfa.delivery.api_key"))

	if destination == "" || apiKey == "" {
		missing := make([]string, 0, 2)
		if destination == "" {
			missing = append(missing, "ADMIN_PHONE")
		}
		if apiKey == "" {
			missing = append(missing, "CALLMEBOT_API_KEY")
		}

		if !strings.EqualFold(a.config.GetString("app.env"), "development") {
			slog.Error("two-factor delivery is not configured", "missing", missing)
			os.Exit(1)
		}
		slog.Warn("two-factor delivery is not configured, codes are returned in responses", "missing", missing)
	}

	retries := a.config.GetInt("modules.mfa.delivery.max_retries")
	if retries < 0 {
		retries = 0
	}

	a.whatsapp = whatsapp.NewCallMeBot(whatsapp.CallMeBotConfig{
		BaseURL:    a.config.GetString("modules.mfa.delivery.base_url"),
		APIKey:     apiKey,
		UserAgent:  a.config.GetString("modules.mfa.delivery.user_agent"),
		MaxRetries: uint64(retries),
		HTTPClient: &http.Client{Timeout: a.config.GetSecond("modules.mfa.delivery.timeout_seconds")},
	})
}

func (a *App) initChallengeStore() {
	a.challenges = memory.NewStore()
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Correlation-ID"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
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
				a.dbConn.Close()

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
