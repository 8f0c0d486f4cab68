package main

import (
	"context"
	"errors"
	"expvar"
	"io/fs"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"parkspot/internal/auth"
	"parkspot/internal/db"
	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/storage"
	"parkspot/internal/mailer"
	"parkspot/internal/notifications"
	"parkspot/internal/payments"
	"parkspot/internal/ratelimiter"
	"parkspot/internal/reference"
	"parkspot/internal/reservation"
)

// NewLogger creates a new zap logger with color.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), lvl)
	return zap.New(core).Sugar(), nil
}

var version = "0.3.0"

//	@title			ParkSpot API
//	@description	Parking reservations with dynamic pricing, cancellation policies and refund approval.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	logger, err := NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	cfg, invalid := loadConfig()
	for _, key := range invalid {
		logger.Warnw("invalid setting, using default", "key", key)
	}
	cfg.validate(logger)

	loc, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		logger.Fatalw("invalid TIMEZONE", "timezone", cfg.timezone, "error", err)
	}

	// Storage
	var store storage.UnitOfWork
	switch cfg.storageDriver {
	case "memory":
		mem := storage.NewMemory()
		seedDemoLots(mem)
		store = mem
		logger.Warn("using in-memory storage; data is lost on restart")
	case "postgres":
		if cfg.db.migrate {
			if err := db.Migrate(cfg.db.addr); err != nil {
				logger.Fatal(err)
			}
			logger.Info("database migrations applied")
		}

		pool, err := db.New(cfg.db.addr, int32(cfg.db.maxOpenConns), cfg.db.maxIdleTime)
		if err != nil {
			logger.Fatal(err)
		}
		defer pool.Close()
		logger.Info("database connection pool established")

		expvar.Publish("database", expvar.Func(func() any {
			s := pool.Stat()
			return map[string]any{
				"total_conns":    s.TotalConns(),
				"idle_conns":     s.IdleConns(),
				"acquired_conns": s.AcquiredConns(),
				"max_conns":      s.MaxConns(),
			}
		}))
		store = storage.NewContainer(pool)
	default:
		logger.Fatalw("unknown STORAGE_DRIVER", "driver", cfg.storageDriver)
	}

	// Payments
	pm := payments.NewPaymentManager()
	pm.RegisterGateway(payments.NewSandbox())
	if cfg.payment.restURL != "" {
		pm.RegisterGateway(payments.NewRestGateway(cfg.payment.restKey, cfg.payment.restURL, cfg.payment.timeout))
	}
	gateway, err := pm.Gateway(cfg.payment.gateway)
	if err != nil {
		logger.Fatalw("payment gateway unavailable", "gateway", cfg.payment.gateway, "registered", pm.Names(), "error", err)
	}

	// Notifications
	notifier := notifications.Multi{notifications.NewLogNotifier(logger)}
	if cfg.mail.smtpHost != "" {
		smtp, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:      cfg.mail.smtpHost,
			Port:      cfg.mail.smtpPort,
			Username:  cfg.mail.smtpUser,
			Password:  cfg.mail.smtpPass,
			FromEmail: cfg.mail.from,
		})
		if err != nil {
			logger.Fatal(err)
		}
		notifier = append(notifier, notifications.NewEmailNotifier(smtp, loc))
	}
	if cfg.push.expoAccessToken != "" {
		expo := notifications.NewExpoAdapter(cfg.push.expoAccessToken)
		notifier = append(notifier, notifications.NewPushNotifier(expo, store.Repos().PushTokens))
	}
	if cfg.queue.url != "" {
		queue, err := notifications.NewQueueNotifier(cfg.queue.url, cfg.queue.queue)
		if err != nil {
			logger.Fatal(err)
		}
		defer queue.Close()
		notifier = append(notifier, queue)
	}

	// Rate limiter
	rateLimiter, closeLimiter := newRateLimiter(cfg.rateLimiter, cfg.redis, logger)
	defer closeLimiter()

	refs, err := reference.New(cfg.hashidsSalt, reference.DefaultMinLength)
	if err != nil {
		logger.Fatal(err)
	}

	engine := reservation.New(store, gateway, notifier, refs, logger,
		reservation.WithLocation(loc),
		reservation.WithCurrency(cfg.payment.currency),
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		engine:        engine,
		store:         store,
		authenticator: auth.NewJWTAuthenticator(cfg.auth.token.secret, cfg.auth.token.aud, cfg.auth.token.iss),
		rateLimiter:   rateLimiter,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	ctx, stopWorkers := context.WithCancel(context.Background())
	app.startWorkers(ctx)

	mux := app.mount()
	err = app.run(mux)

	stopWorkers()
	engine.Wait()
	if err != nil {
		logger.Fatal(err)
	}
}

func seedDemoLots(mem *storage.Memory) {
	mem.AddLot(lots.Lot{
		Name:              "Central Station Garage",
		TotalCapacity:     20,
		AvailableCapacity: 20,
		BasePriceCents:    250,
		Zones:             []string{"A", "B"},
		SlotsPerZone:      10,
	})
	mem.AddLot(lots.Lot{
		Name:              "Riverside Open Lot",
		TotalCapacity:     30,
		AvailableCapacity: 30,
		BasePriceCents:    150,
		Zones:             []string{"A", "B", "C"},
		SlotsPerZone:      10,
	})
}

// newRateLimiter prefers the shared Redis window and falls back to the
// in-process one when Redis is not configured or unreachable.
func newRateLimiter(rl ratelimiter.Config, rc redisConfig, logger *zap.SugaredLogger) (ratelimiter.Limiter, func()) {
	local := ratelimiter.NewFixedWindowLimiter(rl.RequestsPerTimeFrame, rl.TimeFrame)
	if rc.addr == "" {
		return local, func() {}
	}
	client, err := ratelimiter.NewRedisClient(rc.addr, rc.password, rc.db)
	if err != nil {
		logger.Warnw("redis unreachable, rate limiting per instance", "addr", rc.addr, "error", err)
		return local, func() {}
	}
	return ratelimiter.NewRedisFixedWindowLimiter(client, rl.RequestsPerTimeFrame, rl.TimeFrame), func() { _ = client.Close() }
}
