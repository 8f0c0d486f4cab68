package main

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"parkspot/internal/ratelimiter"
)

// envReader reads typed settings and remembers the keys it had to default.
type envReader struct {
	invalid []string
}

func (e *envReader) getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func (e *envReader) getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return n
}

func (e *envReader) getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return b
}

func (e *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.invalid = append(e.invalid, key)
		return fallback
	}
	return d
}

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig(env *envReader) ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: env.getInt("RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            env.getDuration("RATELIMITER_TIME_FRAME", 5*time.Second),
		Enabled:              env.getBool("RATE_LIMITER_ENABLED", false),
	}
}

func loadConfig() (config, []string) {
	env := &envReader{}
	cfg := config{
		addr:          env.getString("ADDR", ":8080"),
		env:           env.getString("ENV", "development"),
		apiURL:        env.getString("EXTERNAL_URL", "localhost:8080"),
		timezone:      env.getString("TIMEZONE", "UTC"),
		storageDriver: env.getString("STORAGE_DRIVER", "postgres"),
		hashidsSalt:   env.getString("HASHIDS_SALT", "parkspot"),
		db: dbConfig{
			addr:         env.getString("DB_ADDR", ""),
			maxOpenConns: env.getInt("DB_MAX_OPEN_CONNS", 30),
			maxIdleTime:  env.getString("DB_MAX_IDLE_TIME", "15m"),
			migrate:      env.getBool("DB_MIGRATE", true),
		},
		auth: authConfig{
			basic: basicConfig{
				user:     env.getString("AUTH_BASIC_USER", "admin"),
				passHash: env.getString("AUTH_BASIC_PASS_HASH", ""),
			},
			token: tokenConfig{
				secret: env.getString("AUTH_TOKEN_SECRET", ""),
				aud:    env.getString("AUTH_TOKEN_AUD", "parkspot"),
				iss:    env.getString("AUTH_TOKEN_ISS", "parkspot"),
			},
		},
		payment: paymentConfig{
			gateway:  env.getString("PAYMENT_GATEWAY", "sandbox"),
			restURL:  env.getString("PAYMENT_REST_URL", ""),
			restKey:  env.getString("PAYMENT_REST_KEY", ""),
			currency: env.getString("PAYMENT_CURRENCY", "USD"),
			timeout:  env.getDuration("PAYMENT_TIMEOUT", 15*time.Second),
		},
		mail: mailConfig{
			smtpHost: env.getString("SMTP_HOST", ""),
			smtpPort: env.getInt("SMTP_PORT", 587),
			smtpUser: env.getString("SMTP_USERNAME", ""),
			smtpPass: env.getString("SMTP_PASSWORD", ""),
			from:     env.getString("MAIL_FROM", ""),
		},
		push: pushConfig{
			expoAccessToken: env.getString("EXPO_ACCESS_TOKEN", ""),
		},
		queue: queueConfig{
			url:   env.getString("RABBITMQ_URL", ""),
			queue: env.getString("RABBITMQ_QUEUE", ""),
		},
		redis: redisConfig{
			addr:     env.getString("REDIS_ADDR", ""),
			password: env.getString("REDIS_PASSWORD", ""),
			db:       env.getInt("REDIS_DB", 0),
		},
		workers: workerConfig{
			reminderInterval:  env.getDuration("REMINDER_INTERVAL", 5*time.Minute),
			recomputeInterval: env.getDuration("RECOMPUTE_INTERVAL", 15*time.Minute),
		},
	}
	cfg.rateLimiter = LoadRateLimiterConfig(env)
	return cfg, env.invalid
}

func (cfg config) validate(logger *zap.SugaredLogger) {
	if cfg.auth.token.secret == "" {
		logger.Fatal("AUTH_TOKEN_SECRET is required")
	}
	if cfg.storageDriver == "postgres" && cfg.db.addr == "" {
		logger.Fatal("DB_ADDR is required when STORAGE_DRIVER=postgres")
	}
	if cfg.auth.basic.passHash == "" {
		logger.Warn("AUTH_BASIC_PASS_HASH is empty; /health and /debug/vars will reject every request")
	}
}
