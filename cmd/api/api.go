package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"parkspot/docs" //this is required to generate swagger docs
	"parkspot/internal/auth"
	"parkspot/internal/domain/storage"
	"parkspot/internal/ratelimiter"
	"parkspot/internal/reservation"
)

type application struct {
	config        config
	logger        *zap.SugaredLogger
	engine        *reservation.Engine
	store         storage.UnitOfWork
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr          string
	env           string
	apiURL        string
	timezone      string
	storageDriver string
	hashidsSalt   string
	db            dbConfig
	auth          authConfig
	payment       paymentConfig
	mail          mailConfig
	push          pushConfig
	queue         queueConfig
	redis         redisConfig
	rateLimiter   ratelimiter.Config
	workers       workerConfig
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	aud    string
	iss    string
}

type basicConfig struct {
	user string
	// passHash is a bcrypt hash
	passHash string
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleTime  string
	migrate      bool
}

type paymentConfig struct {
	gateway  string
	restURL  string
	restKey  string
	currency string
	timeout  time.Duration
}

type mailConfig struct {
	smtpHost string
	smtpPort int
	smtpUser string
	smtpPass string
	from     string
}

type pushConfig struct {
	expoAccessToken string
}

type queueConfig struct {
	url   string
	queue string
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

type workerConfig struct {
	reminderInterval  time.Duration
	recomputeInterval time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/lots", func(r chi.Router) {
			r.Get("/", app.listLotsHandler)
			r.Route("/{lotID}", func(r chi.Router) {
				r.Get("/", app.getLotHandler)
				r.Get("/availability", app.checkAvailabilityHandler)
				r.Get("/quote", app.priceQuoteHandler)
				r.Get("/pricing/trend", app.pricingTrendHandler)
			})
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.createReservationHandler)
			r.Get("/", app.listReservationsHandler)
			r.Get("/ref/{reference}", app.getReservationByReferenceHandler)
			r.Route("/{bookingID}", func(r chi.Router) {
				r.Get("/", app.getReservationHandler)
				r.Get("/cancellation", app.previewCancellationHandler)
				r.Post("/cancel", app.cancelReservationHandler)
			})
		})

		r.Route("/users/push-tokens", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.savePushTokenHandler)
			r.Delete("/", app.removePushTokenHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireAdmin)
			r.Get("/refunds", app.listPendingRefundsHandler)
			r.Post("/refunds/{bookingID}/approve", app.approveRefundHandler)
			r.Post("/refunds/{bookingID}/reject", app.rejectRefundHandler)
			r.Get("/reservations/{bookingID}/audit", app.reservationAuditHandler)
			r.Post("/lots/recompute", app.recomputeAvailabilityHandler)
			r.Delete("/push-tokens", app.bulkRemovePushTokensHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
