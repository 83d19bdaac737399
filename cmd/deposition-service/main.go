package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexscribe/deposition-service/internal/auth"
	"lexscribe/deposition-service/internal/config"
	"lexscribe/deposition-service/internal/httpapi"
	"lexscribe/deposition-service/internal/identity"
	"lexscribe/deposition-service/internal/metrics"
	"lexscribe/deposition-service/internal/ratelimit"
	"lexscribe/deposition-service/internal/store/postgres"
	"lexscribe/deposition-service/internal/telemetry"
	"lexscribe/deposition-service/internal/transcription"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	shutdownTelemetry := telemetry.Setup("deposition-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	st := postgres.NewStore(pool)

	var provider identity.Provider
	switch cfg.IdentityProvider {
	case "hosted":
		provider = identity.NewHostedProvider(cfg.IdentityBaseURL, cfg.IdentityAPIKey)
	default:
		provider = identity.NewLocalProvider(pool)
	}

	limiter := ratelimit.NewLimiter(st)
	limiter.SetPolicy(ratelimit.ActionSignIn, ratelimit.Policy{
		MaxAttempts: cfg.MaxLoginAttempts,
		Window:      cfg.LoginWindow,
	})
	limiter.SetPolicy(ratelimit.ActionResetPassword, ratelimit.Policy{
		MaxAttempts: 3,
		Window:      cfg.ResetWindow,
	})

	m := metrics.New("deposition")
	authService := auth.NewService(provider, st, limiter, cfg.SessionTimeout, os.Getenv("RESET_REDIRECT_URL"))
	guard := auth.NewGuard(st)
	transcriber := transcription.NewClient(cfg.DeepgramBaseURL, cfg.DeepgramAPIKey, m)

	handler := httpapi.NewHandler(authService, st, guard, transcriber).WithMetrics(m)
	httpLimiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:      cfg.RateLimitPerMinute,
		IPBurst:          cfg.RateLimitBurst,
		AccountPerMinute: cfg.AccountRatePerMinute,
		AccountBurst:     cfg.AccountRateBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", otelhttp.NewHandler(httpapi.LoggingMiddleware(m, httpLimiter.Middleware(handler.Routes())), "deposition-service"))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // transcription calls block on the vendor
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("deposition-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
