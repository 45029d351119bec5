package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/product-proxy/internal/api"
	"github.com/Checker-Finance/product-proxy/internal/httpclient"
	"github.com/Checker-Finance/product-proxy/internal/product"
	"github.com/Checker-Finance/product-proxy/internal/publisher"
	"github.com/Checker-Finance/product-proxy/internal/rate"
	internalsecrets "github.com/Checker-Finance/product-proxy/internal/secrets"
	"github.com/Checker-Finance/product-proxy/internal/sessionstore"
	"github.com/Checker-Finance/product-proxy/internal/upstream"
	"github.com/Checker-Finance/product-proxy/pkg/config"
	"github.com/Checker-Finance/product-proxy/pkg/logger"
	"github.com/Checker-Finance/product-proxy/pkg/secrets"
	"github.com/Checker-Finance/product-proxy/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Infof("starting [%s]...", cfg.ServiceName)

	// --- Upstream base URL (env first, then AWS Secrets Manager) ---
	baseURL := cfg.ProductAPIURL
	if baseURL == "" && cfg.ProductAPISecret != "" {
		baseURL = resolveBaseURL(ctx, cfg)
	}
	if baseURL == "" {
		logg.Warn("no upstream base URL configured; every product call will fail")
	}
	logg.Infow("upstream product API", "base_url", utils.MaskURL(baseURL))

	checks := map[string]api.HealthCheck{}

	// --- Session storage (Redis when configured, memory otherwise) ---
	var storage fiber.Storage
	if cfg.RedisAddr != "" {
		rs, err := sessionstore.New(ctx, sessionstore.Options{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPass,
		})
		if err != nil {
			logg.Fatalw("failed to init redis session storage", "error", err)
		}
		storage = rs
		checks["redis"] = rs.HealthCheck
		defer func() {
			if err := rs.Close(); err != nil {
				logg.Warnw("redis.close_failed", "error", err)
			}
		}()
	}

	sessions := session.New(session.Config{
		Expiration:     cfg.SessionTTL,
		Storage:        storage,
		KeyLookup:      "cookie:product_proxy_session",
		CookieSecure:   cfg.SessionCookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	// --- Product change events (optional) ---
	var events product.EventPublisher
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		logg.Infow("connecting to NATS", "url", utils.MaskURL(cfg.NATSURL))
		conn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		nc = conn

		pub, err := publisher.New(nc, cfg.EventsSubject, cfg.EventsService, logger.L())
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
		events = pub
		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New(nc.Status().String())
			}
			return nil
		}
	}

	// --- Upstream client ---
	limiter := rate.New(rate.Config{
		RequestsPerSecond: cfg.UpstreamRPS,
		Burst:             cfg.UpstreamBurst,
	})
	exec := httpclient.New(logger.L(), limiter, &http.Client{Timeout: cfg.UpstreamTimeout}, "product-api")
	apiClient := upstream.NewClient(logger.L(), exec, baseURL)

	// --- Product service + handlers ---
	svc := product.NewService(logger.L(), apiClient, events)
	handler := api.NewProductHandler(
		logger.L(),
		svc,
		api.NewSessionFlash(sessions),
		api.NewPageRenderer(cfg.AssetVersion),
	)

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})
	app.Use(recover.New())

	api.RegisterRoutes(app, handler, checks)

	go func() {
		logg.Infof("HTTP listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow(fmt.Sprintf("[%s] running", cfg.ServiceName),
		"env", cfg.Env,
		"redis_sessions", cfg.RedisAddr != "",
		"events", events != nil)

	<-ctx.Done()
	logg.Infof("shutting down [%s]...", cfg.ServiceName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
}

// resolveBaseURL reads the upstream root from AWS Secrets Manager.
// Failures are logged and leave the service running without an upstream.
func resolveBaseURL(ctx context.Context, cfg *config.Config) string {
	logg := logger.L()

	provider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
	if err != nil {
		logg.Sugar().Warnw("failed to create AWS Secrets Manager provider", "error", err)
		return ""
	}

	base, err := internalsecrets.NewResolver(logg, provider).ResolveBaseURL(ctx, cfg.ProductAPISecret)
	if err != nil {
		logg.Sugar().Warnw("failed to resolve upstream base URL", "error", err)
		return ""
	}
	return base
}
