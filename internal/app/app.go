// Package app wires the storefront client: configuration, transport,
// session, API surfaces and the catalog view.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Version is reported in traces.
const Version = "0.1.0"

var initTracer = tracing.InitTracer

// App holds every wired dependency of one storefront process.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	API     *api.API
	Session *session.Session
	Catalog *catalog.Catalog
	Health  *health.Registry

	redis          *redis.Client
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance. It does not contact the
// backend; call Session.Restore to resume a stored session.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	tracerShutdown, err := initTracer(ctx, cfg.TracingConfig(Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	limiter := httpclient.NewLimiter(cfg.RateLimitConfig())
	var doer httpclient.Doer = httpclient.NewRateLimitedClient(httpclient.New(cfg.HTTPConfig()), limiter)
	if cfg.BreakerEnabled {
		doer = httpclient.NewCircuitBreakerClient(doer, cfg.BreakerConfig(), logger)
	}
	bc, err := backend.New(cfg.APIURL, doer, logger)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	var store session.TokenStore
	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		client, err := session.NewRedisClient(ctx, cfg.RedisConfig())
		if err != nil {
			return nil, fmt.Errorf("connect token store: %w", err)
		}
		a.redis = client
		store = session.NewRedisStore(client, cfg.SessionProfile)
	default:
		store = session.NewFileStore(cfg.TokenPath())
	}

	a.Session = session.New(store, api.NewAuth(bc), logger)
	bc.SetTokenSource(a.Session)
	bc.SetUnauthorizedHandler(a.Session.Expire)

	images := bc.WithDoer(httpclient.NewRateLimitedClient(httpclient.New(cfg.ImageHTTPConfig()), limiter))
	a.API = api.New(bc, images)
	a.Catalog = catalog.New(a.API.Catalog, catalog.State{}, logger)

	a.Health = health.NewRegistry(5 * time.Second)
	a.Health.Register("backend", func(ctx context.Context) error {
		_, err := a.API.Catalog.CategoryNames(ctx)
		return err
	})
	if a.redis != nil {
		a.Health.RegisterNonCritical("token-store", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	return a, nil
}

// Shutdown writes the metrics textfile, closes the token store and flushes
// pending spans.
func (a *App) Shutdown() error {
	var errs []error

	if a.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
			a.logger.Error("writing metrics failed", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}

	return errors.Join(append(errs, a.release())...)
}

// release closes the token store and flushes pending spans.
func (a *App) release() error {
	var errs []error

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
