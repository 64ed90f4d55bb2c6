package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweetpotato0/voyager/agent"
	"github.com/sweetpotato0/voyager/archive"
	archivestore "github.com/sweetpotato0/voyager/archive/store"
	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/config"
	"github.com/sweetpotato0/voyager/contrib/provider"
	"github.com/sweetpotato0/voyager/contrib/session/inmemory"
	"github.com/sweetpotato0/voyager/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/voyager/engine"
	"github.com/sweetpotato0/voyager/middleware"
	"github.com/sweetpotato0/voyager/middleware/enricher"
	"github.com/sweetpotato0/voyager/middleware/errorhandler"
	"github.com/sweetpotato0/voyager/middleware/limiter"
	"github.com/sweetpotato0/voyager/middleware/logger"
	"github.com/sweetpotato0/voyager/middleware/validator"
	"github.com/sweetpotato0/voyager/pkg/logging"
	"github.com/sweetpotato0/voyager/pkg/metrics"
	"github.com/sweetpotato0/voyager/pkg/telemetry"
	"github.com/sweetpotato0/voyager/prompt"
	"github.com/sweetpotato0/voyager/runner"
	"github.com/sweetpotato0/voyager/session"
	sessionstore "github.com/sweetpotato0/voyager/session/store"
)

// app holds everything a front-end needs to run turns.
type app struct {
	catalog *catalog.Catalog
	runner  *runner.Runner
	archive archive.Store
	logger  *slog.Logger
	closers []func(context.Context) error
}

// newApp wires the process from cfg.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{logger: logging.WithComponent("voyager")}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Disable:        !cfg.Telemetry.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	a.catalog, err = catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "catalog loaded", "path", cfg.Catalog.Path, "offerings", a.catalog.Len())

	llm, closeLLM, err := provider.New(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return closeLLM() })

	m := a.startMetrics(cfg.Metrics)

	opts := agent.Options{
		Engine:  cfg.Engine,
		Prompts: prompt.Defaults(),
		Metrics: m,
	}
	if cfg.Provider.Tokenizer != "" {
		counter, err := tiktoken.NewTiktokenTokenizer(cfg.Provider.Tokenizer)
		if err != nil {
			return nil, fmt.Errorf("load tokenizer %q: %w", cfg.Provider.Tokenizer, err)
		}
		opts.Counter = counter
	}

	eng, err := engine.New(agent.Steps(llm, opts),
		engine.WithMaxSteps(cfg.Engine.MaxSteps),
		engine.WithStepTimeout(cfg.Engine.StepTimeout),
		engine.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	store, err := a.sessionStore(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}

	archiveStore, closeArchive, err := archivestore.Open(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}
	a.archive = archiveStore
	a.closers = append(a.closers, func(context.Context) error { return closeArchive() })

	a.runner, err = runner.New(session.NewManager(store, a.catalog), eng,
		runner.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		runner.WithArchive(archiveStore),
		runner.WithMiddleware(turnMiddleware(cfg.Limits)...),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// turnMiddleware builds the chain every turn passes through, outermost first.
func turnMiddleware(limits config.LimitsConfig) []middleware.Middleware {
	chain := []middleware.Middleware{
		errorhandler.NewErrorHandler(nil),
		enricher.NewTurnStamp(),
		logger.NewRequestLogger(nil),
		logger.NewResponseLogger(nil),
		validator.NewUtteranceValidator(limits.MaxInputChars),
	}
	if limits.TurnsPerMinute > 0 {
		chain = append(chain, limiter.NewRateLimiter(limits.TurnsPerMinute, limits.Burst))
	}
	return chain
}

func (a *app) sessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	if cfg.Backend != config.BackendRedis {
		return inmemory.NewInMemoryStore(), nil
	}
	s := sessionstore.NewRedisStore(&sessionstore.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
		TTL:      cfg.Redis.TTL,
	})
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("session redis: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return s.Close() })
	return s, nil
}

// startMetrics registers the collectors and, when an address is configured,
// serves them over HTTP.
func (a *app) startMetrics(cfg config.MetricsConfig) *metrics.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Addr == "" {
		return m
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "addr", cfg.Addr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", cfg.Addr)
	a.closers = append(a.closers, srv.Shutdown)
	return m
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}
