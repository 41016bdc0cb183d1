package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"didgate/internal/admin"
	authhandler "didgate/internal/auth/handler"
	authservice "didgate/internal/auth/service"
	"didgate/internal/credential"
	"didgate/internal/did"
	"didgate/internal/keys"
	"didgate/internal/platform/config"
	"didgate/internal/platform/httpserver"
	"didgate/internal/platform/logger"
	"didgate/internal/platform/metrics"
	"didgate/internal/ratelimit"
	"didgate/internal/session"
	"didgate/pkg/platform/audit/publisher"
	"didgate/pkg/platform/circuit"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/platform/middleware/metadata"
	"didgate/pkg/platform/middleware/requestlog"
	"didgate/pkg/platform/middleware/requesttime"
)

const auditBufferSize = 1024

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("didgate stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the broker and blocks until ctx is cancelled or a component fails.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	infra, err := openInfra(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer infra.Close()

	auditPublisher := publisher.NewPublisher(infra.auditStore,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	cipher, err := keys.NewCipher(cfg.Auth.MasterKey)
	if err != nil {
		return fmt.Errorf("master key: %w", err)
	}

	queue, runner, err := newWebhookPipeline(ctx, cfg, infra, log, m, auditPublisher)
	if err != nil {
		return err
	}

	resolver := did.NewClient(cfg.Auth.ResolverURL,
		did.WithBreaker(circuit.New("did-resolver")),
		did.WithMetrics(m),
		did.WithLogger(log),
	)

	auth, err := authservice.New(authservice.Deps{
		Sessions:     session.NewStore(infra.backend),
		Correlations: infra.correlations,
		Directory:    infra.directory,
		Secrets:      keys.NewResolver(infra.directory, cipher, log),
		Resolver:     resolver,
		Verifier:     credential.NewVerifier(),
		Queue:        queue,
		Notifier:     infra.notifier,
	}, cfg.Auth.AuthnURL,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	limiter := ratelimit.New(ratelimit.NewRedisStore(infra.redis.Client), log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithPolicy(ratelimit.Policy{
			ratelimit.ClassStart:    {Limit: cfg.RateLimit.StartPerMinute, Window: time.Minute},
			ratelimit.ClassWallet:   {Limit: cfg.RateLimit.WalletPerMinute, Window: time.Minute},
			ratelimit.ClassCallback: {Limit: cfg.RateLimit.CallbackPerMinute, Window: time.Minute},
		}),
	)
	handlerOpts := []authhandler.Option{authhandler.WithLimiter(limiter)}
	if cfg.Auth.Development {
		handlerOpts = append(handlerOpts, authhandler.WithInsecureCookies())
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(requestlog.Middleware(log))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := infra.Health(req.Context()); err != nil {
			log.WarnContext(req.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	if cfg.Auth.AdminToken != "" {
		manager, err := admin.NewService(infra.directory, cipher,
			admin.WithLogger(log),
			admin.WithAuditPublisher(auditPublisher),
		)
		if err != nil {
			return fmt.Errorf("admin service: %w", err)
		}
		admin.NewHandler(manager, cfg.Auth.AdminToken, log).Register(r)
	} else {
		log.Info("admin api disabled, ADMIN_TOKEN not set")
	}
	authhandler.New(auth, log, m, handlerOpts...).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)
	// Shutdown does not cancel in-flight requests; waiting streams end when
	// their base context does.
	streamCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()
	srv.BaseContext = func(net.Listener) context.Context { return streamCtx }
	srv.RegisterOnShutdown(cancelStreams)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting didgate", "addr", cfg.Server.Addr, "authn_url", cfg.Auth.AuthnURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
