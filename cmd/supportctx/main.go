// Command supportctx serves the customer support dataset as MCP tools.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mkessler-dev/supportctx/internal/config"
	"github.com/mkessler-dev/supportctx/internal/dataset"
	"github.com/mkessler-dev/supportctx/internal/health"
	"github.com/mkessler-dev/supportctx/internal/observe"
	"github.com/mkessler-dev/supportctx/internal/server"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	migrate := flag.Bool("migrate", false, "apply the Postgres dataset schema before loading")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("supportctx", version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "supportctx: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "supportctx: %v\n", err)
		}
		return 1
	}

	// All logging goes to stderr: on the stdio transport, stdout belongs to
	// the MCP protocol stream.
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "supportctx",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// Dataset load is the only blocking work before serving; failure is fatal.
	snap, err := loadSnapshot(ctx, cfg, *migrate)
	if err != nil {
		slog.Error("failed to load dataset", "err", err)
		return 1
	}
	store, err := dataset.NewStore(snap)
	if err != nil {
		slog.Error("dataset failed validation", "err", err)
		return 1
	}

	counts := store.Counts()
	metrics := observe.DefaultMetrics()
	metrics.RecordDatasetCounts(ctx, counts.Customers, counts.Tickets, counts.EscalationRules)
	slog.Info("dataset loaded",
		"customers", counts.Customers,
		"tickets", counts.Tickets,
		"escalation_rules", counts.EscalationRules,
	)

	srv := server.New(store, version, server.WithMetrics(metrics))

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.OpsAddr != "" {
		g.Go(func() error {
			return runOpsServer(ctx, cfg.Server.OpsAddr, store, metrics)
		})
	}

	switch cfg.Server.Transport {
	case config.TransportStreamableHTTP:
		g.Go(func() error {
			return runStreamableHTTP(ctx, cfg.Server.ListenAddr, srv)
		})
		slog.Info("supportctx ready", "transport", cfg.Server.Transport, "listen_addr", cfg.Server.ListenAddr)
	default:
		g.Go(func() error {
			return srv.Run(ctx)
		})
		slog.Info("supportctx ready", "transport", config.TransportStdio)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// loadSnapshot reads the dataset from whichever source the config selects.
func loadSnapshot(ctx context.Context, cfg *config.Config, migrate bool) (dataset.Snapshot, error) {
	if cfg.Dataset.Path != "" {
		return dataset.LoadFile(cfg.Dataset.Path)
	}

	pool, err := pgxpool.New(ctx, cfg.Dataset.PostgresDSN)
	if err != nil {
		return dataset.Snapshot{}, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if migrate {
		if err := dataset.Migrate(ctx, pool); err != nil {
			return dataset.Snapshot{}, err
		}
		slog.Info("dataset schema applied")
	}
	return dataset.LoadPostgres(ctx, pool)
}

// runOpsServer serves /healthz, /readyz, and /metrics until ctx is cancelled.
func runOpsServer(ctx context.Context, addr string, store *dataset.Store, metrics *observe.Metrics) error {
	mux := http.NewServeMux()
	health.New(health.DatasetChecker(store)).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	opsSrv := &http.Server{
		Addr:    addr,
		Handler: observe.Middleware(metrics)(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = opsSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("ops server listening", "addr", addr)
	if err := opsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}

// runStreamableHTTP serves the MCP streamable HTTP transport until ctx is
// cancelled.
func runStreamableHTTP(ctx context.Context, addr string, srv *server.Server) error {
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.HTTPHandler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mcp http server: %w", err)
	}
	return nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
