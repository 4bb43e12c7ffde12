package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evcraddock/rental-arb/internal/auth"
	"github.com/evcraddock/rental-arb/internal/cache"
	"github.com/evcraddock/rental-arb/internal/config"
	"github.com/evcraddock/rental-arb/internal/logging"
	"github.com/evcraddock/rental-arb/internal/market"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/scheduler"
	"github.com/evcraddock/rental-arb/internal/web"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the JSON API server. Configuration comes from arb.yaml and ARB_*
environment variables. Listings are rescored on the configured schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cmdContext(cmd), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides config)")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	if err := logging.Setup(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	source, closeSource, err := marketSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	srv, err := web.NewServer(web.Options{
		DB:             database,
		Auth:           auth.ConfigFrom(cfg),
		Market:         source,
		Concurrency:    cfg.Scoring.Concurrency,
		SaveTimeout:    cfg.Analysis.SaveTimeout(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	sched := scheduler.New()
	if err := sched.AddRescore(cfg.Scoring.RescoreSchedule, srv.Properties()); err != nil {
		return err
	}
	if err := sched.Add("auth-cleanup", "@hourly", srv.CleanupAuth); err != nil {
		return err
	}
	sched.Start()

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.String("addr", httpSrv.Addr), zap.String("base_url", cfg.Server.BaseURL))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		zap.L().Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("http shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		zap.L().Error("scheduler shutdown", zap.Error(err))
	}

	return eris.Wrap(serveErr, "serving http")
}

// marketSource builds the comparables provider. A missing API key disables
// lookups; a missing Redis URL disables caching.
func marketSource(ctx context.Context, cfg *config.Config) (property.ComparablesSource, func(), error) {
	noop := func() {}
	if cfg.Market.APIKey == "" {
		zap.L().Info("market lookups disabled: no api key")
		return nil, noop, nil
	}

	mc, err := market.NewClient(market.Options{
		APIKey:            cfg.Market.APIKey,
		BaseURL:           cfg.Market.BaseURL,
		RequestsPerSecond: cfg.Market.RequestsPerSecond,
		Burst:             cfg.Market.Burst,
		Timeout:           cfg.Market.Timeout(),
	})
	if err != nil {
		return nil, noop, err
	}

	if cfg.Cache.RedisURL == "" {
		return mc, noop, nil
	}

	rc, err := cache.Dial(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL())
	if err != nil {
		return nil, noop, err
	}
	closeCache := func() {
		if err := rc.Close(); err != nil {
			zap.L().Warn("closing cache", zap.Error(err))
		}
	}
	return mc.WithCache(rc), closeCache, nil
}
