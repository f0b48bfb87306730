package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/HGakash/agrihub/internal/auth"
	"github.com/HGakash/agrihub/internal/config"
	"github.com/HGakash/agrihub/internal/db"
	"github.com/HGakash/agrihub/internal/excel"
	httphandler "github.com/HGakash/agrihub/internal/http"
	"github.com/HGakash/agrihub/internal/http/middleware"
	"github.com/HGakash/agrihub/internal/ledger"
	"github.com/HGakash/agrihub/internal/logger"
	"github.com/HGakash/agrihub/internal/metrics"
	"github.com/HGakash/agrihub/internal/pdf"
	"github.com/HGakash/agrihub/internal/repository"
	"github.com/HGakash/agrihub/internal/service"
	"github.com/HGakash/agrihub/internal/weather"
)

const shutdownTimeout = 15 * time.Second

func NewServeCommand() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger.New(cfg.Environment), !skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool) error {
	database, err := db.New(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close(database)

	if migrate {
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	m := metrics.New()
	contracts := repository.NewContractRepository(database)
	farmers := repository.NewFarmerRepository(database)
	users := repository.NewUserRepository(database)
	receipts := repository.NewLedgerRepository(database)

	// notifier stays a nil interface when the ledger is off.
	var (
		notifier   service.LedgerNotifier
		dispatcher *ledger.Dispatcher
	)
	if cfg.Ledger.Enabled {
		writer, err := ledger.DialEthereum(ctx, cfg.Ledger.Endpoint, cfg.Ledger.ContractAddress, cfg.Ledger.FromAddress)
		if err != nil {
			return err
		}
		defer writer.Close()

		dispatcher = ledger.NewDispatcher(writer, receipts, m, log, ledger.Options{
			Timeout:     cfg.Ledger.Timeout,
			MaxInFlight: cfg.Ledger.MaxInFlight,
		})
		notifier = dispatcher
		log.Info().Str("endpoint", cfg.Ledger.Endpoint).Str("contract", cfg.Ledger.ContractAddress).Msg("ledger enabled")
	} else {
		log.Info().Msg("ledger disabled")
	}

	var cache weather.Cache
	if cfg.Redis.Addr != "" {
		client, err := weather.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("weather cache unavailable, continuing without it")
		} else {
			defer client.Close()
			cache = weather.NewRedisCache(client)
		}
	}

	contractService := service.NewContractService(contracts, farmers, receipts, notifier, m)
	handler := httphandler.NewHandler(httphandler.Services{
		Contracts: contractService,
		Accounts:  service.NewAccountService(users, auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)),
		Farmers:   service.NewFarmerService(farmers),
		Reports:   service.NewReportService(contractService, excel.NewGenerator(), pdf.NewGenerator()),
		Weather: weather.NewClient(weather.Options{
			BaseURL:   cfg.Weather.BaseURL,
			Timeout:   cfg.Weather.Timeout,
			Cache:     cache,
			CacheTTL:  cfg.Weather.CacheTTL,
			RateLimit: cfg.Weather.RateLimit,
		}, log),
	}, log)

	router := httphandler.NewRouter(handler, middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret)), httphandler.RouterConfig{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log,
		Observer:       m,
		Metrics:        m.Handler(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting agrihub")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("ledger writes still in flight at shutdown")
		}
	}
	return nil
}
