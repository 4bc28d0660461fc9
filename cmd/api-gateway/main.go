package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/regionmarkets/coretime-market-backend/internal/clock"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/ledger"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/market"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/notify"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/registry"
	chrepo "github.com/regionmarkets/coretime-market-backend/internal/coretime/repository/clickhouse"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/service/archiver"
	"github.com/regionmarkets/coretime-market-backend/internal/metrics"
	"github.com/regionmarkets/coretime-market-backend/internal/transport"
)

var config struct {
	Addr             string        `long:"addr" env:"API_GATEWAY_ADDR" description:"http listen addr" default:":8000"`
	RegistryAccount  string        `long:"registry-account" env:"REGISTRY_ACCOUNT" description:"registry custody account" default:"registry"`
	MarketAccount    string        `long:"market-account" env:"MARKET_ACCOUNT" description:"market custody account" default:"market"`
	ListingDeposit   uint64        `long:"listing-deposit" env:"LISTING_DEPOSIT" description:"deposit held per listing" default:"1000"`
	TimeslicePeriod  uint32        `long:"timeslice-period" env:"TIMESLICE_PERIOD" description:"ticks per timeslice" default:"80"`
	TickGenesis      string        `long:"tick-genesis" env:"TICK_GENESIS" description:"RFC3339 instant of tick zero" default:"2024-01-01T00:00:00Z"`
	TickInterval     time.Duration `long:"tick-interval" env:"TICK_INTERVAL" description:"wall duration of one tick" default:"6s"`
	EventBusBuffer   int           `long:"event-bus-buffer" env:"EVENT_BUS_BUFFER" description:"per-subscriber event buffer" default:"256"`
	ClickhouseDSN    string        `long:"clickhouse-dsn" env:"CLICKHOUSE_DSN" description:"archive DSN; empty disables the archive"`
	ArchiveFlushSize int           `long:"archive-flush-size" env:"ARCHIVE_FLUSH_SIZE" description:"events per archive batch" default:"64"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		logger.Fatal("Failed to parse arguments", zap.Error(err))
	}

	genesis, err := time.Parse(time.RFC3339, config.TickGenesis)
	if err != nil {
		logger.Fatal("Failed to parse tick genesis", zap.Error(err))
	}
	timesliceClock, err := clock.NewTimesliceClock(
		clock.WallTickSource{Genesis: genesis, Interval: config.TickInterval},
		config.TimeslicePeriod,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to build timeslice clock", zap.Error(err))
	}

	assets := ledger.NewMemoryAssetSource()
	tokens := ledger.NewTokenLedger()
	payments := ledger.NewMemoryPayments()
	bus := notify.NewBus(config.EventBusBuffer, logger)
	defer bus.Close()

	reg, err := registry.New(
		model.AccountID(config.RegistryAccount),
		assets,
		tokens,
		timesliceClock,
		bus,
		metrics.NewRegistry(),
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to build registry", zap.Error(err))
	}

	mkt, err := market.New(market.Config{
		Account:        model.AccountID(config.MarketAccount),
		ListingDeposit: model.Balance(config.ListingDeposit),
	}, reg, tokens, payments, timesliceClock, bus, metrics.NewMarket(), logger)
	if err != nil {
		logger.Fatal("Failed to build market", zap.Error(err))
	}

	var archive transport.EventArchive
	if config.ClickhouseDSN != "" {
		repo, repoErr := chrepo.NewRepository(config.ClickhouseDSN, metrics.NewArchiveRepository())
		if repoErr != nil {
			logger.Fatal("Failed to open clickhouse", zap.Error(repoErr))
		}
		archive = repo

		svc, svcErr := archiver.New(bus.Subscribe(), repo, metrics.NewArchiver(), logger, archiver.Config{
			FlushSize: config.ArchiveFlushSize,
		})
		if svcErr != nil {
			logger.Fatal("Failed to build archiver", zap.Error(svcErr))
		}
		go func() {
			if runErr := svc.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("Archiver stopped", zap.Error(runErr))
			}
		}()
	} else {
		logger.Info("Clickhouse DSN not set, event archive disabled")
	}

	handler, err := transport.NewMarketHandler(reg, mkt, archive, metrics.NewGateway(), logger)
	if err != nil {
		logger.Fatal("Failed to build market handler", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler.Router())
	mux.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              config.Addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server", zap.String("addr", config.Addr))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to listen and serve", zap.Error(err))
	}
}
