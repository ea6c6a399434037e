package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-till/internal/accounting"
	"github.com/noah-isme/pos-till/internal/config"
	"github.com/noah-isme/pos-till/internal/drawer"
	"github.com/noah-isme/pos-till/internal/events"
	"github.com/noah-isme/pos-till/internal/health"
	"github.com/noah-isme/pos-till/internal/inventory"
	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/obs"
	"github.com/noah-isme/pos-till/internal/payment"
	"github.com/noah-isme/pos-till/internal/printer"
	"github.com/noah-isme/pos-till/internal/revenue"
	"github.com/noah-isme/pos-till/internal/sale"
	"github.com/noah-isme/pos-till/internal/salelog"
	"github.com/noah-isme/pos-till/internal/till"
)

type saleStore interface {
	sale.Log
	health.Pinger
}

type ledgerStore interface {
	sale.Accounting
	health.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().
		Str("env", cfg.AppEnv).
		Str("till", cfg.TillID).
		Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	for _, topic := range events.DefaultTopics() {
		obs.ObserverFailuresTotal.WithLabelValues(topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName: "pos-till",
		TillID:      cfg.TillID,
		Endpoint:    cfg.OTLPEndpoint,
		Exporter:    cfg.TracingExporter(),
		Environment: cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	}

	saleLog, closeLog := openSaleLog(ctx, cfg, logger)
	defer closeLog()
	ledger := openLedger(cfg, redisClient, logger)

	stock, err := inventory.NewMemory(seedItems(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed inventory")
	}
	rules, err := seedDiscounts()
	if err != nil {
		logger.Fatal().Err(err).Msg("seed discount rules")
	}

	cash, err := drawer.New(money.New(cfg.OpeningFloat), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open cash drawer")
	}
	device, err := printer.NewDevice(printer.DeviceConfig{
		Type:    cfg.PrinterType,
		USBPath: cfg.PrinterUSBPath,
		Address: cfg.PrinterAddress,
	}, os.Stdout)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure printer")
	}

	finalizer, err := sale.NewFinalizer(sale.Collaborators{
		Drawer:     cash,
		Printer:    printer.NewReceiptPrinter(device, cfg.StoreName, cfg.ReceiptWidth, logger),
		Inventory:  stock,
		Accounting: ledger,
		Log:        saleLog,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build finalizer")
	}
	if cfg.RevenueFile != "" {
		f, err := os.OpenFile(cfg.RevenueFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.RevenueFile).Msg("open revenue file")
		}
		defer f.Close()
		finalizer.AddObserver(revenue.NewFileOutput(f))
	}

	paidSales := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace,
		Name:      "paid_sales_total",
		Help:      "Number of sales whose payment was finalized.",
	})
	prometheus.MustRegister(paidSales)
	revenueMetrics, err := revenue.NewMetrics(obs.RevenueMinorUnitsTotal, paidSales)
	if err != nil {
		logger.Fatal().Err(err).Msg("build revenue metrics")
	}

	controller := &till.Controller{
		Catalog:          inventory.NewCachedCatalog(stock, redisClient, cfg.ItemCacheTTL),
		Discounts:        rules,
		Finalizer:        finalizer,
		PaymentObservers: []payment.Observer{revenue.NewTracker(logger), revenueMetrics},
		Logger:           logger,
	}

	runSampleSales(ctx, controller, logger)
	logger.Info().Str("drawer_balance", cash.Balance().String()).Msg("sample sales complete")

	srv := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           opsRouter(logger, cfg.MetricsNamespace, health.Probes{SaleLog: saleLog, Ledger: ledger}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("ops server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ops server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown")
	}
	logger.Info().Msg("till stopped")
}

func opsRouter(logger zerolog.Logger, namespace string, probes health.Probes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(obs.OpsMiddleware(logger, obs.NewOpsMetrics(namespace, nil)))

	hh := health.Handler{Checker: probes}
	r.Get("/health/live", hh.Live)
	r.Get("/health/ready", hh.Ready)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func openSaleLog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (saleStore, func()) {
	if cfg.SaleLogDSN == "" {
		logger.Info().Msg("sale log in memory")
		return salelog.NewMemory(), func() {}
	}
	db, err := salelog.OpenSQLite(ctx, cfg.SaleLogDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open sale log")
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("close sale log")
		}
	}
}

func openLedger(cfg *config.Config, client *redis.Client, logger zerolog.Logger) ledgerStore {
	if client == nil {
		logger.Info().Msg("accounting ledger in memory")
		return accounting.NewMemory()
	}
	l, err := accounting.NewRedis(client, cfg.LedgerKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("open accounting ledger")
	}
	return l
}
