package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/agrichain-os/agrichain/internal/config"
	"github.com/agrichain-os/agrichain/internal/dataset"
	"github.com/agrichain-os/agrichain/internal/repository"
	"github.com/agrichain-os/agrichain/internal/repository/mongodb"
	"github.com/agrichain-os/agrichain/internal/repository/sqlite"
	"github.com/agrichain-os/agrichain/internal/scheduler"
	"github.com/agrichain-os/agrichain/internal/server/handlers"
	"github.com/agrichain-os/agrichain/internal/server/router"
	analysissvc "github.com/agrichain-os/agrichain/internal/service/analysis"
	farmsvc "github.com/agrichain-os/agrichain/internal/service/farm"
	financesvc "github.com/agrichain-os/agrichain/internal/service/finance"
	forecastsvc "github.com/agrichain-os/agrichain/internal/service/forecast"
	inventorysvc "github.com/agrichain-os/agrichain/internal/service/inventory"
	logisticssvc "github.com/agrichain-os/agrichain/internal/service/logistics"
	"github.com/agrichain-os/agrichain/pkg/clients/geocode"
	"github.com/agrichain-os/agrichain/pkg/clients/groq"
	"github.com/agrichain-os/agrichain/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	marketData, err := dataset.Load(cfg.Dataset.Path, baseLogger.Named("dataset"))
	if err != nil {
		baseLogger.Fatal("failed to load market dataset", zap.Error(err))
	}

	var store repository.Store
	switch cfg.Storage.Backend {
	case config.BackendMongoDB:
		store, err = mongodb.Open(context.Background(), cfg.Storage.MongoURI, cfg.Storage.MongoDB)
	default:
		store, err = sqlite.Open(cfg.Storage.SQLitePath, baseLogger.Named("repo.sqlite"))
	}
	if err != nil {
		baseLogger.Fatal("failed to open store",
			zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	geocoder := geocode.NewClient(geocode.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		Region:    cfg.Geocoder.Region,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   cfg.Geocoder.Timeout,
	})

	var generator groq.Client
	if cfg.Forecast.GroqKey != "" {
		generator = groq.NewClient(cfg.Forecast.GroqKey, cfg.Forecast.Model)
		baseLogger.Info("forecast generator enabled", zap.String("model", cfg.Forecast.Model))
	} else {
		baseLogger.Warn("groq api key missing, ai forecasts disabled")
	}

	inventorySvc := inventorysvc.NewService(store, baseLogger.Named("svc.inventory"))
	farmSvc := farmsvc.NewService(store, baseLogger.Named("svc.farm"))
	logisticsSvc := logisticssvc.NewService(store, geocoder, baseLogger.Named("svc.logistics"))
	financeSvc := financesvc.NewService(store, financesvc.Config{
		UPIID:     cfg.Payments.UPIID,
		PayeeName: cfg.Payments.PayeeName,
	}, baseLogger.Named("svc.finance"))
	analysisSvc := analysissvc.NewService(marketData, store, baseLogger.Named("svc.analysis"))
	forecastSvc := forecastsvc.NewService(marketData, generator, store, baseLogger.Named("svc.forecast"))

	engine := router.New(
		handlers.NewFarmHandler(farmSvc, inventorySvc, baseLogger.Named("handlers.farm")),
		handlers.NewLogisticsHandler(logisticsSvc, baseLogger.Named("handlers.logistics")),
		handlers.NewFinanceHandler(financeSvc, baseLogger.Named("handlers.finance")),
		handlers.NewInsightsHandler(analysisSvc, forecastSvc, marketData, baseLogger.Named("handlers.insights")),
		baseLogger.Named("router"),
	)

	// Live tracking poller
	sched := scheduler.NewScheduler(cfg.Tracking, logisticsSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
