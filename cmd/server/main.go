package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/harvest/internal/config"
	"github.com/mamadbah2/harvest/internal/repository/blob"
	"github.com/mamadbah2/harvest/internal/repository/mongodb"
	"github.com/mamadbah2/harvest/internal/scheduler"
	"github.com/mamadbah2/harvest/internal/server/handlers"
	"github.com/mamadbah2/harvest/internal/server/router"
	backupsvc "github.com/mamadbah2/harvest/internal/service/backup"
	harvestsvc "github.com/mamadbah2/harvest/internal/service/harvest"
	referencesvc "github.com/mamadbah2/harvest/internal/service/reference"
	"github.com/mamadbah2/harvest/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := blob.NewGCSStore(context.Background(), cfg.Storage, baseLogger.Named("repo.blob"))
	if err != nil {
		baseLogger.Fatal("failed to init storage client", zap.Error(err))
	}
	baseLogger.Info("storage client initialized", zap.String("bucket", cfg.Storage.Bucket))

	var audit harvestsvc.AuditSink
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		audit = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, submission audit disabled")
	}

	harvestSvc := harvestsvc.NewService(store, cfg.Storage.HarvestFile, audit, baseLogger.Named("svc.harvest"))
	referenceSvc := referencesvc.NewService(store, referencesvc.Files{
		Names:     cfg.Storage.NamesFile,
		Locations: cfg.Storage.LocationsFile,
		Crops:     cfg.Storage.CropsFile,
	}, baseLogger.Named("svc.reference"))

	if cfg.Backup.Enabled() {
		backupSvc := backupsvc.NewService(store, cfg.Storage.HarvestFile, cfg.Backup.Prefix, baseLogger.Named("svc.backup"))
		sched, err := scheduler.NewScheduler(cfg.Backup, backupSvc, baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	harvestHandler := handlers.NewHarvestHandler(harvestSvc, baseLogger.Named("handlers.harvest"))
	referenceHandler := handlers.NewReferenceHandler(referenceSvc, baseLogger.Named("handlers.reference"))
	engine, err := router.New(harvestHandler, referenceHandler, baseLogger.Named("router"))
	if err != nil {
		baseLogger.Fatal("failed to init router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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
