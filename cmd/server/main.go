package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"freighterp/billing"
	"freighterp/config"
	"freighterp/db"
	"freighterp/db/mongo"
	"freighterp/db/postgres"
	"freighterp/db/redis"
	"freighterp/handlers"
	"freighterp/logger"
	"freighterp/repository"
	"freighterp/routes"
	"freighterp/utils"
)

func main() {
	// Load config from .env or environment
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	// Run migrations (for Postgres)
	if err := db.RunMigrations(cfg.PostgresURL, cfg.MigrationsPath, lg); err != nil {
		lg.Fatal("migrations failed", zap.Error(err))
	}

	var conns []db.DB
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(conns) - 1; i >= 0; i-- {
			if err := conns[i].Disconnect(ctx); err != nil {
				lg.Warn("disconnect", zap.Error(err))
			}
		}
	}()
	connect := func(c db.DB) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return c.Connect(ctx)
	}

	pg := postgres.NewPostgresDB(cfg.PostgresURL)
	if err := connect(pg); err != nil {
		lg.Fatal("postgres connect failed", zap.Error(err))
	}
	conns = append(conns, pg)

	var drafts billing.DraftStore
	switch db.DraftStoreType(cfg.DraftStore) {
	case db.MongoDrafts:
		mg := mongo.NewMongoDB(cfg.MongoURL, cfg.MongoDB)
		if err := connect(mg); err != nil {
			lg.Fatal("mongo connect failed", zap.Error(err))
		}
		conns = append(conns, mg)
		drafts = repository.NewMongoDraftRepo(mg.DB())
	default:
		drafts = billing.NewMemoryDraftStore()
	}
	lg.Info("draft store ready", zap.String("type", cfg.DraftStore))

	var guard billing.InFlightGuard = billing.NewMemoryGuard()
	if cfg.RedisURL != "" {
		rd := redis.NewRedisDB(cfg.RedisURL)
		if err := connect(rd); err != nil {
			lg.Fatal("redis connect failed", zap.Error(err))
		}
		conns = append(conns, rd)
		guard = redis.NewGuard(rd.Client, 0)
		lg.Info("using redis in-flight guard")
	}

	// Repositories
	slabRepo := repository.NewPostgresRateSlabRepo(pg.Conn)
	refRepo := repository.NewPostgresReferenceRepo(pg.Conn)
	entryRepo := repository.NewPostgresDestinationEntryRepo(pg.Conn)
	billRepo := repository.NewPostgresServiceBillRepo(pg.Conn)
	profileRepo := repository.NewPostgresCompanyProfileRepo(pg.Conn)
	store := &repository.BillingStore{
		DestinationEntryRepository: entryRepo,
		ServiceBillRepository:      billRepo,
	}

	pool := billing.NewPool(store)
	reconciler := billing.NewReconciler(pool, store, drafts, guard, lg.Named("reconciler"))

	var uploader *utils.R2Uploader
	if cfg.R2.Enabled() {
		uploader, err = utils.NewR2Uploader(context.Background(), cfg.R2)
		if err != nil {
			lg.Fatal("r2 setup failed", zap.Error(err))
		}
	}

	// Handlers
	h := routes.Handlers{
		RateSlabs: &handlers.RateSlabHandler{Repo: slabRepo, Log: lg},
		Dealers:   &handlers.DealerHandler{Repo: refRepo, Log: lg},
		Entries: &handlers.DestinationEntryHandler{
			Repo:   entryRepo,
			Refs:   refRepo,
			Slabs:  slabRepo,
			Drafts: drafts,
			Pool:   pool,
			Guard:  guard,
			Log:    lg,
		},
		Bills: &handlers.ServiceBillHandler{Reconciler: reconciler, Repo: billRepo, Log: lg},
		Exports: &handlers.PDFHandler{
			Repo:      repository.NewPDFRepository(billRepo, entryRepo, profileRepo),
			Generator: utils.NewPDFGenerator(cfg.TemplateDir),
			Uploader:  uploader,
			SavePath:  cfg.PDFDir,
			Log:       lg,
		},
		Company: &handlers.CompanyProfileHandler{Repo: profileRepo, Log: lg},
	}

	mux := http.NewServeMux()
	routes.SetupRoutes(mux, lg, h, cfg.MetricsEnabled)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server error", zap.Error(err))
			stop()
		}
	}()
	lg.Info("server running", zap.String("port", cfg.Port))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("shutdown", zap.Error(err))
	}
	lg.Info("graceful shutdown complete")
}
