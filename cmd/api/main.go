package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "landlord_reviews/internal/adapters/http_server"
	"landlord_reviews/internal/adapters/observability"
	redisad "landlord_reviews/internal/adapters/redis"
	"landlord_reviews/internal/app"
	"landlord_reviews/internal/domain"
	"landlord_reviews/internal/shared"
	"landlord_reviews/internal/storage/memory"
	mongorepo "landlord_reviews/internal/storage/mongo"
	mysqlrepo "landlord_reviews/internal/storage/mysql"
)

// store is what the API needs from a backend: the repository plus a liveness probe.
type store interface {
	domain.ReviewRepository
	domain.Pinger
}

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	repo, closeStore := openStore(ctx, cfg)
	defer closeStore()

	// cache is optional; keep the interface nil when it is off
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; lookups will fall through to the store")
		}
		cancel()
		cache = rc
	}

	reviews := app.NewReviewService(repo, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.CORSOrigins())
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: reviews, Store: repo})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg shared.Config) (store, func()) {
	switch cfg.StoreDriver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")

		repo := mysqlrepo.New(db)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		return repo, func() { _ = db.Close() }

	case "mongo":
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		repo, err := mongorepo.Connect(cctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connect failed")
		}
		if err := repo.Ping(cctx); err != nil {
			log.Fatal().Err(err).Msg("mongo ping failed")
		}
		if err := repo.Migrate(cctx); err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("mongo connection ok")
		return repo, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = repo.Close(dctx)
		}

	default:
		log.Warn().Msg("using in-memory store; reviews are lost on restart")
		s := memory.New()
		return s, func() { _ = s.Close() }
	}
}
