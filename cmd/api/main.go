package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/lostfound/internal/auth"
	"github.com/geocoder89/lostfound/internal/cache"
	"github.com/geocoder89/lostfound/internal/config"
	"github.com/geocoder89/lostfound/internal/db"
	httpx "github.com/geocoder89/lostfound/internal/http"
	"github.com/geocoder89/lostfound/internal/observability"
	"github.com/geocoder89/lostfound/internal/repo/postgres"
	"github.com/geocoder89/lostfound/internal/repo/sqlite"
	"github.com/geocoder89/lostfound/internal/security"
	"github.com/geocoder89/lostfound/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// stores is the storage wiring for one DB_DRIVER.
type stores struct {
	items service.ItemStore
	users service.CredentialStore
	ping  func() error
	close func()
}

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "lostfound-api",
			Environment: cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
			SampleRatio: cfg.TraceSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, metrics)
	if err != nil {
		log.Error("storage init failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}

	seedCtx, cancel := config.WithTimeout(ctx, 10*time.Second)
	err = db.EnsureAdminUser(seedCtx, st.users, security.Bcrypt{}, cfg.AdminUsername, cfg.AdminPassword)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		st.close()
		os.Exit(1)
	}

	listCache, closeCache := newListCache(ctx, cfg)

	tokens := auth.NewManager(cfg.JWTSecret)

	// set up routers
	router := httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		Items:    service.NewItemsService(st.items, listCache, metrics),
		Auth:     service.NewAuthService(st.users, security.Bcrypt{}, tokens),
		Verifier: tokens,
		Ping:     st.ping,
		Metrics:  metrics,
		Gatherer: reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DBDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCtx, cancelShutdown := config.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	// storage goes last so in-flight requests can finish
	closeCache()
	st.close()

	log.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg config.Config, metrics *observability.Prom) (stores, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		database, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return stores{}, err
		}

		if err := db.MigrateSQLite(ctx, database); err != nil {
			database.Close()
			return stores{}, err
		}

		return stores{
			items: sqlite.NewItemsRepo(database, metrics),
			users: sqlite.NewUsersRepo(database, metrics),
			ping:  pinger(database),
			close: func() { _ = database.Close() },
		}, nil

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return stores{}, err
		}

		if err := db.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return stores{}, err
		}

		return stores{
			items: postgres.NewItemsRepo(pool, metrics),
			users: postgres.NewUsersRepo(pool, metrics),
			ping:  poolPinger(pool),
			close: pool.Close,
		}, nil
	}
}

func pinger(database *sql.DB) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return database.PingContext(ctx)
	}
}

func poolPinger(pool *pgxpool.Pool) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// newListCache prefers Redis when configured and reachable, else an in-process cache.
func newListCache(ctx context.Context, cfg config.Config) (cache.ListCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.ListCacheTTL), func() {}
	}

	rc := cache.NewRedis(cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), cfg.ListCacheTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pingCtx); err != nil {
		slog.Warn("redis unreachable, using in-process list cache", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return cache.NewMemory(cfg.ListCacheTTL), func() {}
	}

	return rc, func() { _ = rc.Close() }
}
