package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"todo-app/api"
	"todo-app/cache"
	"todo-app/common"
	"todo-app/config"
	"todo-app/logger"
	"todo-app/mailer"
	"todo-app/middleware"
	"todo-app/storage"
	"todo-app/storage/sqlite"
	"todo-app/system"
	"todo-app/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "todo-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{File: cfg.LogFile, Level: cfg.LogLevel, Console: true})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.ConfigureJWT(cfg.JWTSecret, cfg.JWTExpires)

	db, err := sqlite.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := sqlite.Migrate(db.DB, db.Dialect, log); err != nil {
		return err
	}

	if cfg.RedisAddr != "" {
		if err := cache.InitRedis(cfg.RedisAddr); err != nil {
			log.Warn("Redis unavailable, cache and rate limiting disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
	}

	clock := clockwork.NewRealClock()
	store := storage.New(db.DB, db.Dialect, clock)

	hub := ws.NewHub(log.Named("ws"))
	go hub.Run(ctx)

	pool := system.NewNotificationWorkerPool(store, hub, cfg.NotifyWorkers, log.Named("notify"))
	pool.Start(ctx)

	scanner := system.NewDueScanner(store, pool, clock, cfg.DueScanInterval, log.Named("due"))
	scanner.Start(ctx)

	h := system.NewHandler(store, pool, mailer.New(cfg.ResendAPIKey, cfg.FromEmail, log.Named("mail")), clock, log)

	router := api.NewRouter(api.Deps{
		Handler:        h,
		Hub:            hub,
		Limiter:        middleware.NewRateLimiter(cache.RedisClient, cfg.APIRateLimit, cfg.RateWindow, middleware.ByUser, log),
		AuthLimiter:    middleware.NewRateLimiter(cache.RedisClient, cfg.RateLimit, cfg.RateWindow, middleware.ByIP, log),
		ResendLimiter:  middleware.NewRateLimiter(cache.RedisClient, 1, time.Minute, middleware.ByEmail, log),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Log:            log.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server is running", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Graceful shutdown failed", zap.Error(err))
	}
	scanner.Stop()
	pool.Stop()
	return nil
}
