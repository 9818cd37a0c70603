package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zaqqye/institute_backend/internal/config"
	"github.com/zaqqye/institute_backend/internal/database"
	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/metrics"
	"github.com/zaqqye/institute_backend/internal/middleware"
	"github.com/zaqqye/institute_backend/internal/routes"
	"github.com/zaqqye/institute_backend/internal/storage"
	"github.com/zaqqye/institute_backend/internal/store"
	"github.com/zaqqye/institute_backend/internal/ws"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	if err := database.SeedAdmin(db, cfg); err != nil {
		logger.Fatal().Err(err).Msg("admin seed failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seq, err := store.NewStudentStore(db).SyncSequence(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("student sequence sync failed")
	}
	logger.Info().Int64("value", seq).Msg("student sequence ready")

	files, err := storage.NewLocalStorage(cfg.UploadDir, "/uploads", cfg.UploadMaxBytes())
	if err != nil {
		logger.Fatal().Err(err).Msg("upload storage unavailable")
	}

	hubs := ws.NewHubs()
	go hubs.Dashboard.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware())
	r.MaxMultipartMemory = cfg.UploadMaxBytes() + 1<<20
	routes.Register(r, db, cfg, hubs, files)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server exited with error")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
