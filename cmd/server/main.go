package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"CT-SIGN/internal"
	"CT-SIGN/internal/config"
	"CT-SIGN/internal/handlers"
	"CT-SIGN/internal/limiter"
	"CT-SIGN/internal/render"
	"CT-SIGN/internal/services"
	"CT-SIGN/internal/storage"
	"CT-SIGN/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := internal.InitDB(cfg); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer internal.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var objects services.ObjectStore
	if cfg.GCS.BucketName != "" {
		gcs, err := storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
		if err != nil {
			logger.Error("failed to initialize GCS client", "error", err)
			os.Exit(1)
		}
		defer gcs.Close()
		objects = gcs
	} else {
		logger.Warn("GCS_BUCKET_NAME not set, template sources and PDF archives are disabled")
	}

	renderer, err := newRenderer(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize renderer", "error", err)
		os.Exit(1)
	}

	rdb := limiter.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, logger)
	if rdb != nil {
		defer rdb.Close()
	}
	verifyLimiter := limiter.New(rdb, "verify", cfg.Redis.VerifyAttempts, cfg.Redis.VerifyWindow, logger)

	templateStore := store.NewTemplateStore(internal.DB)
	origin := services.NewOriginResolver(cfg.Audit.IPLookupURL, cfg.Audit.IPLookupTimeout, logger)
	audit := services.NewAuditService(store.NewAuditStore(internal.DB), origin, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		Templates: services.NewTemplateService(templateStore, objects, logger),
		Contracts: services.NewContractService(services.ContractServiceConfig{
			Contracts:       store.NewContractStore(internal.DB),
			Templates:       templateStore,
			Audit:           audit,
			Renderer:        renderer,
			Objects:         objects,
			Limiter:         verifyLimiter,
			SignedURLExpiry: cfg.GCS.SignedURLExpiry,
			Logger:          logger,
		}),
		AllowOrigins:     cfg.Server.AllowOrigins,
		PublicBaseURL:    cfg.Server.BaseURL,
		JWTSecret:        cfg.Auth.JWTSecret,
		AllowDevIdentity: !cfg.Server.IsProduction(),
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newRenderer(cfg *config.Config, logger *slog.Logger) (render.Renderer, error) {
	loc, err := time.LoadLocation(cfg.Renderer.TimeZone)
	if err != nil {
		logger.Warn("unknown display time zone, using UTC", "time_zone", cfg.Renderer.TimeZone, "error", err)
		loc = time.UTC
	}

	switch cfg.Renderer.Engine {
	case "gotenberg":
		logger.Info("rendering PDFs with Gotenberg", "url", cfg.Gotenberg.URL)
		return render.NewGotenbergRenderer(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, loc)
	default:
		return render.NewPDFRenderer(loc), nil
	}
}
