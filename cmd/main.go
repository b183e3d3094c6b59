package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"predictive_maintenance/internal/client"
	"predictive_maintenance/internal/config"
	"predictive_maintenance/internal/geo"
	"predictive_maintenance/internal/handlers"
	"predictive_maintenance/internal/logger"
	"predictive_maintenance/internal/pipeline"
	"predictive_maintenance/internal/report"
	"predictive_maintenance/internal/repository"
	"predictive_maintenance/internal/repository/db"
	"predictive_maintenance/internal/server"
	"predictive_maintenance/internal/service"
)

func main() {
	// load configs/config.yml, .env and PDM_* overrides
	cfg, err := config.Load(os.Getenv("PDM_CONFIG"))
	if err != nil {
		logger.Get(logger.Options{Level: logger.InfoLevel}).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)
	backend := client.NewBackend(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout)

	p, err := pipeline.New(pipeline.Deps{
		Predictor: backend,
		Insights:  backend,
		Renderer:  report.NewGenerator(),
		Store:     backend,
		Alerts:    backend,
		Mailer:    backend,
		Chat:      backend,
		Events:    repos.EventRepo,
	}, pipeline.Options{
		Schema:       cfg.Schema(),
		DefaultEmail: cfg.Notify.DefaultEmail,
		DefaultPhone: cfg.Notify.DefaultPhone,
		TaskTimeout:  cfg.Pipeline.TaskTimeout,
		NoticeTTL:    cfg.Pipeline.NoticeTTL,
		Logger:       log,
	})
	if err != nil {
		log.Fatalw("failed to build pipeline", "err", err)
	}

	services := service.NewService(repos, service.Options{
		Auth:            service.AuthOptions{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Pipeline:        p,
		Schema:          cfg.Schema(),
		Centers:         centerFinder(cfg, backend, log),
		DefaultLocation: cfg.Maps.DefaultLocation,
		DefaultRadiusM:  cfg.Maps.DefaultRadiusM,
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// expire notices
	go services.Sweeper.Run(ctx, cfg.Pipeline.SweepInterval)

	srv := server.New(server.Options{WriteTimeout: cfg.Server.WriteTimeout})
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, p, cfg.Server.ShutdownTimeout, log)
}

// centerFinder prefers the Places API when a key is configured; otherwise
// the backend proxies the search.
func centerFinder(cfg *config.Config, backend *client.Backend, log *logger.Logger) service.CenterFinder {
	if cfg.Maps.APIKey == "" {
		log.Infow("maps.api_key not set; using backend service-centers proxy")
		return backend
	}
	return geo.NewPlacesClient(cfg.Maps.PlacesURL, cfg.Maps.APIKey, cfg.Backend.RequestTimeout)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_server_starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, p *pipeline.Pipeline, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the sweeper, then end websocket streams
	cancel()
	p.Close()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	_ = log.Sync()
}
