package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"weatherclassifier/internal/config"
	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/metrics"
	"weatherclassifier/internal/repository/sqlite"
	"weatherclassifier/internal/routes"
	"weatherclassifier/internal/services"
	"weatherclassifier/internal/services/ai"
	"weatherclassifier/internal/services/classifier"
	"weatherclassifier/internal/services/history"
	"weatherclassifier/internal/services/labels"
	"weatherclassifier/internal/services/retention"
	"weatherclassifier/internal/services/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	model      *ai.NetModel
	hubService *websocket.HubService
	retention  *retention.Scheduler
	manager    *services.Manager
}

// NewApp wires configuration, storage, the classifier and background services.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	repo := sqlite.NewAnalysisRepository(db, sqlite.WithLocation(cfg.Location))
	if err := repo.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	classes, err := labels.FromDirectory(cfg.DataDirectory, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Class labels (%s): %v", classes.Source, classes.Names)

	netModel, err := ai.LoadNetModel(cfg.ModelPath, cfg.ModelConfigPath, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	pipeline, err := classifier.New(
		ai.NewPreprocessor(cfg.ImageSize),
		netModel,
		repo,
		classes.Names,
		classifier.WithThreshold(cfg.LowConfidenceThreshold),
		classifier.WithLocation(cfg.Location),
		classifier.WithLogger(log),
	)
	if err != nil {
		netModel.Close()
		db.Close()
		return nil, err
	}

	hub := websocket.NewHubService(log)
	scheduler := retention.New(repo, cfg.RetentionDays, cfg.RetentionSchedule, cfg.Location, log)
	historyService := history.NewService(repo, cfg.ExportDirectory, log)

	metrics.Init()

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		model:      netModel,
		hubService: hub,
		retention:  scheduler,
		manager:    services.NewManager(pipeline, historyService, hub, scheduler, log),
	}, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	if err := a.retention.Start(); err != nil {
		return err
	}
	go a.hubService.Run()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           routes.SetupRoutes(a.manager, a.config, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Weather Classifier Server\n")
	fmt.Printf("URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("Model: %s\n", a.config.ModelPath)
	fmt.Printf("History: %s\n", a.config.DatabasePath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		a.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		a.logger.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := server.Shutdown(ctx)
	a.close()
	return err
}

func (a *App) close() {
	a.manager.Stop()
	a.model.Close()
	a.db.Close()
	a.logger.Close()
}
