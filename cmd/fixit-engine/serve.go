package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fixitpro/fixit-engine/internal/api"
	"github.com/fixitpro/fixit-engine/internal/config"
	"github.com/fixitpro/fixit-engine/internal/health"
	"github.com/fixitpro/fixit-engine/internal/scheduler"
	"github.com/fixitpro/fixit-engine/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine with its scheduler, read API and health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	app, err := buildEngine()
	if err != nil {
		return err
	}
	defer app.close()

	loc, err := cfg.ScheduleLocation()
	if err != nil {
		return err
	}

	hub := api.NewHub(appLogger)
	defer hub.Close()
	app.orchestrator.OnStatus(hub.Broadcast)

	sched := scheduler.NewScheduler(app.orchestrator, loc, appLogger,
		scheduler.WithSkipError(service.ErrRefreshInProgress),
	)
	if err := sched.ScheduleDaily(cfg.Schedule.Times); err != nil {
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	handler := api.NewHandler(app.facade, app.orchestrator, hub, api.HandlerConfig{
		Ctx:            ctx,
		DefaultTop:     cfg.Engine.TopLeagues,
		NextRun:        sched.NextRun,
		AllowedOrigins: cfg.Server.CORSOrigins,
	}, appLogger)

	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: config.Seconds(cfg.Server.RequestTimeoutSeconds),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, appLogger)

	apiServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Addr:        ":" + strconv.Itoa(cfg.Server.HealthPort),
		Logger:      appLogger,
		Checks: map[string]health.Checker{
			"refresh": health.CheckFunc(func(context.Context) error {
				if !app.orchestrator.HasSucceeded() {
					return errors.New(app.facade.LastUpdated())
				}
				return nil
			}),
			"scheduler": health.CheckFunc(func(context.Context) error {
				if !sched.IsRunning() {
					return errors.New("scheduler not running")
				}
				return nil
			}),
		},
		StatusLine: app.facade.LastUpdated,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.WithField("addr", apiServer.Addr).Info("API server starting")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if err := sched.Start(cfg.Schedule.RunOnStart); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	healthServer.SetReady(true)

	appLogger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"next_run":    sched.NextRun().Format(time.RFC3339),
	}).Info("FixIt engine running")

	select {
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	case err := <-serveErr:
		appLogger.WithError(err).Error("API server failed")
	}

	// the health server follows ctx down on its own
	healthServer.SetReady(false)
	if err := sched.Stop(); err != nil {
		appLogger.WithError(err).Warn("Scheduler did not stop cleanly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("API server shutdown error")
	}

	appLogger.Info("FixIt engine stopped")
	return nil
}
