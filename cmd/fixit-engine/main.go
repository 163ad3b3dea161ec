// Package main provides the entry point for the FixIt picks engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fixitpro/fixit-engine/internal/config"
	"github.com/fixitpro/fixit-engine/internal/datasource"
	"github.com/fixitpro/fixit-engine/internal/logger"
	"github.com/fixitpro/fixit-engine/internal/metrics"
	"github.com/fixitpro/fixit-engine/internal/picks"
	"github.com/fixitpro/fixit-engine/internal/service"
	"github.com/fixitpro/fixit-engine/internal/store"
	"github.com/fixitpro/fixit-engine/internal/tracker"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	appLogger  *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "fixit-engine",
	Short: "Daily football picks engine",
	Long:  `Fetches fixtures, odds and predictions, ranks the next-day shortlist and tracks pick results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fixit-engine %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle and print the shortlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildEngine()
		if err != nil {
			return err
		}
		defer app.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		refreshErr := app.orchestrator.Refresh(ctx)
		if m, ok := app.orchestrator.LastMetrics(); ok {
			appLogger.Info(m.String())
		}
		if refreshErr != nil {
			return fmt.Errorf("refresh failed: %w", refreshErr)
		}
		return printJSON(app.facade.Picks())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print accumulated results and top leagues",
	RunE: func(cmd *cobra.Command, args []string) error {
		resultTracker := loadTracker()

		stats := resultTracker.Stats()
		fmt.Printf("Stats file:   %s\n", resultTracker.Path())
		fmt.Printf("Won:          %d\n", stats.Wins)
		fmt.Printf("Lost:         %d\n", stats.Losses)
		fmt.Printf("Success rate: %.1f%%\n", stats.SuccessRate())
		fmt.Println("Top leagues:")
		for i, l := range resultTracker.TopLeagues(cfg.Engine.TopLeagues) {
			fmt.Printf("  %d. %s (%d)\n", i+1, l.Name, l.Wins)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	// A missing .env is fine; the environment may already carry the key
	_ = godotenv.Load()

	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if ctx == nil {
			ctx = context.Background()
		}
		if err := config.LoadSecretsFromAWS(ctx, loaded, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(loaded); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = loaded
	appLogger = logger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)
	if !cfg.HasAPIKey() {
		entry := appLogger.WithField("environment", cfg.App.Environment)
		if cfg.IsProduction() {
			entry.Error("No API-Football key configured; refresh cycles will fail until one is set")
		} else {
			entry.Warn("No API-Football key configured; refresh cycles will fail until one is set")
		}
	}
	return nil
}

// engine holds the wired core components
type engine struct {
	source       datasource.DataSource
	store        *store.MatchStore
	tracker      *tracker.Tracker
	selector     *picks.Selector
	orchestrator *service.Orchestrator
	facade       *service.Facade
}

func buildEngine() (*engine, error) {
	metrics.InitRegistry()

	resultTracker := loadTracker()

	source, err := datasource.NewFromConfig(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}

	zone := cfg.ReferenceZone()
	selCfg := picks.DefaultSelectorConfig()
	selCfg.Zone = zone
	selCfg.ConfidenceFloor = cfg.Engine.ConfidenceFloor
	selCfg.MaxPicks = cfg.Engine.MaxPicks
	selCfg.EarlyCutoffHour = cfg.Engine.EarlyCutoffHour
	selCfg.FullScan = cfg.Engine.FullScan
	if cfg.Engine.DefaultAdvice != "" {
		selCfg.DefaultAdvice = cfg.Engine.DefaultAdvice
	}
	selector := picks.NewSelector(selCfg, appLogger)

	matchStore := store.New()
	orchestrator := service.NewOrchestrator(source, matchStore, selector, resultTracker, service.OrchestratorConfig{
		Zone:             zone,
		DayOffsets:       cfg.Engine.FetchDayOffsets,
		PredictionLimit:  cfg.APIFootball.PredictionLimit,
		APIKeyConfigured: cfg.HasAPIKey(),
	}, appLogger)

	return &engine{
		source:       source,
		store:        matchStore,
		tracker:      resultTracker,
		selector:     selector,
		orchestrator: orchestrator,
		facade:       service.NewFacade(matchStore, resultTracker, orchestrator, selector.Window(), cfg.PriorityLeagues()),
	}, nil
}

// loadTracker opens the stats document. A missing or corrupt file starts a
// zeroed document.
func loadTracker() *tracker.Tracker {
	resultTracker := tracker.New(cfg.Engine.StatsFile, cfg.Engine.StatsRetainDays, appLogger)
	if err := resultTracker.Load(); err != nil && errors.Is(err, fs.ErrNotExist) {
		appLogger.WithField("path", resultTracker.Path()).Info("No stats document yet, starting from zero")
	}
	return resultTracker
}

// close releases the data source connections
func (e *engine) close() {
	if err := e.source.Close(); err != nil {
		appLogger.WithError(err).Warn("Data source did not close cleanly")
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
