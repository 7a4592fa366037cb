package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/cmd/cli/commands"
	"github.com/jakechorley/camp-scheduler/internal/config"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/input"
	"github.com/jakechorley/camp-scheduler/pkg/utils/logging"
)

var (
	env        string
	configPath string
	verbose    bool
	app        = &commands.AppContext{}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	app.Ctx = ctx

	rootCmd := &cobra.Command{
		Use:   "camp-scheduler",
		Short: "Camp Scheduler CLI - Build weekly troop activity schedules",
		Long:  `A CLI tool that allocates camp activities to troops for a week, repairs the result, and reports on it.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects scheduler_config_<env>.yaml)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(commands.GenerateCmd(app))
	rootCmd.AddCommand(commands.RunsCmd(app))
	rootCmd.AddCommand(commands.CatalogCmd(app))
	rootCmd.AddCommand(commands.WeeksCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and catalog
func initApp() error {
	var err error

	// Initialize logger
	app.Logger, _, err = logging.New(logging.Options{Env: env, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Starting application", zap.String("environment", env))

	// Load configuration
	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.LoadWithEnv(env)
		if errors.Is(err, config.ErrConfigNotFound) {
			app.Logger.Info("No config file found, using defaults")
			app.Cfg, err = config.Default()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("fill_policy", app.Cfg.FillPolicy),
		zap.Int("max_repair_rounds", app.Cfg.MaxRepairRounds))

	// Load catalog
	if app.Cfg.CatalogFile != "" {
		app.Logger.Info("Loading catalog", zap.String("file", app.Cfg.CatalogFile))
		app.Catalog, err = input.LoadCatalog(app.Cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
	} else {
		app.Catalog = model.DefaultCatalog()
	}
	app.Logger.Debug("Catalog loaded", zap.Int("activities", len(app.Catalog.Activities())))

	return nil
}
