package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/internal/config"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg     *config.Config
	Catalog *model.Catalog
	Logger  *zap.Logger
	Ctx     context.Context

	database *postgres.DB
}

// Database connects to the run store on first use and applies pending migrations
func (app *AppContext) Database() (*postgres.DB, error) {
	if app.database != nil {
		return app.database, nil
	}
	if app.Cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("no database configured: set databaseURL or DATABASE_URL")
	}

	app.Logger.Info("Connecting to database")
	database, applied, err := postgres.Open(app.Ctx, app.Cfg.DatabaseURL, int32(app.Cfg.MaxConcurrentRuns))
	if err != nil {
		return nil, err
	}
	for _, filename := range applied {
		app.Logger.Info("Applied migration", zap.String("file", filename))
	}

	app.database = database
	return database, nil
}

// Close releases the database connection if one was opened
func (app *AppContext) Close() {
	if app.database != nil {
		app.database.Close()
		app.database = nil
	}
}
