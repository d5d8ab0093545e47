package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"eventdesk/internal/apiclient"
	"eventdesk/internal/config"
	"eventdesk/internal/database"
	"eventdesk/internal/logging"
	"eventdesk/internal/services"
	"eventdesk/internal/utils"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := utils.LoadEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfgPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dbLevel := logger.Warn
	if database.IsDevelopment() {
		dbLevel = logger.Info
	}
	db, err := database.Init(database.Config{
		Path:     cfg.Storage.DatabasePath,
		LogLevel: dbLevel,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	app := NewApp(log)
	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	stores, err := services.NewStores(cfg, services.StoresOptions{
		DB:      db,
		Backend: apiclient.New(cfg.APIRoot(), cfg.API.Timeout, log),
		Theme:   services.ThemeApplierFunc(app.applyTheme),
		Logger:  log,
	})
	if err != nil {
		return err
	}
	app.stores = stores

	log.Info("starting eventdesk",
		zap.String("config", cfgPath),
		zap.String("api_root", cfg.APIRoot()),
		zap.String("api_keys_backend", cfg.Storage.APIKeysBackend),
	)

	return wails.Run(&options.App{
		Title:  "Eventdesk",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "Eventdesk",
		},
		Logger:           logging.NewWailsLogger(log),
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
}
