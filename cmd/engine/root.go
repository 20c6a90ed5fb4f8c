package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/logger"
)

var (
	// cfgFile overrides the config file inside the data dir.
	cfgFile string
	dataDir string
	debug   bool

	rootCmd = &cobra.Command{
		Use:           "signalsdr",
		Short:         "Hiring and prospect signal detection for outbound sales",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default <data-dir>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default $SIGNALSDR_DATA_DIR or ./data)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newRunCommand(),
		newHistoryCommand(),
		newServeCommand(),
		newConfigCommand(),
		newDraftsCommand(),
		newKeysCommand(),
	)
}

// app is what every subcommand needs after startup.
type app struct {
	cfg     config.Config
	cfgPath string
	dataDir string
	log     *zap.Logger
}

func (a *app) statePath() string { return filepath.Join(a.dataDir, "db.json") }
func (a *app) dbPath() string    { return filepath.Join(a.dataDir, "signalsdr.db") }

func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if d := os.Getenv("SIGNALSDR_DATA_DIR"); d != "" {
		return d
	}
	return "data"
}

// loadConfig bootstraps the user config and loads it without validating.
func loadConfig() (config.Config, string, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.EnsureUserConfig(resolveDataDir(), filepath.Join("config", "config.yml"))
		if err != nil {
			return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return cfg, path, nil
}

// setup loads, normalizes and validates config and builds the logger.
func setup() (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		return nil, fmt.Errorf("invalid config %s: %v", path, vr.Errors)
	}

	level := cfg.App.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.New(level, debug)
	if err != nil {
		return nil, err
	}
	for _, w := range vr.Warnings {
		log.Warn("config", zap.String("warning", w))
	}

	dir := resolveDataDir()
	if dataDir == "" && os.Getenv("SIGNALSDR_DATA_DIR") == "" && cfg.App.DataDir != "" {
		dir = cfg.App.DataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &app{cfg: cfg, cfgPath: path, dataDir: dir, log: log}, nil
}
