package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/calabash-bridge/pkg/calabash"
	"github.com/devicelab-dev/calabash-bridge/pkg/config"
	"github.com/devicelab-dev/calabash-bridge/pkg/logger"
	"github.com/devicelab-dev/calabash-bridge/pkg/playback"
)

const logFileName = "calabash-bridge.log"

// loadConfig reads --config (or ./config.yaml) and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v := c.String("device"); v != "" {
		cfg.Device = v
	}
	if v := c.String("os"); v != "" {
		cfg.OS = v
	}
	if c.IsSet("pause") {
		cfg.PauseTime = c.Duration("pause")
	}
	if c.Bool("verbose") {
		cfg.Debug = true
	}
	return cfg, nil
}

// initLogging opens --log-file, else calabash-bridge.log in the configured
// logs directory, else in <home>/logs.
func initLogging(c *cli.Context, cfg *config.Config) {
	logPath := c.String("log-file")
	if logPath == "" {
		dir := config.GetLogsDir()
		if cfg.LoggingEnabled() {
			dir = cfg.LogsDir
		}
		logPath = filepath.Join(dir, logFileName)
	}
	if err := logger.Init(logPath); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: Failed to initialize logger: %v\n", err)
		return
	}
	logger.SetDebug(cfg.Debug)
}

// withBridge connects, runs fn and disposes the bridge. Interrupts cancel
// the context passed to fn.
func withBridge(c *cli.Context, fn func(ctx context.Context, b *calabash.Bridge) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	initLogging(c, cfg)
	defer logger.Close()

	loader, err := playback.NewFileLoader(cfg.PlaybackDir)
	if err != nil {
		return err
	}

	b, err := calabash.Dial(cfg, calabash.WithPlaybackLoader(loader))
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Dispose(); err != nil {
			logger.Warn("Dispose failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Connected to %s", cfg.Endpoint)
	return fn(ctx, b)
}

func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}
