// Package cli provides the command-line interface for calabash-bridge.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: ./config.yaml if present)",
		EnvVars: []string{"CALABASH_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "endpoint",
		Usage:   "Calabash server URL",
		EnvVars: []string{"CALABASH_ENDPOINT", "DEVICE_ENDPOINT"},
	},
	&cli.StringFlag{
		Name:    "device",
		Usage:   "Device family (iphone, ipad)",
		EnvVars: []string{"CALABASH_DEVICE", "DEVICE"},
	},
	&cli.StringFlag{
		Name:    "os",
		Usage:   "OS key for recordings, e.g. ios7 (default: from server version)",
		EnvVars: []string{"CALABASH_OS", "OS"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable debug logging",
		EnvVars: []string{"CALABASH_VERBOSE"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write logs to this file",
		EnvVars: []string{"CALABASH_LOG_FILE"},
	},
	&cli.DurationFlag{
		Name:    "pause",
		Usage:   "Settle pause after gestures and text entry",
		Value:   -1,
		EnvVars: []string{"CALABASH_PAUSE"},
	},
}

// NewApp builds the application, writing results to out.
func NewApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "calabash-bridge",
		Usage:   "Drive an iOS app through a Calabash server",
		Version: Version,
		Description: `calabash-bridge sends queries, gestures and waits to a running
Calabash server and prints the results as YAML.

Examples:
  calabash-bridge query "button marked:'Login'"
  calabash-bridge touch "button marked:'Login'"
  calabash-bridge wait --timeout 10s "view marked:'Home'"
  calabash-bridge --endpoint http://192.168.1.20:37265 version`,
		Flags:  GlobalFlags,
		Writer: out,
		Commands: []*cli.Command{
			versionCommand,
			queryCommand,
			touchCommand,
			flashCommand,
			existsCommand,
			waitCommand,
			screenshotCommand,
			textCommand,
			playbackCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
