// Package config handles configuration for calabash-bridge.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/calabash-bridge/pkg/core"
)

// DefaultEndpoint is where the Calabash server listens unless told otherwise.
const DefaultEndpoint = "http://localhost:37265"

// DefaultPauseTime is the settle pause applied after gestures and text entry.
const DefaultPauseTime = time.Second

// ScreenshotListener is invoked whenever the remote side reports a captured
// screenshot.
type ScreenshotListener interface {
	ScreenshotTaken(path, imageType, fileName string)
}

// ScreenshotListenerFunc adapts a function to ScreenshotListener.
type ScreenshotListenerFunc func(path, imageType, fileName string)

// ScreenshotTaken calls f.
func (f ScreenshotListenerFunc) ScreenshotTaken(path, imageType, fileName string) {
	f(path, imageType, fileName)
}

// WaitDefaults are the bridge-wide values used when a wait leaves an option unset.
type WaitDefaults struct {
	Timeout           time.Duration `yaml:"timeout"`
	RetryFrequency    time.Duration `yaml:"retryFrequency"`
	PostTimeout       time.Duration `yaml:"postTimeout"`
	TimeoutMessage    string        `yaml:"timeoutMessage"`
	ScreenshotOnError *bool         `yaml:"screenshotOnError"`
}

// Config represents the bridge configuration (config.yaml).
type Config struct {
	// Directories
	ScreenshotsDir string `yaml:"screenshotsDir"` // Defaults to the working directory
	LogsDir        string `yaml:"logsDir"`        // Empty uses <home>/logs
	PlaybackDir    string `yaml:"playbackDir"`    // Recorded event files

	// Device settings
	Device                string `yaml:"device"`       // ios, ipad, iphone
	DeviceTarget          string `yaml:"deviceTarget"` // simulator or device UDID
	AppBundlePath         string `yaml:"appBundlePath"`
	Endpoint              string `yaml:"endpoint"`
	NoLaunch              bool   `yaml:"noLaunch"`
	OS                    string `yaml:"os"` // e.g. ios7; derived from server version when empty
	BundleID              string `yaml:"bundleId"`
	SDKVersion            string `yaml:"sdkVersion"`
	DetectConnectedDevice bool   `yaml:"detectConnectedDevice"`
	Debug                 bool   `yaml:"debug"`

	// Timing
	PauseTime      time.Duration `yaml:"pauseTime"` // Negative means DefaultPauseTime
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	Wait           WaitDefaults  `yaml:"wait"`

	ScreenshotListener ScreenshotListener `yaml:"-"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	screenshot := true
	return &Config{
		Endpoint:       DefaultEndpoint,
		PauseTime:      -1,
		RequestTimeout: 60 * time.Second,
		Wait: WaitDefaults{
			Timeout:           30 * time.Second,
			RetryFrequency:    300 * time.Millisecond,
			TimeoutMessage:    "Timed out waiting...",
			ScreenshotOnError: &screenshot,
		},
	}
}

// Load loads configuration from a file. Keys missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.ScreenshotsDir, &c.LogsDir, &c.PlaybackDir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return core.ErrInvalidConfig.WithCause(err).WithDetails(map[string]interface{}{"path": *p})
		}
		*p = expanded
	}
	return nil
}

// Pause returns the effective settle pause.
func (c *Config) Pause() time.Duration {
	if c == nil || c.PauseTime < 0 {
		return DefaultPauseTime
	}
	return c.PauseTime
}

// Screenshots returns the screenshot directory, falling back to the working directory.
func (c *Config) Screenshots() string {
	if c != nil && c.ScreenshotsDir != "" {
		return c.ScreenshotsDir
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// LoggingEnabled reports whether a logs directory is configured explicitly.
func (c *Config) LoggingEnabled() bool {
	return c != nil && c.LogsDir != ""
}

// Validate checks directories and the endpoint. Failures are setup errors
// and are never retried.
func (c *Config) Validate() error {
	if err := c.expandPaths(); err != nil {
		return err
	}

	dirs := []struct {
		name string
		path string
	}{
		{"screenshotsDir", c.ScreenshotsDir},
		{"logsDir", c.LogsDir},
		{"playbackDir", c.PlaybackDir},
	}
	for _, d := range dirs {
		if d.path == "" {
			continue
		}
		if err := checkWritableDir(d.path); err != nil {
			return core.ErrInvalidConfig.
				WithMessage(fmt.Sprintf("%s %s", d.path, err.Error())).
				WithDetails(map[string]interface{}{"field": d.name})
		}
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("invalid device endpoint %q", c.Endpoint)).
			WithDetails(map[string]interface{}{"field": "endpoint"})
	}

	if c.Wait.RetryFrequency < 0 || c.Wait.Timeout < 0 || c.Wait.PostTimeout < 0 {
		return core.ErrInvalidConfig.WithMessage("wait durations must not be negative")
	}

	return nil
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("is invalid")
	}
	f, err := os.CreateTemp(path, ".calabash-write-*")
	if err != nil {
		return fmt.Errorf("is not writable")
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// Env renders the configuration as the environment the automation server
// expects at launch.
func (c *Config) Env() map[string]string {
	env := map[string]string{
		"DETECT_CONNECTED_DEVICE": "0",
		"SCREENSHOT_PATH":         c.Screenshots() + "/",
	}
	if c.Device != "" {
		env["DEVICE"] = c.Device
	}
	if c.DeviceTarget != "" {
		env["DEVICE_TARGET"] = c.DeviceTarget
	}
	if c.AppBundlePath != "" {
		env["APP_BUNDLE_PATH"] = c.AppBundlePath
	}
	if c.Endpoint != "" {
		env["DEVICE_ENDPOINT"] = c.Endpoint
	}
	if c.NoLaunch {
		env["NO_LAUNCH"] = "1"
	}
	if c.PlaybackDir != "" {
		env["PLAYBACK_DIR"] = c.PlaybackDir
	}
	if c.OS != "" {
		env["OS"] = c.OS
	}
	if c.BundleID != "" {
		env["BUNDLE_ID"] = c.BundleID
	}
	if c.SDKVersion != "" {
		env["SDK_VERSION"] = c.SDKVersion
	}
	if c.DetectConnectedDevice {
		env["DETECT_CONNECTED_DEVICE"] = "1"
	}
	if c.Debug {
		env["DEBUG"] = "1"
		env["CALABASH_FULL_CONSOLE_OUTPUT"] = "1"
		env["DEBUG_HTTP"] = "1"
	}
	return env
}
