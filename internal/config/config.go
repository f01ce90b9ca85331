package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/splashcheck/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Target  TargetConfig         `toml:"target"`
	Browser BrowserConfig        `toml:"browser"`
	Output  OutputConfig         `toml:"output"`
	Serve   ServeConfig          `toml:"serve"`
	Logging common.LoggingConfig `toml:"logging"`
}

// TargetConfig describes the page under test and the elements the capture
// sequence interacts with.
type TargetConfig struct {
	URL             string `toml:"url"`
	Trigger         string `toml:"trigger"`      // CSS selector clicked to switch language
	MarkerXPath     string `toml:"marker_xpath"` // element that signals localized content
	NavigateTimeout string `toml:"navigate_timeout"`
	MarkerTimeout   string `toml:"marker_timeout"`
	ClickTimeout    string `toml:"click_timeout"`
}

// GetNavigateTimeout parses and returns the page load timeout
func (c *TargetConfig) GetNavigateTimeout() time.Duration {
	return parseDuration(c.NavigateTimeout, 30*time.Second)
}

// GetMarkerTimeout parses and returns the success marker timeout
func (c *TargetConfig) GetMarkerTimeout() time.Duration {
	return parseDuration(c.MarkerTimeout, 15*time.Second)
}

// GetClickTimeout parses and returns the trigger click timeout
func (c *TargetConfig) GetClickTimeout() time.Duration {
	return parseDuration(c.ClickTimeout, 30*time.Second)
}

// BrowserConfig contains headless browser settings.
type BrowserConfig struct {
	Headless     bool   `toml:"headless"`
	NoSandbox    bool   `toml:"no_sandbox"`
	ExecPath     string `toml:"exec_path"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
	Timeout      string `toml:"timeout"` // bound on the whole session
}

// GetTimeout parses and returns the session timeout
func (c *BrowserConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 90*time.Second)
}

// OutputConfig names the artifact directory and files.
type OutputConfig struct {
	Dir       string `toml:"dir"`
	Baseline  string `toml:"baseline"`
	Localized string `toml:"localized"`
	Error     string `toml:"error"`
	Summary   bool   `toml:"summary"`
}

// ServeConfig enables the built-in static server for the page under test.
// An empty Dir disables it.
type ServeConfig struct {
	Dir  string `toml:"dir"`
	Addr string `toml:"addr"`
}

// FlagOverrides carries command-line values; zero values leave config untouched.
type FlagOverrides struct {
	URL      string
	OutDir   string
	Timeout  string
	ServeDir string
	Headful  bool
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> .env -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// A missing .env is the common case.
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies SPLASHCHECK_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SPLASHCHECK_URL"); v != "" {
		config.Target.URL = v
	}
	if v := os.Getenv("SPLASHCHECK_TRIGGER"); v != "" {
		config.Target.Trigger = v
	}
	if v := os.Getenv("SPLASHCHECK_MARKER_XPATH"); v != "" {
		config.Target.MarkerXPath = v
	}
	if v := os.Getenv("SPLASHCHECK_NAVIGATE_TIMEOUT"); v != "" {
		config.Target.NavigateTimeout = v
	}
	if v := os.Getenv("SPLASHCHECK_MARKER_TIMEOUT"); v != "" {
		config.Target.MarkerTimeout = v
	}
	if v := os.Getenv("SPLASHCHECK_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.Headless = b
		}
	}
	if v := os.Getenv("SPLASHCHECK_CHROME_PATH"); v != "" {
		config.Browser.ExecPath = v
	}
	if v := os.Getenv("SPLASHCHECK_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
	if v := os.Getenv("SPLASHCHECK_SERVE_DIR"); v != "" {
		config.Serve.Dir = v
	}
	if v := os.Getenv("SPLASHCHECK_SERVE_ADDR"); v != "" {
		config.Serve.Addr = v
	}
	if v := os.Getenv("SPLASHCHECK_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, f FlagOverrides) {
	if f.URL != "" {
		config.Target.URL = f.URL
	}
	if f.OutDir != "" {
		config.Output.Dir = f.OutDir
	}
	if f.Timeout != "" {
		config.Target.MarkerTimeout = f.Timeout
	}
	if f.ServeDir != "" {
		config.Serve.Dir = f.ServeDir
	}
	if f.Headful {
		config.Browser.Headless = false
	}
}

// Validate returns a list of problems with the configuration. An empty
// list means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	u, err := url.Parse(c.Target.URL)
	switch {
	case c.Target.URL == "":
		issues = append(issues, "target.url is required")
	case err != nil:
		issues = append(issues, fmt.Sprintf("target.url is not a valid URL: %v", err))
	case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file":
		issues = append(issues, fmt.Sprintf("target.url scheme %q is not supported (http, https, file)", u.Scheme))
	}

	if c.Target.Trigger == "" {
		issues = append(issues, "target.trigger is required")
	}
	if c.Target.MarkerXPath == "" {
		issues = append(issues, "target.marker_xpath is required")
	}
	var durationIssues []string
	durationIssues = append(durationIssues, checkDuration("target.navigate_timeout", c.Target.NavigateTimeout)...)
	durationIssues = append(durationIssues, checkDuration("target.marker_timeout", c.Target.MarkerTimeout)...)
	durationIssues = append(durationIssues, checkDuration("target.click_timeout", c.Target.ClickTimeout)...)
	durationIssues = append(durationIssues, checkDuration("browser.timeout", c.Browser.Timeout)...)
	issues = append(issues, durationIssues...)

	// Every step wait must fit inside the session deadline, or a slow step is
	// cut short by it and reported as an unexpected error.
	if len(durationIssues) == 0 {
		steps := c.Target.GetNavigateTimeout() + c.Target.GetClickTimeout() + c.Target.GetMarkerTimeout()
		if session := c.Browser.GetTimeout(); steps >= session {
			issues = append(issues, fmt.Sprintf(
				"target.navigate_timeout + click_timeout + marker_timeout (%s) must be less than browser.timeout (%s)",
				steps, session))
		}
	}

	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		issues = append(issues, "browser.window_width and browser.window_height must be positive")
	}

	names := map[string]string{
		"output.baseline":  c.Output.Baseline,
		"output.localized": c.Output.Localized,
		"output.error":     c.Output.Error,
	}
	seen := make(map[string]bool)
	for _, key := range []string{"output.baseline", "output.localized", "output.error"} {
		name := names[key]
		if name == "" {
			issues = append(issues, key+" is required")
			continue
		}
		if seen[name] {
			issues = append(issues, fmt.Sprintf("%s %q collides with another artifact name", key, name))
		}
		seen[name] = true
	}

	if c.Serve.Dir != "" && c.Serve.Addr == "" {
		issues = append(issues, "serve.addr is required when serve.dir is set")
	}

	return issues
}

func checkDuration(key, value string) []string {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return []string{fmt.Sprintf("%s %q is not a valid duration", key, value)}
	}
	if d <= 0 {
		return []string{fmt.Sprintf("%s must be positive", key)}
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
