package config

import "github.com/bobmcallan/splashcheck/internal/common"

// DefaultMarkerXPath matches the guide card heading rendered once the
// English guides are loaded.
const DefaultMarkerXPath = `//h5[contains(concat(' ', normalize-space(@class), ' '), ' card-title ') and contains(., 'Essential Alhambra Guide')]`

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			URL:             "http://localhost:8080/index.html",
			Trigger:         `img[data-lang="en"]`,
			MarkerXPath:     DefaultMarkerXPath,
			NavigateTimeout: "30s",
			MarkerTimeout:   "15s",
			ClickTimeout:    "30s",
		},
		Browser: BrowserConfig{
			Headless:     true,
			NoSandbox:    true,
			WindowWidth:  1280,
			WindowHeight: 720,
			Timeout:      "90s",
		},
		Output: OutputConfig{
			Dir:       "jules-scratch/verification",
			Baseline:  "01_splash_screen.png",
			Localized: "02_main_app_english_filtered.png",
			Error:     "error_screenshot.png",
		},
		Serve: ServeConfig{
			Addr: "localhost:8080",
		},
		Logging: common.LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "logs/splashcheck.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
