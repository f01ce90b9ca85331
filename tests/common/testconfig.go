package common

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// TestConfig holds settings for the browser suites. Values come from
// tests/e2e/test_config.toml when present, then SPLASHCHECK_TEST_* env vars.
type TestConfig struct {
	Results struct {
		Dir string `toml:"dir"`
	} `toml:"results"`
	Site struct {
		URL string `toml:"url"`
	} `toml:"site"`
	Browser struct {
		Headless    bool   `toml:"headless"`
		ExecPath    string `toml:"exec_path"`
		TimeoutSecs int    `toml:"timeout_seconds"`
	} `toml:"browser"`
}

var (
	globalConfig     *TestConfig
	globalConfigOnce sync.Once
	resultsDir       string
	resultsDirOnce   sync.Once
)

func LoadTestConfig() *TestConfig {
	globalConfigOnce.Do(func() {
		globalConfig = &TestConfig{}
		globalConfig.Results.Dir = "tests/results"
		globalConfig.Browser.Headless = true
		globalConfig.Browser.TimeoutSecs = 60

		configPaths := []string{
			filepath.Join(FindProjectRoot(), "tests", "e2e", "test_config.toml"),
			"test_config.toml",
		}
		for _, path := range configPaths {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := toml.Unmarshal(data, globalConfig); err == nil {
				break
			}
		}

		if url := os.Getenv("SPLASHCHECK_TEST_URL"); url != "" {
			globalConfig.Site.URL = url
		}
		if path := os.Getenv("SPLASHCHECK_CHROME_PATH"); path != "" {
			globalConfig.Browser.ExecPath = path
		}
	})
	return globalConfig
}

// FindProjectRoot walks up from the working directory to the go.mod.
func FindProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// FixtureSiteDir is the directory holding the fixture guide app.
func FixtureSiteDir() string {
	return filepath.Join(FindProjectRoot(), "tests", "fixtures", "site")
}

// GetResultsDir returns a timestamped directory for this test process,
// or SPLASHCHECK_TEST_RESULTS_DIR when a wrapper script set one.
func GetResultsDir() string {
	if dir := os.Getenv("SPLASHCHECK_TEST_RESULTS_DIR"); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
		return dir
	}
	resultsDirOnce.Do(func() {
		base := LoadTestConfig().Results.Dir
		if !filepath.IsAbs(base) {
			base = filepath.Join(FindProjectRoot(), base)
		}
		resultsDir = filepath.Join(base, time.Now().Format("2006-01-02-15-04-05"))
		if err := os.MkdirAll(resultsDir, 0755); err != nil {
			panic("failed to create results dir: " + err.Error())
		}
	})
	return resultsDir
}

// GetScreenshotDir returns a per-test subdirectory of the results dir.
func GetScreenshotDir(subdir string) string {
	dir := filepath.Join(GetResultsDir(), subdir)
	os.MkdirAll(dir, 0755)
	return dir
}
