// Command splashcheck captures the splash screen and the English guide view
// of the Alhambra guide app for visual review.
//
// Usage:
//
//	splashcheck
//	splashcheck -url http://localhost:8080/index.html -out jules-scratch/verification
//	splashcheck -serve ./dist -timeout 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bobmcallan/splashcheck/internal/app"
	"github.com/bobmcallan/splashcheck/internal/capture"
	"github.com/bobmcallan/splashcheck/internal/common"
	"github.com/bobmcallan/splashcheck/internal/config"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("splashcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configFiles configPaths
		overrides   config.FlagOverrides
		showVersion bool
	)
	fs.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	fs.Var(&configFiles, "c", "Configuration file path (shorthand)")
	fs.StringVar(&overrides.URL, "url", "", "Page under test (overrides config)")
	fs.StringVar(&overrides.OutDir, "out", "", "Screenshot output directory (overrides config)")
	fs.StringVar(&overrides.Timeout, "timeout", "", "Success marker timeout, e.g. 15s (overrides config)")
	fs.StringVar(&overrides.ServeDir, "serve", "", "Serve this directory as the page under test")
	fs.BoolVar(&overrides.Headful, "headful", false, "Show the browser window")
	fs.BoolVar(&showVersion, "version", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	common.LoadVersionFromFile()
	if showVersion {
		fmt.Fprintf(stdout, "splashcheck version %s\n", common.GetFullVersion())
		return exitOK
	}

	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitConfig
	}
	config.ApplyFlagOverrides(cfg, overrides)

	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Configuration error:")
		for _, issue := range issues {
			fmt.Fprintf(stderr, "  - %s\n", issue)
		}
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Values can be set via TOML file, SPLASHCHECK_* environment variables, or CLI flags.")
		return exitConfig
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Info().
		Str("url", cfg.Target.URL).
		Str("out", cfg.Output.Dir).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Msg("configuration loaded")

	application, err := app.New(cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize: %v\n", err)
		return exitConfig
	}

	res, err := application.Verify(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "verification setup failed: %v\n", err)
		return exitFailed
	}

	if err := capture.WriteReport(stdout, res); err != nil {
		logger.Error().Err(err).Msg("failed to write report")
	}
	if !res.OK() {
		return exitFailed
	}
	return exitOK
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
func configSearchPaths() []string {
	candidates := []string{
		"splashcheck.toml",
		"config/splashcheck.toml",
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "splashcheck.toml"),
		filepath.Join(binDir, "config", "splashcheck.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
