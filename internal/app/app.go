package app

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/splashcheck/internal/capture"
	"github.com/bobmcallan/splashcheck/internal/common"
	"github.com/bobmcallan/splashcheck/internal/config"
	"github.com/bobmcallan/splashcheck/internal/server"
)

// App wires configuration, logging, the optional site server and the
// capture sequencer together.
type App struct {
	Config *config.Config
	Logger *common.Logger

	// opener replaces the chromedp browser when set.
	opener capture.Opener
	// mu serialises runs: they share the output directory and the site address.
	mu sync.Mutex
}

// New initializes the application. A nil opener launches Chrome through chromedp.
func New(cfg *config.Config, logger *common.Logger, opener capture.Opener) (*App, error) {
	if issues := cfg.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &App{Config: cfg, Logger: logger, opener: opener}, nil
}

// Verify runs the capture sequence with the loaded configuration.
func (a *App) Verify(ctx context.Context) (*capture.Result, error) {
	return a.VerifyWith(ctx, config.FlagOverrides{})
}

// VerifyWith runs the capture sequence with per-run overrides applied on
// top of the loaded configuration. The returned error covers setup only;
// capture failures are reported on the Result.
func (a *App) VerifyWith(ctx context.Context, overrides config.FlagOverrides) (*capture.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg := *a.Config
	config.ApplyFlagOverrides(&cfg, overrides)
	if issues := cfg.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(issues, "; "))
	}

	target := Target(&cfg)

	if cfg.Serve.Dir != "" {
		site, err := server.New(cfg.Serve, a.Logger)
		if err != nil {
			return nil, err
		}
		if err := site.Start(); err != nil {
			return nil, err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := site.Shutdown(shutdownCtx); err != nil {
				a.Logger.Warn().Err(err).Msg("site server shutdown failed")
			}
		}()

		rebased, err := rebaseURL(target.URL, site.URL())
		if err != nil {
			return nil, err
		}
		target.URL = rebased
	}

	opener := a.opener
	if opener == nil {
		opener = capture.ChromeOpener(BrowserOptions(&cfg))
	}

	output := Output(&cfg)
	res := capture.NewSequencer(target, output, opener, a.Logger).Run(ctx)
	res.Log = a.Logger.RunLog(res.RunID)

	if cfg.Output.Summary {
		if err := capture.WriteSummary(filepath.Join(output.Dir, "summary.md"), res); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to write summary")
		}
	}
	return res, nil
}

// Target converts the target section of cfg.
func Target(cfg *config.Config) capture.Target {
	return capture.Target{
		URL:             cfg.Target.URL,
		Trigger:         capture.ByCSS(cfg.Target.Trigger),
		Marker:          capture.ByXPath(cfg.Target.MarkerXPath),
		NavigateTimeout: cfg.Target.GetNavigateTimeout(),
		MarkerTimeout:   cfg.Target.GetMarkerTimeout(),
		ClickTimeout:    cfg.Target.GetClickTimeout(),
	}
}

// Output converts the output section of cfg.
func Output(cfg *config.Config) capture.Output {
	return capture.Output{
		Dir:       cfg.Output.Dir,
		Baseline:  cfg.Output.Baseline,
		Localized: cfg.Output.Localized,
		Error:     cfg.Output.Error,
	}
}

// BrowserOptions converts the browser section of cfg.
func BrowserOptions(cfg *config.Config) capture.BrowserOptions {
	return capture.BrowserOptions{
		Headless:  cfg.Browser.Headless,
		NoSandbox: cfg.Browser.NoSandbox,
		ExecPath:  cfg.Browser.ExecPath,
		Width:     cfg.Browser.WindowWidth,
		Height:    cfg.Browser.WindowHeight,
		Timeout:   cfg.Browser.GetTimeout(),
	}
}

// rebaseURL keeps the path and query of target but points it at base.
func rebaseURL(target, base string) (string, error) {
	t, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target url: %w", err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse site url: %w", err)
	}
	t.Scheme = b.Scheme
	t.Host = b.Host
	return t.String(), nil
}
