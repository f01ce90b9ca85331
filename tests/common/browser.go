package common

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/bobmcallan/splashcheck/internal/capture"
)

// chromeNames mirrors the binaries chromedp's allocator looks for.
var chromeNames = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"google-chrome-beta",
	"google-chrome-unstable",
}

// ChromePath returns the configured or discovered browser binary, or "".
func ChromePath() string {
	if p := LoadTestConfig().Browser.ExecPath; p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}
	for _, name := range chromeNames {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// RequireChrome skips the test when no browser binary is available.
func RequireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in -short mode")
	}
	if ChromePath() == "" {
		t.Skip("no Chrome/Chromium binary found; set SPLASHCHECK_CHROME_PATH")
	}
}

// BrowserOptions returns session options for the test browser.
func BrowserOptions() capture.BrowserOptions {
	cfg := LoadTestConfig()
	return capture.BrowserOptions{
		Headless:  cfg.Browser.Headless,
		NoSandbox: true,
		ExecPath:  cfg.Browser.ExecPath,
		Width:     1280,
		Height:    720,
		Timeout:   time.Duration(cfg.Browser.TimeoutSecs) * time.Second,
	}
}

// CheckPNG fails unless path holds a decodable, non-empty PNG image.
func CheckPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read screenshot: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("screenshot %s is not a PNG: %v", path, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Errorf("screenshot %s is empty: %s", path, fmt.Sprint(b))
	}
}
