package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)

	if code != exitOK {
		t.Errorf("expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "splashcheck version ") {
		t.Errorf("unexpected version output %q", stdout.String())
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-bogus"}, &stdout, &stderr)

	if code != exitConfig {
		t.Errorf("expected exit %d, got %d", exitConfig, code)
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", "/nonexistent/splashcheck.toml"}, &stdout, &stderr)

	if code != exitConfig {
		t.Errorf("expected exit %d, got %d", exitConfig, code)
	}
	if !strings.Contains(stderr.String(), "failed to load configuration") {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[target]\nurl = \"ftp://example.com\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-c", path, "-timeout", "never"}, &stdout, &stderr)

	if code != exitConfig {
		t.Errorf("expected exit %d, got %d", exitConfig, code)
	}
	for _, want := range []string{"target.url scheme", "target.marker_timeout"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("expected %q in stderr, got %q", want, stderr.String())
		}
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be printed to stdout, got %q", stdout.String())
	}
}

func TestConfigSearchPaths_Deduplicated(t *testing.T) {
	paths := configSearchPaths()
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, _ := filepath.Abs(p)
		if seen[abs] {
			t.Errorf("duplicate search path %s", p)
		}
		seen[abs] = true
	}
	if len(paths) == 0 {
		t.Error("expected at least one search path")
	}
}
