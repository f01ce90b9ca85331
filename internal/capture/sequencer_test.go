package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testTarget() Target {
	return Target{
		URL:             "http://localhost:8080/index.html",
		Trigger:         ByCSS(`img[data-lang="en"]`),
		Marker:          ByXPath(`//h5[contains(., 'Essential Alhambra Guide')]`),
		NavigateTimeout: 30 * time.Second,
		MarkerTimeout:   15 * time.Second,
		ClickTimeout:    30 * time.Second,
	}
}

func testOutput(t *testing.T) Output {
	return Output{
		Dir:       filepath.Join(t.TempDir(), "verification"),
		Baseline:  "01_splash_screen.png",
		Localized: "02_main_app_english_filtered.png",
		Error:     "error_screenshot.png",
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRun_Success(t *testing.T) {
	out := testOutput(t)
	page := &fakePage{consoleOnNavigate: []string{"splash ready", "guides loaded"}}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if !res.OK() {
		t.Fatalf("expected success, got %s: %v", res.Kind, res.Err)
	}
	if res.State != StateClosed || res.Terminal != StateVerified {
		t.Errorf("expected closed/verified, got %s/%s", res.State, res.Terminal)
	}
	if page.closes != 1 {
		t.Errorf("expected page closed once, got %d", page.closes)
	}

	want := []string{
		"navigate http://localhost:8080/index.html",
		"screenshot",
		`click css(img[data-lang="en"])`,
		"wait xpath(//h5[contains(., 'Essential Alhambra Guide')])",
		"screenshot",
		"close",
	}
	if strings.Join(page.calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected call order:\n got: %v\nwant: %v", page.calls, want)
	}

	baseline := out.path(RoleBaseline)
	localized := out.path(RoleLocalized)
	if !fileExists(baseline) || !fileExists(localized) {
		t.Fatal("expected baseline and localized screenshots")
	}
	if fileExists(out.path(RoleError)) {
		t.Error("error screenshot must not exist on success")
	}

	b1, _ := os.ReadFile(baseline)
	b2, _ := os.ReadFile(localized)
	if len(b2) == 0 || bytes.Equal(b1, b2) {
		t.Error("localized screenshot should be non-empty and differ from baseline")
	}

	if len(res.Console) != 2 || res.Console[0].Text != "splash ready" || res.Console[1].Text != "guides loaded" {
		t.Errorf("unexpected console entries: %+v", res.Console)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestRun_NavigationFailure(t *testing.T) {
	out := testOutput(t)
	page := &fakePage{navigateErr: errConnRefused}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if res.Kind != KindNavigation {
		t.Fatalf("expected navigation error, got %s", res.Kind)
	}
	if res.Terminal != StateFailed || res.State != StateClosed {
		t.Errorf("expected failed/closed, got %s/%s", res.Terminal, res.State)
	}
	if !strings.Contains(res.Err.Error(), "ERR_CONNECTION_REFUSED") {
		t.Errorf("expected connection failure in error, got %v", res.Err)
	}
	if !errors.Is(res.Err, errConnRefused) {
		t.Error("expected the navigation error to be wrapped")
	}
	if fileExists(out.path(RoleBaseline)) || fileExists(out.path(RoleLocalized)) {
		t.Error("main screenshots must be absent after navigation failure")
	}
	if !fileExists(out.path(RoleError)) {
		t.Error("expected error screenshot")
	}
	if page.closes != 1 {
		t.Errorf("expected page closed once, got %d", page.closes)
	}
}

func TestRun_MarkerTimeout(t *testing.T) {
	out := testOutput(t)
	page := &fakePage{waitErr: fmt.Errorf("wait for marker: not visible after 15s: %w", ErrTimeout)}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if res.Kind != KindLocatorTimeout {
		t.Fatalf("expected locator timeout, got %s", res.Kind)
	}
	var stepErr *StepError
	if !errors.As(res.Err, &stepErr) || stepErr.Step != StepWaitMarker {
		t.Errorf("expected wait_marker step error, got %v", res.Err)
	}
	if !strings.Contains(res.Err.Error(), "timeout") {
		t.Errorf("expected error to mention the timeout, got %v", res.Err)
	}
	if !fileExists(out.path(RoleBaseline)) {
		t.Error("baseline should have been captured before the wait")
	}
	if fileExists(out.path(RoleLocalized)) {
		t.Error("localized screenshot must not exist after timeout")
	}
	if !fileExists(out.path(RoleError)) {
		t.Error("expected error screenshot")
	}
	if page.closes != 1 {
		t.Errorf("expected page closed once, got %d", page.closes)
	}
}

func TestRun_ClickFailureIsUnexpected(t *testing.T) {
	out := testOutput(t)
	page := &fakePage{clickErr: errors.New("node not interactable")}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if res.Kind != KindUnexpected {
		t.Errorf("expected unexpected error, got %s", res.Kind)
	}
	if _, ok := res.Artifact(RoleError); !ok {
		t.Error("expected error artifact on result")
	}
}

func TestRun_ClickTimeoutIsLocatorTimeout(t *testing.T) {
	out := testOutput(t)
	page := &fakePage{clickErr: fmt.Errorf("click: %w", ErrTimeout)}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if res.Kind != KindLocatorTimeout {
		t.Errorf("expected locator timeout, got %s", res.Kind)
	}
}

func TestRun_ErrorScreenshotFailureStillCloses(t *testing.T) {
	out := testOutput(t)
	page := &fakePage{
		navigateErr: errConnRefused,
		shotErrs:    map[int]error{0: errors.New("target crashed")},
	}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if res.ErrorScreenshotErr == nil {
		t.Error("expected error screenshot failure to be recorded")
	}
	if fileExists(out.path(RoleError)) {
		t.Error("no error screenshot should be written")
	}
	if page.closes != 1 {
		t.Errorf("expected page closed once, got %d", page.closes)
	}
	if res.Kind != KindNavigation {
		t.Errorf("original failure kind should be kept, got %s", res.Kind)
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	out := testOutput(t)

	res := NewSequencer(testTarget(), out, failingOpener(errors.New("exec: chromium not found")), nil).Run(context.Background())

	if res.Kind != KindUnexpected {
		t.Errorf("expected unexpected error, got %s", res.Kind)
	}
	var stepErr *StepError
	if !errors.As(res.Err, &stepErr) || stepErr.Step != StepLaunch {
		t.Errorf("expected launch step error, got %v", res.Err)
	}
	if res.State != StateClosed {
		t.Errorf("expected closed state, got %s", res.State)
	}
}

func TestRun_RemovesStaleArtifacts(t *testing.T) {
	out := testOutput(t)
	if err := os.MkdirAll(out.Dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(out.path(RoleLocalized), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	page := &fakePage{navigateErr: errConnRefused}
	NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if fileExists(out.path(RoleLocalized)) {
		t.Error("stale localized screenshot should be removed")
	}
	if !fileExists(out.path(RoleError)) {
		t.Error("expected error screenshot")
	}
}

func TestRun_CloseErrorRecorded(t *testing.T) {
	out := testOutput(t)
	page := &fakePage{closeErr: errors.New("browser already gone")}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if !res.OK() {
		t.Errorf("close error should not fail the run, got %v", res.Err)
	}
	if res.CloseErr == nil {
		t.Error("expected close error on result")
	}
}

func TestRun_ExactlyOneOutcomeScreenshot(t *testing.T) {
	cases := map[string]*fakePage{
		"success":    {},
		"navigation": {navigateErr: errConnRefused},
		"timeout":    {waitErr: ErrTimeout},
		"click":      {clickErr: errors.New("boom")},
		"baseline":   {shotErrs: map[int]error{0: errors.New("boom")}},
		"localized":  {shotErrs: map[int]error{1: errors.New("boom")}},
	}
	for name, page := range cases {
		t.Run(name, func(t *testing.T) {
			out := testOutput(t)
			NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

			localized := fileExists(out.path(RoleLocalized))
			errShot := fileExists(out.path(RoleError))
			if localized == errShot {
				t.Errorf("expected exactly one of localized/error, got localized=%v error=%v", localized, errShot)
			}
			if page.closes != 1 {
				t.Errorf("expected page closed once, got %d", page.closes)
			}
		})
	}
}

func TestRun_ErrorScreenshotAfterSessionDeadline(t *testing.T) {
	out := testOutput(t)
	sessionErr := fmt.Errorf("wait for marker: browser session deadline exceeded: %w", context.DeadlineExceeded)
	page := &fakePage{waitErr: sessionErr, expireAfterWait: true}

	res := NewSequencer(testTarget(), out, page.opener(), nil).Run(context.Background())

	if res.ErrorScreenshotErr != nil {
		t.Fatalf("error screenshot should not depend on the session deadline: %v", res.ErrorScreenshotErr)
	}
	if !fileExists(out.path(RoleError)) {
		t.Error("expected error screenshot after the session deadline expired")
	}
	if fileExists(out.path(RoleLocalized)) {
		t.Error("localized screenshot must not exist")
	}
	if last := page.calls[len(page.calls)-2]; last != "diagnostic screenshot" {
		t.Errorf("expected diagnostic screenshot before close, got %q", last)
	}
}

func TestRun_NavigateUsesItsOwnTimeout(t *testing.T) {
	page := &fakePage{}
	target := testTarget()
	target.NavigateTimeout = 7 * time.Second

	NewSequencer(target, testOutput(t), page.opener(), nil).Run(context.Background())

	if page.navigateTimeout != 7*time.Second {
		t.Errorf("expected navigate timeout 7s, got %s", page.navigateTimeout)
	}
}
