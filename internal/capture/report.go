package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	consoleHeader = "--- Browser Console Logs ---"
	consoleFooter = "--------------------------"
)

// WriteReport prints the run outcome to w: an error line on failure, then
// the console log between a header and a footer, in arrival order.
func WriteReport(w io.Writer, res *Result) error {
	var b strings.Builder
	if res.Err != nil {
		fmt.Fprintf(&b, "An error occurred during verification: %v\n", res.Err)
		if res.ErrorScreenshotErr != nil {
			fmt.Fprintf(&b, "Error screenshot could not be saved: %v\n", res.ErrorScreenshotErr)
		}
	}
	fmt.Fprintf(&b, "\n%s\n", consoleHeader)
	for _, e := range res.Console {
		b.WriteString(e.Text)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s\n\n", consoleFooter)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary appends a markdown summary of the run to path.
func WriteSummary(path string, res *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()

	status := "PASS"
	if !res.OK() {
		status = "FAIL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Splash Capture: %s\n\n", res.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Run: %s\n", res.RunID)
	fmt.Fprintf(&b, "- URL: %s\n", res.URL)
	fmt.Fprintf(&b, "- Status: %s (%s)\n", status, res.Kind)
	fmt.Fprintf(&b, "- Duration: %s\n", res.Duration.Round(time.Millisecond))
	if res.Err != nil {
		fmt.Fprintf(&b, "- Error: %v\n", res.Err)
	}
	for _, a := range res.Artifacts {
		fmt.Fprintf(&b, "- Artifact (%s): %s (%d bytes)\n", a.Role, a.Path, a.Size)
	}
	fmt.Fprintf(&b, "- Console entries: %d\n\n", len(res.Console))
	if len(res.Log) > 0 {
		b.WriteString("```\n")
		for _, line := range res.Log {
			b.WriteString(strings.TrimRight(line, "\n"))
			b.WriteByte('\n')
		}
		b.WriteString("```\n\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
