package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/splashcheck/internal/capture"
	"github.com/bobmcallan/splashcheck/internal/common"
	"github.com/bobmcallan/splashcheck/internal/config"
)

// verifier runs one capture with per-call overrides.
type verifier interface {
	VerifyWith(ctx context.Context, overrides config.FlagOverrides) (*capture.Result, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("splashcheck\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

func handleVerifySplash(v verifier) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		overrides := config.FlagOverrides{
			URL:    request.GetString("url", ""),
			OutDir: request.GetString("out_dir", ""),
		}
		if secs := request.GetInt("timeout_seconds", 0); secs > 0 {
			overrides.Timeout = fmt.Sprintf("%ds", secs)
		}

		res, err := v.VerifyWith(ctx, overrides)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		text := formatResult(res)
		if !res.OK() {
			return errorResult(text), nil
		}
		return textResult(text), nil
	}
}

func formatResult(res *capture.Result) string {
	var b strings.Builder
	status := "VERIFIED"
	if !res.OK() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Status: %s (%s)\n", status, res.Kind)
	fmt.Fprintf(&b, "URL: %s\n", res.URL)
	fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	if len(res.Artifacts) > 0 {
		b.WriteString("Screenshots:\n")
		for _, a := range res.Artifacts {
			fmt.Fprintf(&b, "  - %s: %s\n", a.Role, a.Path)
		}
	}
	capture.WriteReport(&b, res)
	if len(res.Log) > 0 {
		b.WriteString("Run log:\n")
		for _, line := range res.Log {
			fmt.Fprintf(&b, "  %s\n", strings.TrimRight(line, "\n"))
		}
	}
	return b.String()
}
