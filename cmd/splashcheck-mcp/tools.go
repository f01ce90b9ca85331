package main

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerTools registers all MCP tools on the server.
func registerTools(s *server.MCPServer, v verifier) {
	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createVerifySplashTool(), handleVerifySplash(v))
}

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the splashcheck version. Use this to verify connectivity."),
	)
}

func createVerifySplashTool() mcp.Tool {
	return mcp.NewTool("verify_splash",
		mcp.WithDescription("Open the guide app in a headless browser, screenshot the splash screen, "+
			"click the English flag, wait for the English guide list and screenshot it. "+
			"Returns the outcome, the screenshot paths and the page console log."),
		mcp.WithString("url", mcp.Description("Page under test (default: configured target url)")),
		mcp.WithString("out_dir", mcp.Description("Directory for screenshots (default: configured output dir)")),
		mcp.WithNumber("timeout_seconds", mcp.Description("Seconds to wait for the English guide heading (default: 15)")),
	)
}
