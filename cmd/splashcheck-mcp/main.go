// Command splashcheck-mcp exposes the splash capture as an MCP tool so an
// agent can verify the page after deploying changes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/splashcheck/internal/app"
	"github.com/bobmcallan/splashcheck/internal/common"
	"github.com/bobmcallan/splashcheck/internal/config"
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
	var configFiles configPaths
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	httpAddr := flag.String("http", "", "Serve streamable HTTP on this address instead of stdio")
	flag.Parse()

	common.LoadVersionFromFile()

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// stdout is the JSON-RPC channel in stdio mode; the logger writes to stderr.
	logger := common.NewLoggerFromConfig(cfg.Logging)

	application, err := app.New(cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(2)
	}

	mcpServer := server.NewMCPServer(
		"splashcheck",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)
	registerTools(mcpServer, application)

	if *httpAddr == "" {
		if err := server.ServeStdio(mcpServer); err != nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	httpServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithStateLess(true),
	)
	logger.Info().Str("addr", *httpAddr).Msg("starting MCP streamable HTTP")
	if err := httpServer.Start(*httpAddr); err != nil {
		fmt.Fprintf(os.Stderr, "http server error: %v\n", err)
		os.Exit(1)
	}
}
