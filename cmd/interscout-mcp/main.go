package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mistakeknot/interscout/internal/app"
	"github.com/mistakeknot/interscout/internal/config"
	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/tools"
)

var version = "0.1.0"

func main() {
	configFile := flag.String("config", "", "path to interscout.yaml")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "interscout-mcp: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if cfg.Dispatch.Path != "" {
		if info, err := os.Stat(cfg.Dispatch.Path); err != nil {
			fmt.Fprintf(os.Stderr, "interscout-mcp: dispatch path %q: %v\n", cfg.Dispatch.Path, err)
			os.Exit(1)
		} else if info.IsDir() {
			fmt.Fprintf(os.Stderr, "interscout-mcp: dispatch path %q is a directory, expected a file\n", cfg.Dispatch.Path)
			os.Exit(1)
		}
	}

	svc, err := app.New(context.Background(), cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "interscout-mcp: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	s := server.NewMCPServer(
		"interscout",
		version,
		server.WithToolCapabilities(true),
	)

	tools.RegisterAll(s, tools.Deps{
		Finder:       svc.Finder,
		Flag:         svc.Flag,
		MCPJSONPath:  cfg.Install.MCPJSONPath,
		DispatchPath: cfg.Dispatch.Path,
		Logger:       log,
	})

	log.Info("interscout MCP server starting", map[string]interface{}{
		"version":  version,
		"flagPath": cfg.Flag.Path,
		"cache":    cfg.Cache.Backend,
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "interscout-mcp: %v\n", err)
		os.Exit(1)
	}
}
