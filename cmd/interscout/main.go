package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mistakeknot/interscout/internal/app"
	"github.com/mistakeknot/interscout/internal/catalog"
	"github.com/mistakeknot/interscout/internal/config"
	"github.com/mistakeknot/interscout/internal/dispatch"
	"github.com/mistakeknot/interscout/internal/keepgoing"
	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/metrics"
	"github.com/mistakeknot/interscout/internal/rank"
	"github.com/mistakeknot/interscout/internal/registry"
	"github.com/mistakeknot/interscout/internal/tools"
)

var version = "0.1.0"

var (
	configFile string
	logLevel   string

	searchType    string
	searchLimit   int
	urlOnly       bool
	jsonOutput    bool
	showRelevance bool

	installPath string

	watchInterval time.Duration
	metricsAddr   string
)

func main() {
	root := &cobra.Command{
		Use:           "interscout",
		Short:         "Find and install MCP servers, and drive the keep-going loop",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to interscout.yaml")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the MCP servers README",
		Args:  cobra.ArbitraryArgs,
		RunE:  runSearch,
	}
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "filter by category (reference, official, community, framework, resource)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", catalog.DefaultLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&urlOnly, "url-only", false, "print only the best match's repository URL")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	searchCmd.Flags().BoolVar(&showRelevance, "show-relevance", false, "include relevance scores")

	installCmd := &cobra.Command{
		Use:   "install <name>",
		Short: "Install the best-matching server into mcp.json",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInstall,
	}
	installCmd.Flags().StringVar(&installPath, "json-path", "", "mcp.json path (default from config)")

	flagCmd := &cobra.Command{
		Use:   "flag",
		Short: "Read or write the keep-going flag",
	}
	flagCmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the flag value",
			Args:  cobra.NoArgs,
			RunE:  runFlagGet,
		},
		&cobra.Command{
			Use:       "set <true|false>",
			Short:     "Write the flag value",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"true", "false"},
			RunE:      runFlagSet,
		},
	)

	watchCmd := &cobra.Command{
		Use:   "watch -- <command> [args...]",
		Short: "Run a command on every tick while the flag reads True",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default from config)")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "interscout v%s\n", version)
		},
	}

	root.AddCommand(searchCmd, installCmd, flagCmd, watchCmd, versionCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "interscout: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*app.Services, func(), error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	svc, err := app.New(ctx, cfg, logger.NewZapAdapter(zapLog))
	if err != nil {
		_ = zapLog.Sync()
		return nil, nil, err
	}
	return svc, func() {
		_ = svc.Close()
		_ = zapLog.Sync()
	}, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchLimit < 1 {
		return fmt.Errorf("--limit must be at least 1")
	}
	ctx := cmd.Context()
	svc, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	query := strings.Join(args, " ")
	results, err := svc.Finder.Find(ctx, catalog.Options{Query: query, Type: searchType, Limit: searchLimit})
	if err != nil {
		return err
	}

	return renderResults(cmd.OutOrStdout(), results, query, outputOptions{
		JSON:          jsonOutput,
		URLOnly:       urlOnly,
		ShowRelevance: showRelevance,
	})
}

type outputOptions struct {
	JSON          bool
	URLOnly       bool
	ShowRelevance bool
}

// renderResults prints search results. URLOnly prints just the best match.
func renderResults(out io.Writer, results []rank.Scored, query string, opts outputOptions) error {
	switch {
	case opts.JSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if opts.ShowRelevance {
			return enc.Encode(results)
		}
		servers := make([]registry.Server, 0, len(results))
		for _, r := range results {
			servers = append(servers, r.Server)
		}
		return enc.Encode(servers)
	case opts.URLOnly:
		if len(results) == 0 {
			return fmt.Errorf("no MCP servers found matching %q", query)
		}
		fmt.Fprintln(out, results[0].Repository)
	default:
		if len(results) == 0 {
			fmt.Fprintf(out, "No MCP servers found matching %q\n", query)
			return nil
		}
		for _, r := range results {
			if opts.ShowRelevance {
				fmt.Fprintf(out, "%s [%s] (%.0f)\n", r.Name, r.Type, r.Relevance)
			} else {
				fmt.Fprintf(out, "%s [%s]\n", r.Name, r.Type)
			}
			if r.Description != "" {
				fmt.Fprintf(out, "  %s\n", r.Description)
			}
			fmt.Fprintf(out, "  %s\n", r.Repository)
		}
	}
	return nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	path := installPath
	if path == "" {
		path = svc.Config.Install.MCPJSONPath
	}
	result := tools.Install(ctx, svc.Finder, path, strings.Join(args, " "))
	if result.Status != "success" {
		return errors.New(result.Message)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Current servers: %s\n", strings.Join(result.Previous, ", "))
	fmt.Fprintln(out, result.Message)
	fmt.Fprintf(out, "Updated servers: %s\n", strings.Join(result.Current, ", "))
	return nil
}

func runFlagGet(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	content, err := keepgoing.NewFileStore(cfg.Flag.Path).Read()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(content))
	return nil
}

func runFlagSet(cmd *cobra.Command, args []string) error {
	var active bool
	switch strings.ToLower(args[0]) {
	case "true", "on", "1":
		active = true
	case "false", "off", "0":
	default:
		return fmt.Errorf("flag value must be true or false, got %q", args[0])
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := keepgoing.SetFlag(keepgoing.NewFileStore(cfg.Flag.Path), active); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", cfg.Flag.Path, keepgoing.Format(active))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	action, err := dispatch.Command(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	svc, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg := svc.Config
	log := svc.Logger

	interval := watchInterval
	if interval <= 0 {
		interval = cfg.Flag.Interval
	}
	addr := metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}

	if addr != "" {
		srv := &http.Server{
			Addr: addr,
			Handler: metrics.Router(func() (string, error) {
				active, err := keepgoing.ReadFlag(svc.Flag)
				if err != nil {
					return keepgoing.Stopped.String(), err
				}
				if active {
					return keepgoing.Active.String(), nil
				}
				return keepgoing.Stopped.String(), nil
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("metrics server starting", map[string]interface{}{"addr": addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	summary := keepgoing.NewCoordinator(svc.Flag, log).Run(ctx, interval, action)
	fmt.Fprintf(cmd.OutOrStdout(), "stopped after %d ticks, %d actions: %s\n", summary.Ticks, summary.Actions, summary.Reason)
	return nil
}
