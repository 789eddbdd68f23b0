package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/vacay/internal/backend"
	"github.com/hpungsan/vacay/internal/config"
	"github.com/hpungsan/vacay/internal/db"
	"github.com/hpungsan/vacay/internal/history"
	"github.com/hpungsan/vacay/internal/mcp"
	"github.com/hpungsan/vacay/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands are the subcommands that select CLI mode.
var cliCommands = map[string]bool{
	"ui": true, "plan": true, "history": true, "show": true,
	"open": true, "delete": true, "current": true, "pdf": true,
	"health": true, "help": true,
}

type runMode int

const (
	modeBanner runMode = iota
	modeInfo           // --help or --version; no database needed
	modeCLI
	modeUnknown
	modeMCP
)

// detectMode picks the run mode from the first argument and whether stdin is a terminal.
// MCP clients start the binary with no arguments and a pipe on stdin.
func detectMode(args []string, interactive bool) runMode {
	if len(args) < 2 {
		if interactive {
			return modeBanner
		}
		return modeMCP
	}
	switch arg := args[1]; {
	case arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help":
		return modeInfo
	case cliCommands[arg]:
		return modeCLI
	case interactive:
		return modeUnknown
	default:
		return modeMCP
	}
}

func stdinIsTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __   ____ _  ___ __ _ _   _
  \ \ / / _' |/ __/ _' | | | |
   \ V / (_| | (_| (_| | |_| |
    \_/ \__,_|\___\__,_|\__, |
                        |___/
  AI vacation itinerary planner

  Usage: vacay <command> [options]
         vacay ui        start the planner in your browser
         vacay --help

  MCP server mode requires piped input.`)
}

// appDeps are the long-lived services shared by every command.
type appDeps struct {
	cfg     *config.Config
	store   *history.Store
	backend *backend.Client
	planner *ops.Planner
	monitor *ops.HealthMonitor
	logger  *slog.Logger
}

// newAppDeps wires the history store, backend client and operations together
// and loads persisted history.
func newAppDeps(ctx context.Context, database *sql.DB, cfg *config.Config, logger *slog.Logger) *appDeps {
	store := history.New(db.NewSlotStore(database), history.Options{
		Logger: logger,
	})
	store.Load(ctx)

	client := backend.New(cfg.BackendURL, backend.Options{
		RequestTimeout: cfg.RequestTimeout(),
		HealthTimeout:  cfg.HealthTimeout(),
		Logger:         logger,
	})

	return &appDeps{
		cfg:     cfg,
		store:   store,
		backend: client,
		planner: ops.NewPlanner(client, store, logger),
		monitor: ops.NewHealthMonitor(client, cfg.HealthInterval(), logger),
		logger:  logger,
	}
}

func main() {
	mode := detectMode(os.Args, stdinIsTerminal())
	switch mode {
	case modeBanner:
		printBanner()
		return
	case modeInfo:
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fatalf("%v", err)
		}
		return
	case modeUnknown:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'vacay --help' for usage.")
		os.Exit(1)
	}

	// stdout carries CLI output and the MCP protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatalf("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".vacay")

	database, err := db.Init(baseDir)
	if err != nil {
		fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		database.Close()
		fatalf("failed to load config: %v", err)
	}
	db.ConfigurePool(database, cfg)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_tools entries", "tools", unknown)
	}

	deps := newAppDeps(context.Background(), database, cfg, logger)

	if mode == modeCLI {
		err = newCLIApp(deps).Run(os.Args)
	} else {
		err = mcp.Run(deps.store, deps.planner, cfg, logger, Version)
	}
	if err != nil {
		database.Close()
		fatalf("%v", err)
	}
}
