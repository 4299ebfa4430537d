package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/twistedxcom/woodeye/internal/config"
	"github.com/twistedxcom/woodeye/internal/logging"
	"github.com/twistedxcom/woodeye/internal/status"
	"github.com/twistedxcom/woodeye/internal/worktree"
)

const Version = "0.3.0"

func init() {
	initColorProfile()
}

// initColorProfile configures lipgloss color profile based on terminal
// capabilities. Prefers TrueColor, falls back to ANSI256.
func initColorProfile() {
	// WOODEYE_COLOR: truecolor, 256, 16, none
	if colorEnv := os.Getenv("WOODEYE_COLOR"); colorEnv != "" {
		switch strings.ToLower(colorEnv) {
		case "truecolor", "true", "24bit":
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		case "256", "ansi256":
			lipgloss.SetColorProfile(termenv.ANSI256)
			return
		case "16", "ansi", "basic":
			lipgloss.SetColorProfile(termenv.ANSI)
			return
		case "none", "off", "ascii":
			lipgloss.SetColorProfile(termenv.Ascii)
			return
		}
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	lipgloss.SetColorProfile(termenv.ANSI256)
}

// app bundles the wiring every subcommand needs.
type app struct {
	cfg      *config.Config
	store    *status.FileStore
	scanner  *status.TranscriptScanner
	resolver *status.Resolver
}

func newApp() *app {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = &config.Config{}
	}

	debugMode := os.Getenv("WOODEYE_DEBUG") != ""
	logCfg := logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Debug:  debugMode,
	}
	if debugMode || cfg.Log.Dir != "" {
		logCfg.LogDir = cfg.ResolveLogDir()
	}
	if debugMode && logCfg.Level == "" {
		logCfg.Level = "debug"
	}
	logging.Init(logCfg)

	store := status.NewFileStore(cfg.ResolveStatusDir())
	scanner := status.NewTranscriptScanner(cfg.TranscriptsDir(), store)

	return &app{
		cfg:      cfg,
		store:    store,
		scanner:  scanner,
		resolver: status.NewResolver(store, scanner),
	}
}

// targetPaths resolves the paths a command operates on: explicit arguments
// win, otherwise the worktrees of the current directory (or the directory
// itself when it isn't a git repository).
func targetPaths(args []string) []string {
	if len(args) > 0 {
		return args
	}
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return worktree.Paths(worktree.GitLister{}, cwd)
}

func printHelp() {
	fmt.Println(`woodeye - live activity status for Claude Code sessions

Usage:
  woodeye                        Launch the status dashboard
  woodeye status [paths...]      Show session status for paths (default: worktrees of cwd)
  woodeye hooks <install|remove|status>
                                 Manage Claude Code status hooks
  woodeye session rm <path>      Remove the status file for a project path
  woodeye history [paths...]     Show recorded state transitions
  woodeye worktree [dir]         List git worktrees for a repository
  woodeye watch [paths...]       Watch for status changes and record history
  woodeye serve [paths...]       Watch and serve status over HTTP/websocket
  woodeye version                Print version

Flags vary per command; run 'woodeye <command> -h' for details.

Environment:
  WOODEYE_STATUS_DIR   Override the status directory (~/.woodeye-status)
  CLAUDE_CONFIG_DIR    Override the Claude config directory (~/.claude)
  WOODEYE_DEBUG        Enable debug logging to the status directory
  WOODEYE_COLOR        Force color profile: truecolor, 256, 16, none`)
}

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			fmt.Printf("woodeye v%s\n", Version)
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "status":
			handleStatus(args[1:])
			return
		case "hooks":
			handleHooks(args[1:])
			return
		case "session":
			handleSession(args[1:])
			return
		case "history":
			handleHistory(args[1:])
			return
		case "worktree", "wt":
			handleWorktree(args[1:])
			return
		case "watch":
			handleWatch(args[1:])
			return
		case "serve", "web":
			handleServe(args[1:])
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
			printHelp()
			os.Exit(1)
		}
	}

	runDashboard()
}
