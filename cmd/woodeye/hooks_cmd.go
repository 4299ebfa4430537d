package main

import (
	"fmt"
	"os"

	"github.com/twistedxcom/woodeye/internal/status"
)

// handleHooks implements `woodeye hooks <install|remove|status>`.
func handleHooks(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: woodeye hooks <install|remove|status>")
		os.Exit(1)
	}

	a := newApp()
	installer := status.NewInstaller(a.cfg.ResolveClaudeConfigDir(), a.cfg.ResolveStatusDir())

	switch args[0] {
	case "install":
		changed, err := installer.Install()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if changed {
			fmt.Println("Hooks installed. New Claude Code sessions will report status.")
		} else {
			fmt.Println("Hooks already installed.")
		}
	case "remove", "uninstall":
		changed, err := installer.Remove()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if changed {
			fmt.Println("Hooks removed.")
		} else {
			fmt.Println("No hooks were installed.")
		}
	case "status":
		if installer.Installed() {
			fmt.Println("Hooks are installed.")
		} else {
			fmt.Println("Hooks are not installed. Run 'woodeye hooks install'.")
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown hooks command: %s\n", args[0])
		os.Exit(1)
	}
}
