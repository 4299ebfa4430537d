package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/term"
)

// handleStatus implements `woodeye status [flags] [paths...]`.
func handleStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output JSON")
	debug := fs.Bool("debug", false, "Dump raw status files with staleness verdicts")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: woodeye status [--json] [--debug] [paths...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a := newApp()

	// Pipes get JSON without asking.
	machineOut := *jsonOut || !term.IsTerminal(int(os.Stdout.Fd()))

	if *debug {
		printDebug(a, machineOut)
		return
	}

	paths := targetPaths(fs.Args())
	statuses := a.resolver.StatusForAll(paths)

	if machineOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(statuses); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	for _, path := range sorted {
		ws := statuses[path]
		if len(ws.ActiveSessions) == 0 {
			fmt.Println(statusRow("-", path, ""))
			continue
		}
		for i, sess := range ws.ActiveSessions {
			detail := ""
			if sess.LastTool != "" {
				detail = "  [" + sess.LastTool + "]"
			}
			if sess.WaitingReason != "" {
				detail += "  " + sess.WaitingReason
			}
			shown := path
			if i > 0 {
				shown = ""
			}
			fmt.Println(statusRow(string(sess.State), shown, detail))
		}
	}
}

// statusRow formats one table line; every row shares the same column widths
// so the path column stays aligned across session and no-session rows.
func statusRow(label, path, detail string) string {
	return fmt.Sprintf("%-22s %-40s%s", label, path, detail)
}

// printDebug dumps every status file verbatim, including records the
// resolver would filter, with each file's age, threshold, and verdict.
func printDebug(a *app, machineOut bool) {
	entries := a.store.DebugEntries()

	if machineOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"status_dir": a.store.Dir(),
			"entries":    entries,
		})
		return
	}

	fmt.Printf("Status dir: %s\n", a.store.Dir())
	if len(entries) == 0 {
		fmt.Println("No status files.")
		return
	}

	for _, e := range entries {
		if e.ParseError != "" {
			fmt.Printf("%s: PARSE ERROR: %s\n", e.File, e.ParseError)
			continue
		}
		verdict := "fresh"
		if e.Stale {
			verdict = "STALE"
		}
		age := time.Duration(e.AgeSeconds) * time.Second
		fmt.Printf("%s: %s %s (age %s, threshold %ds, %s)",
			e.File, e.State, e.ProjectPath, age, e.Threshold, verdict)
		if e.LastTool != "" {
			fmt.Printf(" tool=%s", e.LastTool)
		}
		fmt.Println()
	}
}
