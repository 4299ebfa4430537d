package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/twistedxcom/woodeye/internal/history"
)

// handleHistory implements `woodeye history [flags] [path]`.
func handleHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 30, "Maximum transitions to show")
	pruneDays := fs.Int("prune", 0, "Delete transitions older than N days and exit")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: woodeye history [-n N] [-prune DAYS] [path]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a := newApp()
	db, err := history.Open(filepath.Join(a.cfg.ResolveStatusDir(), history.DBFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *pruneDays > 0 {
		n, err := db.Prune(time.Duration(*pruneDays) * 24 * time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Pruned %d transitions older than %d days.\n", n, *pruneDays)
		return
	}

	path := ""
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	transitions, err := db.Recent(path, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(transitions) == 0 {
		fmt.Println("No recorded transitions.")
		return
	}

	for _, t := range transitions {
		line := fmt.Sprintf("%s  %-40s %s -> %s",
			t.At.Format("2006-01-02 15:04:05"), t.ProjectPath, t.FromState, t.ToState)
		if t.LastTool != "" {
			line += "  [" + t.LastTool + "]"
		}
		fmt.Println(line)
	}
}
