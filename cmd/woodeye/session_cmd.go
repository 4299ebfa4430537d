package main

import (
	"fmt"
	"os"
	"time"

	"github.com/twistedxcom/woodeye/internal/status"
)

// handleSession implements `woodeye session <list|rm>`.
func handleSession(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: woodeye session <list|rm <path>>")
		os.Exit(1)
	}

	a := newApp()

	switch args[0] {
	case "list", "ls":
		sessions := a.store.ReadAll()
		if len(sessions) == 0 {
			fmt.Println("No active sessions.")
			return
		}
		for _, sess := range sessions {
			age := time.Since(time.Unix(sess.Timestamp, 0)).Round(time.Second)
			fmt.Printf("%s  %-22s %-40s (%s ago)\n", sess.SessionKey, sess.State, sess.ProjectPath, age)
		}
	case "rm", "remove":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: woodeye session rm <path>")
			os.Exit(1)
		}
		path := args[1]
		if err := a.store.Remove(status.SessionKey(path)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed status for %s\n", path)
	default:
		fmt.Fprintf(os.Stderr, "Unknown session command: %s\n", args[0])
		os.Exit(1)
	}
}
