package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/twistedxcom/woodeye/internal/history"
	"github.com/twistedxcom/woodeye/internal/logging"
	"github.com/twistedxcom/woodeye/internal/status"
	"github.com/twistedxcom/woodeye/internal/web"
)

// handleServe implements `woodeye serve [flags] [paths...]`: the watch daemon
// plus the HTTP/websocket status server.
func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default from config, else 127.0.0.1:8420)")
	noHistory := fs.Bool("no-history", false, "Don't record transitions to the history database")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: woodeye serve [--addr host:port] [--no-history] [paths...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	a := newApp()
	paths := targetPaths(fs.Args())

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = a.cfg.Web.ListenAddr
	}

	server := web.NewServer(web.Config{
		ListenAddr:          listenAddr,
		Token:               a.cfg.Web.Token,
		Paths:               paths,
		PushVAPIDPublicKey:  a.cfg.Web.PushVAPIDPublicKey,
		PushVAPIDPrivateKey: a.cfg.Web.PushVAPIDPrivateKey,
		PushVAPIDSubject:    a.cfg.Web.PushVAPIDSubject,
		PushStatePath:       filepath.Join(a.cfg.ResolveStatusDir(), web.PushSubscriptionsFile),
	}, a.resolver)

	var db *history.DB
	if !*noHistory {
		var err error
		db, err = history.Open(filepath.Join(a.cfg.ResolveStatusDir(), history.DBFileName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	watcher, err := status.NewChangeWatcher(a.cfg.ResolveStatusDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Stop()

	recorder := newTransitionRecorder(db)
	recorder.sync(a.resolver.StatusForAll(paths))

	go func() {
		for range watcher.Notifications() {
			recorder.sync(a.resolver.StatusForAll(paths))
			server.NotifyChanged()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("Serving status for %d path(s) on http://%s\n", len(paths), server.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}

	logging.Shutdown()
}
