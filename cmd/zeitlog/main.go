package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/dstreuter/zeitlog/internal/api"
	"github.com/dstreuter/zeitlog/internal/cli"
	"github.com/dstreuter/zeitlog/internal/config"
	"github.com/dstreuter/zeitlog/internal/db"
	"github.com/dstreuter/zeitlog/internal/server"
	"github.com/dstreuter/zeitlog/internal/session"
	"github.com/dstreuter/zeitlog/internal/store"
	"github.com/dstreuter/zeitlog/internal/track"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// The CLI's local backend is the SQLite store; the server runs over
	// the file-backed store (see serve below).
	database, err := db.OpenDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	localStore := store.NewSQLiteStore(database)
	local := &track.LocalBackend{Tracker: session.NewTracker(localStore, nil)}

	// The mode preference is sticky across invocations: a transport
	// failure drops to local and stays there until switched back.
	prefs := config.LoadPreferences(cfg.DataDir)

	var remote *api.Client
	var remoteBackend track.Backend
	if cfg.ServerURL != "" {
		remote = api.NewClient(cfg.ServerURL, 0)
		remoteBackend = remote
	}

	mode := track.ModeLocalOnly
	if prefs.UseNetwork && remoteBackend != nil {
		mode = track.ModeNetworked
	}
	persist := func(m track.Mode) error {
		return config.SavePreferences(cfg.DataDir, config.Preferences{
			UseNetwork: m == track.ModeNetworked,
		})
	}
	adapter := track.NewAdapter(remoteBackend, local, mode, persist, nil)

	app := &cli.App{
		Backend: adapter,
		Adapter: adapter,
		Config:  &cfg,
		Audits:  localStore,
		Remote:  remote,
		Serve: func(ctx context.Context) error {
			return serve(ctx, cfg)
		},
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	return cli.NewRootCmd(app).Execute()
}

// serve runs the HTTP server over the file-backed store in the data
// directory, independent of the CLI's local SQLite state.
func serve(ctx context.Context, cfg config.Config) error {
	fileStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}
	tracker := session.NewTracker(fileStore, nil)

	srv, err := server.New(tracker, server.Options{
		User:          cfg.User,
		PasswordHash:  cfg.PasswordHash,
		SessionSecret: []byte(cfg.SessionSecret),
		SessionsDir:   cfg.SessionsDir(),
		StaticDir:     cfg.StaticDir,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Addr)
}
