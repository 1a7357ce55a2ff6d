// Package cli implements the zeitlog command tree and the live tracker
// TUI. Commands talk to the tracking backend through the sticky
// network/local adapter, so every command works offline.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/api"
	"github.com/dstreuter/zeitlog/internal/config"
	"github.com/dstreuter/zeitlog/internal/store"
	"github.com/dstreuter/zeitlog/internal/track"
)

// AuditSource exposes the local store's audit trail when it keeps one.
type AuditSource interface {
	AuditLog(ctx context.Context) ([]store.AuditRecord, error)
}

// App holds the wired dependencies used by CLI commands.
type App struct {
	Backend track.Backend
	Adapter *track.Adapter
	Config  *config.Config

	// Audits is nil when the local store keeps no audit trail.
	Audits AuditSource
	// Remote is nil when no server URL is configured.
	Remote *api.Client
	// Serve runs the HTTP server until ctx is canceled.
	Serve func(ctx context.Context) error

	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "zeitlog" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "zeitlog",
		Short: "Single-user work time tracking",
	}

	root.AddCommand(
		newStartCmd(app),
		newPauseCmd(app),
		newResumeCmd(app),
		newFinishCmd(app),
		newCancelCmd(app),
		newStatusCmd(app),
		newNoteCmd(app),
		newTrackCmd(app),
		newEntryCmd(app),
		newStatsCmd(app),
		newExportCmd(app),
		newModeCmd(app),
		newAuditCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newServeCmd(app),
	)

	return root
}
