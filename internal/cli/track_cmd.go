package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/track"
)

func newTrackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "track",
		Short: "Live session tracker",
		Long: "Full-screen tracker showing elapsed and pause time, with keys for\n" +
			"the whole session lifecycle. Edits are batched; the session state is\n" +
			"reconciled with the backend in the background.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("track needs an interactive terminal")
			}

			view := track.NewSessionView()
			batcher := track.NewBatcher(app.Backend, view, track.DefaultDebounceDelay, nil)
			defer batcher.Stop()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			rec := track.NewReconciler(view, app.Backend, track.DefaultReconcileInterval, nil)
			go rec.Run(ctx)

			m := newTrackModel(app, view, batcher, rec.Notify)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("running tracker: %w", err)
			}

			// Print the finish line after leaving the alt screen.
			if tm, ok := final.(trackModel); ok && tm.finished != nil {
				fmt.Print(tm.View())
			}
			return nil
		},
	}
}
