package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dstreuter/zeitlog/internal/track"
)

func newModeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode [local|network]",
		Short: "Show or switch the storage backend",
		Long: "Without an argument, prints the current backend mode.\n" +
			"Switching to network requires a configured server URL. A network\n" +
			"failure drops the backend to local until switched back explicitly.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Adapter == nil {
				fmt.Println("local")
				return nil
			}

			if len(args) == 0 {
				fmt.Println(app.Adapter.Mode())
				return nil
			}

			var m track.Mode
			switch args[0] {
			case "local":
				m = track.ModeLocalOnly
			case "network":
				if app.Remote == nil {
					return fmt.Errorf("no server configured (set ZEITLOG_SERVER)")
				}
				m = track.ModeNetworked
			default:
				return fmt.Errorf("unknown mode %q: use local or network", args[0])
			}

			if err := app.Adapter.SetMode(m); err != nil {
				return fmt.Errorf("saving mode preference: %w", err)
			}
			fmt.Printf("Switched to %s mode\n", m)
			return nil
		},
	}

	return cmd
}
