package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: "Serves the HTTP API and web UI over the file-backed store in the\n" +
			"data directory. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Serve == nil {
				return fmt.Errorf("server is not configured")
			}
			fmt.Printf("Listening on %s (data: %s)\n", app.Config.Addr, app.Config.DataDir)
			return app.Serve(cmd.Context())
		},
	}
}
